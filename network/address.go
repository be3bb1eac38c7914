package network

import (
	"net"
	"net/netip"
	"os"
	"os/exec"
	"strconv"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifi"
)

// interfaceAddress returns the first IPv4 address of an interface.
func interfaceAddress(name string) netip.Addr {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return netip.Addr{}
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}
	}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		if ip, ok := netip.AddrFromSlice(ipnet.IP.To4()); ok && ip.IsValid() && !ip.IsLinkLocalUnicast() {
			return ip
		}
	}

	return netip.Addr{}
}

func prefixLength(netmask netip.Addr) int {
	ones, _ := net.IPMask(netmask.AsSlice()).Size()
	return ones
}

// applyStatic configures a fixed address, default route and resolver.
func applyStatic(ifname string, cfg *wifi.IPConfig, resolvConf string) error {
	prefix := cfg.Address.String() + "/" + strconv.Itoa(prefixLength(cfg.Netmask))

	commands := [][]string{
		{"ip", "addr", "flush", "dev", ifname},
		{"ip", "addr", "add", prefix, "dev", ifname},
		{"ip", "route", "replace", "default", "via", cfg.Gateway.String(), "dev", ifname},
	}

	for _, args := range commands {
		out, err := exec.Command(args[0], args[1:]...).CombinedOutput()
		if err != nil {
			return errors.Errorf("could not run %v: %v: %s", args, err, out)
		}
	}

	if cfg.DNS.IsValid() && resolvConf != "" {
		err := os.WriteFile(resolvConf, []byte("nameserver "+cfg.DNS.String()+"\n"), 0644)
		if err != nil {
			return errors.Errorf("could not write %v: %v", resolvConf, err)
		}
	}

	return nil
}
