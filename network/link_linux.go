//go:build linux

package network

import (
	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

// setLinkUp raises or lowers the administrative state of an interface.
func setLinkUp(name string, up bool) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return errors.Errorf("could not open control socket: %v", err)
	}
	defer unix.Close(fd)

	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return errors.Errorf("invalid interface name %v: %v", name, err)
	}

	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return errors.Errorf("could not read flags of %v: %v", name, err)
	}

	flags := ifr.Uint16()
	if up {
		flags |= unix.IFF_UP
	} else {
		flags &^= unix.IFF_UP
	}
	ifr.SetUint16(flags)

	if err := unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr); err != nil {
		return errors.Errorf("could not set flags of %v: %v", name, err)
	}

	return nil
}
