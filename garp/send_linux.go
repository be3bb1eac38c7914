//go:build linux

package garp

import (
	"net"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

func htons(i uint16) uint16 {
	return (i<<8)&0xff00 | i>>8
}

// sendFrame writes a raw ethernet frame to the interface.
func sendFrame(ifname string, frame []byte) error {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return errors.Errorf("could not find interface %v: %v", ifname, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(etherTypeARP)))
	if err != nil {
		return errors.Errorf("could not open packet socket: %v", err)
	}
	defer unix.Close(fd)

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(etherTypeARP),
		Ifindex:  iface.Index,
		Halen:    6,
	}
	copy(addr.Addr[:], broadcast)

	if err := unix.Sendto(fd, frame, 0, addr); err != nil {
		return errors.Errorf("could not send on %v: %v", ifname, err)
	}

	return nil
}
