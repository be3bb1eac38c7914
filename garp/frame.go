package garp

import (
	"encoding/binary"
	"net"
	"net/netip"

	"github.com/go-errors/errors"
)

const (
	etherTypeARP  = 0x0806
	etherTypeIPv4 = 0x0800

	hardwareTypeEthernet = 1
	opRequest            = 1

	sizeEthernetHeader = 14
	sizeARPv4Header    = 28

	// FrameSize is the length of a gratuitous ARP frame without padding.
	FrameSize = sizeEthernetHeader + sizeARPv4Header
)

var broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Frame builds a broadcast ARP request announcing that ip is at hw. Sender
// and target protocol addresses are both ip.
func Frame(hw net.HardwareAddr, ip netip.Addr) ([]byte, error) {
	if len(hw) != 6 {
		return nil, errors.Errorf("hardware address %v is not ethernet", hw)
	}

	if !ip.Is4() {
		return nil, errors.Errorf("address %v is not IPv4", ip)
	}

	buf := make([]byte, FrameSize)
	proto := ip.As4()

	// ethernet
	copy(buf[0:6], broadcast)
	copy(buf[6:12], hw)
	binary.BigEndian.PutUint16(buf[12:], etherTypeARP)

	// arp
	arp := buf[sizeEthernetHeader:]
	binary.BigEndian.PutUint16(arp[0:], hardwareTypeEthernet)
	binary.BigEndian.PutUint16(arp[2:], etherTypeIPv4)
	arp[4] = 6
	arp[5] = 4
	binary.BigEndian.PutUint16(arp[6:], opRequest)
	copy(arp[8:14], hw)
	copy(arp[14:18], proto[:])
	// target hardware address stays zero
	copy(arp[24:28], proto[:])

	return buf, nil
}
