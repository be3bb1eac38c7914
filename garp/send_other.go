//go:build !linux

package garp

import (
	"github.com/go-errors/errors"
)

func sendFrame(ifname string, frame []byte) error {
	return errors.New("gratuitous arp is only supported on linux")
}
