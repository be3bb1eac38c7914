//go:build !linux

package network

import "github.com/go-errors/errors"

func setLinkUp(name string, up bool) error {
	return errors.Errorf("cannot change link state of %v on this platform", name)
}
