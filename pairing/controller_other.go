//go:build !linux

package pairing

import (
	"github.com/go-errors/errors"
)

type Controller struct{}

func NewController(config *Config) (*Controller, error) {
	return nil, errors.New("bluetooth pairing is only supported on linux")
}

func (c *Controller) Start() error {
	return nil
}

func (c *Controller) Stop() error {
	return nil
}
