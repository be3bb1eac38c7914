package wifidb

import (
	"crypto/ed25519"

	"github.com/go-errors/errors"
)

var onionKey = []byte("onion")

// GetOnionKey returns nil when no key was stored yet.
func (db *DB) GetOnionKey() (ed25519.PrivateKey, error) {
	var raw []byte

	found, err := db.getJSON(settingsBucket, onionKey, &raw)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("stored onion key has %d bytes, want %d", len(raw), ed25519.PrivateKeySize)
	}

	return ed25519.PrivateKey(raw), nil
}

func (db *DB) SetOnionKey(key ed25519.PrivateKey) error {
	return db.setJSON(settingsBucket, onionKey, []byte(key))
}
