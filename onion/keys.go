package onion

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base32"

	"github.com/go-errors/errors"
	"golang.org/x/crypto/sha3"
)

const (
	version3 = 0x03
)

// standard base32 encoding with lowercase characters
var base32encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

func GenerateKey() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Errorf("could not generate onion key: %v", err)
	}

	return key, nil
}

// ID computes the v3 onion address of key, without the .onion suffix.
func ID(key ed25519.PrivateKey) string {
	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return ""
	}

	// CHECKSUM = H(".onion checksum" | PUBKEY | VERSION)[:2]
	hash := sha3.New256()
	hash.Write([]byte(".onion checksum"))
	hash.Write(pub)
	hash.Write([]byte{version3})
	checksum := hash.Sum(nil)[:2]

	// onion_address = base32(PUBKEY | CHECKSUM | VERSION)
	raw := make([]byte, 0, len(pub)+3)
	raw = append(raw, pub...)
	raw = append(raw, checksum...)
	raw = append(raw, version3)

	return base32encoding.EncodeToString(raw)
}
