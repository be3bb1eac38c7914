package wifidb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-errors/errors"
	"go.etcd.io/bbolt"
)

const (
	dbFilename = "wifi.db"
)

var (
	networksBucket = []byte("networks")
	settingsBucket = []byte("settings")

	catalogKey  = []byte("catalog")
	settingsKey = []byte("wifi")
)

// DB persists the configured networks and the connection settings.
type DB struct {
	*bbolt.DB
}

// Open opens or creates wifi.db in dir.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Errorf("could not create data dir %v: %v", dir, err)
	}

	path := filepath.Join(dir, dbFilename)

	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Errorf("could not open %v: %v", path, err)
	}

	db := &DB{DB: bdb}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{networksBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, errors.Errorf("could not create buckets: %v", err)
	}

	return db, nil
}
