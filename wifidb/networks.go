package wifidb

import (
	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifi"
)

// GetNetworks returns the stored catalog, empty when nothing was saved yet.
func (db *DB) GetNetworks() (wifi.Catalog, error) {
	var networks []wifi.Network

	if _, err := db.getJSON(networksBucket, catalogKey, &networks); err != nil {
		return nil, errors.Errorf("could not get networks: %v", err)
	}

	return wifi.NewCatalog(networks), nil
}

// SetNetworks validates and stores the catalog.
func (db *DB) SetNetworks(catalog wifi.Catalog) error {
	if len(catalog) > wifi.MaxNetworks {
		return errors.Errorf("at most %d networks can be configured", wifi.MaxNetworks)
	}

	for _, network := range catalog {
		if err := network.Validate(); err != nil {
			return errors.Errorf("invalid network %q: %v", network.SSID, err)
		}
	}

	if err := db.setJSON(networksBucket, catalogKey, catalog); err != nil {
		return errors.Errorf("could not set networks: %v", err)
	}

	return nil
}

// UpsertNetwork stores one provisioned network and returns the new catalog.
func (db *DB) UpsertNetwork(network wifi.Network) (wifi.Catalog, error) {
	if err := network.Validate(); err != nil {
		return nil, err
	}

	catalog, err := db.GetNetworks()
	if err != nil {
		return nil, err
	}

	catalog = catalog.Upsert(network)

	if err := db.SetNetworks(catalog); err != nil {
		return nil, err
	}

	return catalog, nil
}
