package wifidb

import (
	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/wifi"
)

// GetSettings returns the stored settings, or defaults when none were saved.
func (db *DB) GetSettings() (wifi.Settings, error) {
	settings := wifi.DefaultSettings()

	if _, err := db.getJSON(settingsBucket, settingsKey, &settings); err != nil {
		return wifi.Settings{}, errors.Errorf("could not get settings: %v", err)
	}

	return settings, nil
}

func (db *DB) SetSettings(settings wifi.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := db.setJSON(settingsBucket, settingsKey, settings); err != nil {
		return errors.Errorf("could not set settings: %v", err)
	}

	return nil
}

// Import stores a seed, replacing settings and networks.
func (db *DB) Import(seed *Seed) error {
	if err := db.SetSettings(seed.Settings); err != nil {
		return errors.Errorf("could not import settings: %v", err)
	}

	if err := db.SetNetworks(wifi.NewCatalog(seed.Networks)); err != nil {
		return errors.Errorf("could not import networks: %v", err)
	}

	return nil
}
