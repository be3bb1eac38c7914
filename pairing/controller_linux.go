package pairing

import (
	"time"

	"github.com/go-errors/errors"
	"github.com/muka/go-bluetooth/api"
	"github.com/muka/go-bluetooth/linux/btmgmt"
	"github.com/muka/go-bluetooth/service"
)

const (
	// Unique UUID suffix of the provisioning service
	uuidSuffix = "-6e1c-4b3f-9a57-5c2f0d8e61a4"

	// Prefix of the provisioning service UUID
	wifiServiceUuidPrefix = "CB00"

	// Where to expose the application
	objectName = "land.lightning"
	objectPath = "/wifid/pairing/service"

	defaultLocalName = "wifid"

	wifiServiceUuid           = wifiServiceUuidPrefix + "0000" + uuidSuffix
	networkAvailabilityStatus = wifiServiceUuidPrefix + "CB01" + uuidSuffix
	ipAddress                 = wifiServiceUuidPrefix + "CB02" + uuidSuffix
	wifiScanList              = wifiServiceUuidPrefix + "CB03" + uuidSuffix
	wifiSsidString            = wifiServiceUuidPrefix + "CB04" + uuidSuffix
	wifiPskString             = wifiServiceUuidPrefix + "CB05" + uuidSuffix
	wifiConnectSignal         = wifiServiceUuidPrefix + "CB06" + uuidSuffix
)

// Controller advertises a GATT service that lets a phone provision a network
// over bluetooth.
type Controller struct {
	log       Logger
	adapterId string
	app       *service.Application
	handlers  *handlers
}

func NewController(config *Config) (*Controller, error) {
	if config.Device == nil {
		return nil, errors.New("device is required")
	}

	controller := &Controller{
		adapterId: config.AdapterId,
		handlers:  newHandlers(config),
	}

	if config.Logger != nil {
		controller.log = config.Logger
	} else {
		controller.log = noopLogger{}
	}

	localName := config.LocalName
	if localName == "" {
		localName = defaultLocalName
	}

	h := controller.handlers

	app, err := newGattApp(objectName, objectPath, localName)
	if err != nil {
		return nil, err
	}

	err = app.addService(serviceSpec{
		uuid:       wifiServiceUuid,
		primary:    true,
		advertised: true,
		characteristics: []characteristicSpec{
			staticString(deviceNameUuid, "Device Name", localName),
			staticString(manufacturerNameUuid, "Manufacturer Name", "The Lightning Land"),
			staticString(modelNumberUuid, "Model Number", "wifid"),
			{uuid: networkAvailabilityStatus, description: "Network Availability Status", read: h.readNetworkAvailability},
			{uuid: ipAddress, description: "IP Address", read: h.readIPAddress},
			{uuid: wifiScanList, description: "Wi-Fi Scan List", read: h.readScanList},
			{uuid: wifiSsidString, description: "Wi-Fi SSID", read: h.readSSID, write: h.writeSSID},
			{uuid: wifiPskString, description: "Wi-Fi PSK", write: h.writePassphrase},
			{uuid: wifiConnectSignal, description: "Wi-Fi Connect Signal", write: h.writeConnectSignal},
		},
	})
	if err != nil {
		return nil, err
	}

	controller.app, err = app.run()
	if err != nil {
		return nil, err
	}

	return controller, nil
}

func (c *Controller) Start() error {
	mgmt := btmgmt.NewBtMgmt(c.adapterId)
	err := mgmt.Reset()
	if err != nil {
		return errors.Errorf("could not reset %s: %v", c.adapterId, err)
	}

	// the adapter needs a moment after the reset
	time.Sleep(time.Millisecond * 500)

	gattManager, err := api.GetGattManager(c.adapterId)
	if err != nil {
		return errors.Errorf("could not get gatt manager: %v", err)
	}

	err = gattManager.RegisterApplication(c.app.Path(), map[string]interface{}{})
	if err != nil {
		return errors.Errorf("could not register application: %v", err)
	}

	err = c.app.StartAdvertising(c.adapterId)
	if err != nil {
		return errors.Errorf("could not advertise: %v", err)
	}

	c.log.Infof("Advertising pairing service on %v", c.adapterId)

	return nil
}

func (c *Controller) Stop() error {
	err := c.app.StopAdvertising()
	if err != nil {
		return errors.Errorf("could not stop advertising: %v", err)
	}

	gattManager, err := api.GetGattManager(c.adapterId)
	if err != nil {
		return errors.Errorf("could not get gatt manager: %v", err)
	}

	err = gattManager.UnregisterApplication(c.app.Path())
	if err != nil {
		return errors.Errorf("could not unregister application: %v", err)
	}

	return nil
}
