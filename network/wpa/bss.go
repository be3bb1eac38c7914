package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type BSS struct {
	obj dbus.BusObject
}

func (b *BSS) String() string {
	return string(b.obj.Path())
}

// Bss holds the properties of one access point seen by wpa_supplicant.
type Bss struct {
	Ssid      string
	Bssid     [6]byte
	Signal    int
	Frequency int
	Privacy   bool

	// WpaKeyMgmt and RsnKeyMgmt list the key management suites
	// advertised in the WPA and RSN information elements.
	WpaKeyMgmt []string
	RsnKeyMgmt []string
}

func (b *BSS) GetAll() (*Bss, error) {
	call := b.obj.Call(propertiesIfc+".GetAll", 0, bssName)
	if call.Err != nil {
		return nil, errors.Errorf("could not get all properties: %v", call.Err)
	}

	props, ok := call.Body[0].(map[string]dbus.Variant)
	if !ok {
		return nil, errors.Errorf("could not convert properties of %v", b)
	}

	bss := Bss{}

	if val, ok := props["SSID"]; ok {
		if ssid, ok := val.Value().([]byte); ok {
			bss.Ssid = string(ssid)
		} else {
			return nil, errors.Errorf("could not convert SSID to string: %v", val)
		}
	} else {
		return nil, errors.Errorf("mandatory property SSID was missing")
	}

	if val, ok := props["BSSID"]; ok {
		if bssid, ok := val.Value().([]byte); ok && len(bssid) == len(bss.Bssid) {
			copy(bss.Bssid[:], bssid)
		} else {
			return nil, errors.Errorf("could not convert BSSID: %v", val)
		}
	} else {
		return nil, errors.Errorf("mandatory property BSSID was missing")
	}

	if val, ok := props["Signal"]; ok {
		if signal, ok := val.Value().(int16); ok {
			bss.Signal = int(signal)
		}
	}

	if val, ok := props["Frequency"]; ok {
		if freq, ok := val.Value().(uint16); ok {
			bss.Frequency = int(freq)
		}
	}

	if val, ok := props["Privacy"]; ok {
		bss.Privacy, _ = val.Value().(bool)
	}

	bss.WpaKeyMgmt = keyMgmt(props["WPA"])
	bss.RsnKeyMgmt = keyMgmt(props["RSN"])

	return &bss, nil
}

func keyMgmt(v dbus.Variant) []string {
	ie, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return nil
	}

	suites, ok := ie["KeyMgmt"].Value().([]string)
	if !ok {
		return nil
	}

	return suites
}
