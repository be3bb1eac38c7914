package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type Interface struct {
	wpa  *Wpa
	name string
	obj  dbus.BusObject
}

func (i *Interface) Name() string {
	return i.name
}

func (i *Interface) String() string {
	return i.name + " (" + string(i.obj.Path()) + ")"
}

func (i *Interface) Scan() error {
	call := i.obj.Call(ifaceName+".Scan", 0, map[string]interface{}{
		"Type": "active",
	})
	if call.Err != nil {
		return errors.Errorf("could not scan: %v", call.Err)
	}

	return nil
}

type EventKind int

const (
	StateChanged EventKind = iota
	ScanDone
)

type Event struct {
	Kind    EventKind
	State   string
	Success bool
}

type Subscription struct {
	Events <-chan Event
	Cancel func()
}

// Subscribe delivers state changes and scan completions of the interface.
func (i *Interface) Subscribe() (*Subscription, error) {
	client, err := i.wpa.subscribe(i.obj.Path())
	if err != nil {
		return nil, errors.Errorf("could not subscribe to %v: %v", i.name, err)
	}

	events := make(chan Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(events)

		for {
			select {
			case <-done:
				return
			case signal := <-client.signal:
				event, ok := decodeSignal(signal)
				if !ok {
					continue
				}

				select {
				case events <- event:
				case <-done:
					return
				}
			}
		}
	}()

	return &Subscription{
		Events: events,
		Cancel: func() {
			i.wpa.unsubscribe(client)
			close(done)
		},
	}, nil
}

func decodeSignal(signal *dbus.Signal) (Event, bool) {
	switch signal.Name {
	case ifaceName + ".ScanDone":
		if len(signal.Body) < 1 {
			return Event{}, false
		}

		success, _ := signal.Body[0].(bool)

		return Event{Kind: ScanDone, Success: success}, true

	case propertiesIfc + ".PropertiesChanged":
		if len(signal.Body) < 2 {
			return Event{}, false
		}

		if name, _ := signal.Body[0].(string); name != ifaceName {
			return Event{}, false
		}

		changed, ok := signal.Body[1].(map[string]dbus.Variant)
		if !ok {
			return Event{}, false
		}

		state, ok := changed["State"]
		if !ok {
			return Event{}, false
		}

		value, ok := state.Value().(string)
		if !ok {
			return Event{}, false
		}

		return Event{Kind: StateChanged, State: value}, true
	}

	return Event{}, false
}

func (i *Interface) State() (string, error) {
	v, err := i.obj.GetProperty(ifaceName + ".State")
	if err != nil {
		return "", errors.Errorf("could not get state: %v", err)
	}

	state, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert state: %v", v)
	}

	return state, nil
}

func (i *Interface) BSSs() ([]*BSS, error) {
	v, err := i.obj.GetProperty(ifaceName + ".BSSs")
	if err != nil {
		return nil, errors.Errorf("could not get bsss: %v", err)
	}

	objectPaths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert bsss: %v", v)
	}

	var bsss []*BSS

	for _, objectPath := range objectPaths {
		bsss = append(bsss, &BSS{
			obj: i.wpa.conn.Object(service, objectPath),
		})
	}

	return bsss, nil
}

// CurrentBSS returns nil when not associated.
func (i *Interface) CurrentBSS() (*BSS, error) {
	v, err := i.obj.GetProperty(ifaceName + ".CurrentBSS")
	if err != nil {
		return nil, errors.Errorf("could not get current bss: %v", err)
	}

	path, ok := v.Value().(dbus.ObjectPath)
	if !ok || path == "/" || !path.IsValid() {
		return nil, nil
	}

	return &BSS{obj: i.wpa.conn.Object(service, path)}, nil
}

// Stations returns the number of clients associated to an interface in
// access point mode.
func (i *Interface) Stations() (int, error) {
	v, err := i.obj.GetProperty(ifaceName + ".Stations")
	if err != nil {
		return 0, errors.Errorf("could not get stations: %v", err)
	}

	paths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return 0, errors.Errorf("could not convert stations: %v", v)
	}

	return len(paths), nil
}

type Signal struct {
	RSSI      int
	Frequency int
}

func (i *Interface) SignalPoll() (*Signal, error) {
	var props map[string]dbus.Variant

	err := i.obj.Call(ifaceName+".SignalPoll", 0).Store(&props)
	if err != nil {
		return nil, errors.Errorf("could not poll signal: %v", err)
	}

	signal := &Signal{}

	if v, ok := props["rssi"]; ok {
		if rssi, ok := v.Value().(int32); ok {
			signal.RSSI = int(rssi)
		}
	}

	if v, ok := props["frequency"]; ok {
		if freq, ok := v.Value().(uint32); ok {
			signal.Frequency = int(freq)
		}
	}

	return signal, nil
}

func (i *Interface) AddNetwork(args map[string]interface{}) (*Network, error) {
	var objPath dbus.ObjectPath

	err := i.obj.Call(ifaceName+".AddNetwork", 0, args).Store(&objPath)
	if err != nil {
		return nil, errors.Errorf("could not add network: %v", err)
	}

	return &Network{
		obj: i.wpa.conn.Object(service, objPath),
	}, nil
}

func (i *Interface) SelectNetwork(net *Network) error {
	call := i.obj.Call(ifaceName+".SelectNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not select network %v: %v", net, call.Err)
	}

	return nil
}

func (i *Interface) RemoveNetwork(net *Network) error {
	call := i.obj.Call(ifaceName+".RemoveNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not remove network: %v", call.Err)
	}

	return nil
}

func (i *Interface) RemoveAllNetworks() error {
	call := i.obj.Call(ifaceName+".RemoveAllNetworks", 0)
	if call.Err != nil {
		return errors.Errorf("could not remove all networks: %v", call.Err)
	}

	return nil
}

func (i *Interface) Disconnect() error {
	call := i.obj.Call(ifaceName+".Disconnect", 0)
	if call.Err != nil {
		return errors.Errorf("could not disconnect: %v", call.Err)
	}

	return nil
}
