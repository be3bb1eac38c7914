package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	service       = "fi.w1.wpa_supplicant1"
	servicePath   = "/fi/w1/wpa_supplicant1"
	ifaceName     = "fi.w1.wpa_supplicant1.Interface"
	bssName       = "fi.w1.wpa_supplicant1.BSS"
	propertiesIfc = "org.freedesktop.DBus.Properties"
)

// ErrInterfaceUnknown is returned by GetInterface when wpa_supplicant does
// not manage the interface yet.
var ErrInterfaceUnknown = errors.New("interface unknown to wpa_supplicant")

type signalClient struct {
	id     uint32
	path   dbus.ObjectPath
	signal chan *dbus.Signal
}

// Wpa is a connection to wpa_supplicant on the system bus.
type Wpa struct {
	conn *dbus.Conn
	obj  dbus.BusObject

	mu      sync.Mutex
	clients map[uint32]*signalClient
	nextId  uint32
	signals chan *dbus.Signal
	done    chan struct{}
}

func New() *Wpa {
	return &Wpa{
		clients: make(map[uint32]*signalClient),
	}
}

func (w *Wpa) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	w.conn = conn
	w.obj = conn.Object(service, servicePath)
	w.signals = make(chan *dbus.Signal, 32)
	w.done = make(chan struct{})

	conn.Signal(w.signals)

	go w.dispatch()

	return nil
}

func (w *Wpa) Stop() error {
	if w.conn == nil {
		return nil
	}

	w.conn.RemoveSignal(w.signals)
	close(w.done)

	err := w.conn.Close()
	if err != nil {
		return errors.Errorf("could not close system bus: %v", err)
	}

	return nil
}

func (w *Wpa) dispatch() {
	for {
		select {
		case <-w.done:
			return
		case signal, ok := <-w.signals:
			if !ok {
				return
			}

			w.mu.Lock()
			for _, client := range w.clients {
				if client.path != signal.Path {
					continue
				}

				select {
				case client.signal <- signal:
				default:
				}
			}
			w.mu.Unlock()
		}
	}
}

// subscribe delivers every signal emitted by the object at path.
func (w *Wpa) subscribe(path dbus.ObjectPath) (*signalClient, error) {
	for _, member := range []string{"PropertiesChanged", "ScanDone"} {
		iface := ifaceName
		if member == "PropertiesChanged" {
			iface = propertiesIfc
		}

		err := w.conn.AddMatchSignal(
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember(member),
			dbus.WithMatchObjectPath(path),
		)
		if err != nil {
			return nil, errors.Errorf("could not add %v match: %v", member, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	client := &signalClient{
		id:     w.nextId,
		path:   path,
		signal: make(chan *dbus.Signal, 16),
	}

	w.nextId++
	w.clients[client.id] = client

	return client, nil
}

func (w *Wpa) unsubscribe(client *signalClient) {
	w.mu.Lock()
	delete(w.clients, client.id)
	w.mu.Unlock()

	for _, member := range []string{"PropertiesChanged", "ScanDone"} {
		iface := ifaceName
		if member == "PropertiesChanged" {
			iface = propertiesIfc
		}

		_ = w.conn.RemoveMatchSignal(
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember(member),
			dbus.WithMatchObjectPath(client.path),
		)
	}
}

// GetInterface returns the interface wpa_supplicant already manages.
func (w *Wpa) GetInterface(ifname string) (*Interface, error) {
	var path dbus.ObjectPath

	err := w.obj.Call(service+".GetInterface", 0, ifname).Store(&path)
	if err != nil {
		var dbusErr dbus.Error
		if errors.As(err, &dbusErr) && dbusErr.Name == service+".InterfaceUnknown" {
			return nil, ErrInterfaceUnknown
		}

		return nil, errors.Errorf("could not get interface %v: %v", ifname, err)
	}

	return w.newInterface(ifname, path), nil
}

// CreateInterface asks wpa_supplicant to manage ifname.
func (w *Wpa) CreateInterface(ifname string) (*Interface, error) {
	var path dbus.ObjectPath

	err := w.obj.Call(service+".CreateInterface", 0, map[string]interface{}{
		"Ifname": ifname,
	}).Store(&path)
	if err != nil {
		return nil, errors.Errorf("could not create interface %v: %v", ifname, err)
	}

	return w.newInterface(ifname, path), nil
}

// Interface returns the managed interface, creating it when needed.
func (w *Wpa) Interface(ifname string) (*Interface, error) {
	iface, err := w.GetInterface(ifname)
	if err == ErrInterfaceUnknown {
		return w.CreateInterface(ifname)
	}

	return iface, err
}

func (w *Wpa) newInterface(ifname string, path dbus.ObjectPath) *Interface {
	return &Interface{
		wpa:  w,
		name: ifname,
		obj:  w.conn.Object(service, path),
	}
}
