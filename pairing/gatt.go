package pairing

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus"
	"github.com/muka/go-bluetooth/bluez"
	"github.com/muka/go-bluetooth/bluez/profile"
	"github.com/muka/go-bluetooth/service"
)

const (
	deviceNameUuid       = "2A00"
	modelNumberUuid      = "2A24"
	manufacturerNameUuid = "2A29"

	userDescriptionUuid = "2901"
	presentationUuid    = "2904"

	// utf8 string format of the presentation descriptor
	presentationUtf8 = 25
)

type HandleRead = func() ([]byte, error)
type HandleWrite = func(value []byte) error

// characteristicSpec describes one characteristic. A characteristic has either
// a static value or handlers.
type characteristicSpec struct {
	uuid        string
	description string
	value       []byte
	read        HandleRead
	write       HandleWrite
}

type serviceSpec struct {
	uuid            string
	primary         bool
	advertised      bool
	characteristics []characteristicSpec
}

func staticString(uuid string, description string, value string) characteristicSpec {
	return characteristicSpec{
		uuid:        uuid,
		description: description,
		value:       []byte(value),
	}
}

func (c characteristicSpec) flags() []string {
	var flags []string

	if c.read != nil || c.value != nil {
		flags = append(flags, bluez.FlagCharacteristicRead)
	}

	if c.write != nil {
		flags = append(flags, bluez.FlagCharacteristicWrite)
	}

	return flags
}

// handlerKey identifies a characteristic within the application.
type handlerKey struct {
	service        string
	characteristic string
}

type gattApp struct {
	app    *service.Application
	reads  map[handlerKey]HandleRead
	writes map[handlerKey]HandleWrite
}

func newGattApp(objectName string, objectPath string, localName string) (*gattApp, error) {
	a := &gattApp{
		reads:  make(map[handlerKey]HandleRead),
		writes: make(map[handlerKey]HandleWrite),
	}

	app, err := service.NewApplication(&service.ApplicationConfig{
		ObjectName: objectName,
		ObjectPath: dbus.ObjectPath(objectPath),
		LocalName:  localName,
		ReadFunc:   a.handleRead,
		WriteFunc:  a.handleWrite,
	})
	if err != nil {
		return nil, errors.Errorf("could not create app: %v", err)
	}

	a.app = app

	return a, nil
}

func (a *gattApp) handleRead(app *service.Application, serviceUuid string, characteristicUuid string) ([]byte, error) {
	read, ok := a.reads[handlerKey{serviceUuid, characteristicUuid}]
	if !ok {
		return nil, service.NewCallbackError(service.CallbackNotRegistered, "")
	}

	return read()
}

func (a *gattApp) handleWrite(app *service.Application, serviceUuid string, characteristicUuid string, value []byte) error {
	write, ok := a.writes[handlerKey{serviceUuid, characteristicUuid}]
	if !ok {
		return service.NewCallbackError(service.CallbackNotRegistered, "")
	}

	return write(value)
}

func (a *gattApp) addService(spec serviceSpec) error {
	svc, err := a.app.CreateService(&profile.GattService1Properties{
		Primary: spec.primary,
		UUID:    spec.uuid,
	}, spec.advertised)
	if err != nil {
		return errors.Errorf("could not create service %v: %v", spec.uuid, err)
	}

	if err := a.app.AddService(svc); err != nil {
		return errors.Errorf("could not add service %v: %v", spec.uuid, err)
	}

	for _, c := range spec.characteristics {
		if err := a.addCharacteristic(svc, spec.uuid, c); err != nil {
			return err
		}
	}

	return nil
}

func (a *gattApp) addCharacteristic(svc *service.GattService1, serviceUuid string, spec characteristicSpec) error {
	characteristic, err := svc.CreateCharacteristic(&profile.GattCharacteristic1Properties{
		UUID:  spec.uuid,
		Value: spec.value,
		Flags: spec.flags(),
	})
	if err != nil {
		return errors.Errorf("could not create characteristic %v: %v", spec.uuid, err)
	}

	if err := svc.AddCharacteristic(characteristic); err != nil {
		return errors.Errorf("could not add characteristic %v: %v", spec.uuid, err)
	}

	key := handlerKey{serviceUuid, spec.uuid}

	if spec.read != nil {
		a.reads[key] = spec.read
	}

	if spec.write != nil {
		a.writes[key] = spec.write
	}

	if spec.description != "" {
		if err := addDescriptor(characteristic, userDescriptionUuid, []byte(spec.description)); err != nil {
			return err
		}
	}

	// static strings carry their format for generic clients
	if spec.value != nil {
		if err := addDescriptor(characteristic, presentationUuid, []byte{presentationUtf8}); err != nil {
			return err
		}
	}

	return nil
}

func addDescriptor(characteristic *service.GattCharacteristic1, uuid string, value []byte) error {
	descriptor, err := characteristic.CreateDescriptor(&profile.GattDescriptor1Properties{
		UUID:  uuid,
		Value: value,
		Flags: []string{
			bluez.FlagDescriptorRead,
		},
	})
	if err != nil {
		return errors.Errorf("could not create descriptor %v: %v", uuid, err)
	}

	if err := characteristic.AddDescriptor(descriptor); err != nil {
		return errors.Errorf("could not add descriptor %v: %v", uuid, err)
	}

	return nil
}

func (a *gattApp) run() (*service.Application, error) {
	if err := a.app.Run(); err != nil {
		return nil, errors.Errorf("could not run app: %v", err)
	}

	return a.app, nil
}
