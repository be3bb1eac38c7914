package device

import (
	"github.com/the-lightning-land/wifid/wifi"
)

type EventClient struct {
	Events     chan wifi.Event
	Id         uint32
	cancelChan chan struct{}
	device     *Device
}

// SubscribeEvents delivers every event published by the manager. Events are
// dropped for a client that does not keep up.
func (d *Device) SubscribeEvents() *EventClient {
	client := &EventClient{
		Events:     make(chan wifi.Event, eventBuffer),
		cancelChan: make(chan struct{}),
		device:     d,
	}

	d.eventClientMtx.Lock()
	client.Id = d.nextEventClientID
	d.nextEventClientID++
	d.eventClients[client.Id] = client
	d.eventClientMtx.Unlock()

	return client
}

// Done is closed when the client is cancelled or the device shuts down.
func (c *EventClient) Done() <-chan struct{} {
	return c.cancelChan
}

func (c *EventClient) Cancel() {
	c.device.eventClientMtx.Lock()
	defer c.device.eventClientMtx.Unlock()

	if _, ok := c.device.eventClients[c.Id]; !ok {
		return
	}

	delete(c.device.eventClients, c.Id)

	close(c.cancelChan)
}

func (d *Device) broadcast(event wifi.Event) {
	d.log.Debugf("Event %v", event)

	d.eventClientMtx.Lock()
	defer d.eventClientMtx.Unlock()

	for _, client := range d.eventClients {
		select {
		case client.Events <- event:
		default:
			d.log.Warnf("Dropped %v for slow client %d", event.Kind, client.Id)
		}
	}
}
