package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock"
	mqtt "github.com/soypat/natiu-mqtt"
	"github.com/the-lightning-land/wifid/connectivity"
	"github.com/the-lightning-land/wifid/wifi"
)

const (
	defaultTimeout = 5 * time.Second
	retryInterval  = 10 * time.Second
	backlogSize    = 16
	bufferSize     = 4096
)

var (
	errShutdown = errors.New("shutting down")
)

type Config struct {
	// Broker is the host:port of the MQTT broker.
	Broker   string
	Topic    string
	ClientID string
	Timeout  time.Duration
	// Connectivity gates publishing on the station being online.
	Connectivity connectivity.Reporter
	Clock        clock.Clock
	Logger       Logger
}

// Publisher forwards manager events to an MQTT broker. Events seen while
// offline are kept in a small backlog and sent once the station is online.
type Publisher struct {
	broker       string
	clientID     string
	timeout      time.Duration
	connectivity connectivity.Reporter
	clock        clock.Clock
	log          Logger

	pubFlags mqtt.PacketFlags
	pubVar   mqtt.VariablesPublish

	client  *mqtt.Client
	conn    net.Conn
	backlog []wifi.Event
}

func New(config *Config) (*Publisher, error) {
	if config.Broker == "" {
		return nil, errors.New("broker is required")
	}

	if config.Connectivity == nil {
		return nil, errors.New("connectivity reporter is required")
	}

	pubFlags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return nil, errors.Errorf("could not create publish flags: %v", err)
	}

	p := &Publisher{
		broker:       config.Broker,
		clientID:     config.ClientID,
		timeout:      config.Timeout,
		connectivity: config.Connectivity,
		clock:        config.Clock,
		log:          config.Logger,
		pubFlags:     pubFlags,
		pubVar: mqtt.VariablesPublish{
			TopicName: []byte(config.Topic),
		},
	}

	if p.log == nil {
		p.log = noopLogger{}
	}

	if p.clock == nil {
		p.clock = clock.WallClock
	}

	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}

	if p.clientID == "" {
		p.clientID = "wifid"
	}

	if len(p.pubVar.TopicName) == 0 {
		p.pubVar.TopicName = []byte("wifid/events")
	}

	return p, nil
}

// Run publishes events until ctx is done.
func (p *Publisher) Run(ctx context.Context, events <-chan wifi.Event) error {
	defer p.close()

	for {
		var retry <-chan time.Time
		if len(p.backlog) > 0 {
			retry = p.clock.After(retryInterval)
		}

		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}

			p.enqueue(event)
			p.flush(ctx)

		case <-retry:
			p.flush(ctx)
		}
	}
}

func (p *Publisher) enqueue(event wifi.Event) {
	if len(p.backlog) == backlogSize {
		p.log.Debugf("Backlog full, dropping %v", p.backlog[0])
		p.backlog = p.backlog[1:]
	}

	p.backlog = append(p.backlog, event)
}

func (p *Publisher) flush(ctx context.Context) {
	if p.connectivity.CurrentState() != connectivity.Online {
		p.close()
		return
	}

	for len(p.backlog) > 0 {
		if err := p.publish(ctx, p.backlog[0]); err != nil {
			p.log.Warnf("Could not publish %v: %v", p.backlog[0], err)
			p.close()
			return
		}

		p.backlog = p.backlog[1:]
	}
}

func (p *Publisher) publish(ctx context.Context, event wifi.Event) error {
	if p.client == nil || !p.client.IsConnected() {
		if err := p.connect(ctx); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(&event)
	if err != nil {
		return errors.Errorf("could not marshal event: %v", err)
	}

	_ = p.conn.SetWriteDeadline(p.clock.Now().Add(p.timeout))

	p.pubVar.PacketIdentifier++

	err = p.client.PublishPayload(p.pubFlags, p.pubVar, payload)
	if err != nil {
		return errors.Errorf("could not publish: %v", err)
	}

	p.log.Debugf("Published %v", event)

	return nil
}

func (p *Publisher) connect(ctx context.Context) error {
	p.close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	dialer := net.Dialer{}

	conn, err := dialer.DialContext(ctx, "tcp", p.broker)
	if err != nil {
		return errors.Errorf("could not dial %v: %v", p.broker, err)
	}

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, bufferSize)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			p.log.Debugf("Ignoring message on %s", varPub.TopicName)
			return nil
		},
	})

	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(p.clientID))

	_ = conn.SetDeadline(p.clock.Now().Add(p.timeout))

	err = client.Connect(ctx, conn, &varconn)
	if err != nil {
		_ = conn.Close()
		return errors.Errorf("could not connect to %v: %v", p.broker, err)
	}

	_ = conn.SetDeadline(time.Time{})

	p.log.Infof("Connected to broker %v", p.broker)

	p.client = client
	p.conn = conn

	return nil
}

func (p *Publisher) close() {
	if p.client != nil && p.client.IsConnected() {
		if err := p.client.Disconnect(errShutdown); err != nil {
			p.log.Debugf("Could not disconnect from broker: %v", err)
		}
	}

	if p.conn != nil {
		_ = p.conn.Close()
	}

	p.client = nil
	p.conn = nil
}
