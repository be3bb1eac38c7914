package captive

import (
	"context"
	"net"
	"net/netip"
	"sync"

	"github.com/go-errors/errors"
	"github.com/miekg/dns"
	"github.com/the-lightning-land/wifid/wifi"
)

const (
	defaultTTL = 60
)

type Config struct {
	// Listen is the udp address the server binds, ":53" on a device.
	Listen string
	// Address is returned for every A query, usually the access point address.
	Address netip.Addr
	TTL     uint32
	Logger  Logger
}

// Server answers every A query with one address so that clients of the
// access point end up on the device.
type Server struct {
	listen  string
	address netip.Addr
	ttl     uint32
	log     Logger

	mu     sync.Mutex
	server *dns.Server

	// only touched by Observe
	apUp      bool
	connected bool
}

// check Server compliance to its interface during compile time
var _ dns.Handler = (*Server)(nil)

func New(config *Config) (*Server, error) {
	if !config.Address.Is4() {
		return nil, errors.Errorf("captive address must be IPv4, got %v", config.Address)
	}

	s := &Server{
		listen:  config.Listen,
		address: config.Address,
		ttl:     config.TTL,
		log:     config.Logger,
	}

	if s.log == nil {
		s.log = noopLogger{}
	}

	if s.listen == "" {
		s.listen = ":53"
	}

	if s.ttl == 0 {
		s.ttl = defaultTTL
	}

	return s, nil
}

func (s *Server) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	if err := w.WriteMsg(s.answer(r)); err != nil {
		s.log.Warnf("Could not answer %v: %v", w.RemoteAddr(), err)
	}
}

func (s *Server) answer(r *dns.Msg) *dns.Msg {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	for _, q := range r.Question {
		if q.Qclass != dns.ClassINET {
			continue
		}

		if q.Qtype != dns.TypeA && q.Qtype != dns.TypeANY {
			continue
		}

		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    s.ttl,
			},
			A: net.IP(s.address.AsSlice()),
		})

		s.log.Debugf("Captured %v", q.Name)
	}

	return m
}

// Start binds the server. It is a no-op while running.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return nil
	}

	started := make(chan struct{})
	failed := make(chan error, 1)

	server := &dns.Server{
		Addr:    s.listen,
		Net:     "udp",
		Handler: s,
		NotifyStartedFunc: func() {
			close(started)
		},
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			failed <- err
		}
	}()

	select {
	case <-started:
	case err := <-failed:
		return errors.Errorf("could not start captive dns on %v: %v", s.listen, err)
	}

	s.server = server

	s.log.Infof("Captive dns listening on %v", server.PacketConn.LocalAddr())

	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	err := s.server.Shutdown()
	s.server = nil

	if err != nil {
		return errors.Errorf("could not stop captive dns: %v", err)
	}

	s.log.Infof("Captive dns stopped")

	return nil
}

func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.server != nil
}

// LocalAddr is nil while the server is stopped.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	return s.server.PacketConn.LocalAddr()
}

// Observe runs the server while the access point role is up and the station
// is not connected. Events must come from one goroutine.
func (s *Server) Observe(event wifi.Event) {
	switch event.Kind {
	case wifi.EventMode:
		s.apUp = event.Mode.AccessPoint()
		if !event.Mode.Station() {
			s.connected = false
		}
	case wifi.EventStationConnected:
		s.connected = true
	case wifi.EventInitial, wifi.EventStationDisconnected:
		s.connected = false
	default:
		return
	}

	var err error

	if s.apUp && !s.connected {
		err = s.Start()
	} else {
		err = s.Stop()
	}

	if err != nil {
		s.log.Errorf("%v", err)
	}
}

// Run feeds events to Observe until ctx is done.
func (s *Server) Run(ctx context.Context, events <-chan wifi.Event) error {
	defer func() {
		_ = s.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			s.Observe(event)
		}
	}
}
