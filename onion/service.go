package onion

import (
	"context"
	"crypto/ed25519"
	"net"
	"sync"
	"time"

	"github.com/cretz/bine/tor"
	"github.com/go-errors/errors"
)

const (
	defaultRemotePort    = 80
	defaultListenTimeout = 20 * time.Second
)

// KeyStore persists the key so the address survives restarts.
type KeyStore interface {
	GetOnionKey() (ed25519.PrivateKey, error)
	SetOnionKey(key ed25519.PrivateKey) error
}

type Config struct {
	Tor           *tor.Tor
	Keys          KeyStore
	RemotePort    int
	ListenTimeout time.Duration
	Logger        Logger
}

// Service publishes a handler as a hidden service.
type Service struct {
	tor           *tor.Tor
	keys          KeyStore
	remotePort    int
	listenTimeout time.Duration
	log           Logger

	mu    sync.Mutex
	onion *tor.OnionService
	wg    sync.WaitGroup
}

func New(config *Config) *Service {
	s := &Service{
		tor:           config.Tor,
		keys:          config.Keys,
		remotePort:    config.RemotePort,
		listenTimeout: config.ListenTimeout,
	}

	if config.Logger != nil {
		s.log = config.Logger
	} else {
		s.log = noopLogger{}
	}

	if s.remotePort == 0 {
		s.remotePort = defaultRemotePort
	}

	if s.listenTimeout == 0 {
		s.listenTimeout = defaultListenTimeout
	}

	return s
}

// key reads the stored key or generates and stores a new one.
func (s *Service) key() (ed25519.PrivateKey, error) {
	key, err := s.keys.GetOnionKey()
	if err != nil {
		s.log.Warnf("Could not read onion key: %v", err)
	}

	if key != nil {
		return key, nil
	}

	key, err = GenerateKey()
	if err != nil {
		return nil, err
	}

	s.log.Infof("Generated new onion key")

	if err := s.keys.SetOnionKey(key); err != nil {
		s.log.Errorf("Could not save generated onion key: %v", err)
	}

	return key, nil
}

// Start publishes the service and hands its listener to serve.
func (s *Service) Start(serve func(l net.Listener) error) error {
	key, err := s.key()
	if err != nil {
		return err
	}

	listenCtx, listenCancel := context.WithTimeout(context.Background(), s.listenTimeout)
	defer listenCancel()

	onion, err := s.tor.Listen(listenCtx, &tor.ListenConf{
		Key:         key,
		Version3:    true,
		RemotePorts: []int{s.remotePort},
	})
	if err != nil {
		return errors.Errorf("could not create onion service: %v", err)
	}

	s.mu.Lock()
	s.onion = onion
	s.mu.Unlock()

	s.log.Infof("Try http://%v.onion", onion.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := serve(onion); err != nil {
			s.log.Debugf("Stopped serving through onion service: %v", err)
		}
	}()

	return nil
}

// ID is empty while the service is not published.
func (s *Service) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onion == nil {
		return ""
	}

	return s.onion.ID
}

func (s *Service) Stop() error {
	s.mu.Lock()
	onion := s.onion
	s.onion = nil
	s.mu.Unlock()

	if onion == nil {
		return nil
	}

	if err := onion.Close(); err != nil {
		return errors.Errorf("could not close onion service: %v", err)
	}

	s.wg.Wait()

	return nil
}
