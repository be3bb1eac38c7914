package wifi

import (
	"context"
	"time"

	"github.com/go-errors/errors"
)

// ScanAndWait runs one scan directly on the radio and blocks until it
// completes. It must not be used while a Manager drives the same radio.
func ScanAndWait(ctx context.Context, radio Radio, timeout time.Duration, poll time.Duration) ([]ScanResult, error) {
	scanner := NewScanner(radio, nil, timeout)

	var (
		results []ScanResult
		scanErr error
	)

	err := scanner.Start(time.Now(), func(found []ScanResult) {
		results = Rank(found)
	}, func(err ScanError) {
		scanErr = err
	})
	if err != nil {
		return nil, err
	}

	for !scanner.Poll(time.Now()) {
		select {
		case <-ctx.Done():
			return nil, errors.Errorf("could not finish scan: %v", ctx.Err())
		case <-time.After(poll):
		}
	}

	if scanErr != nil {
		return nil, scanErr
	}

	return results, nil
}

// DisconnectAndWait disconnects the station and blocks until the link is down.
func DisconnectAndWait(ctx context.Context, radio Radio, poll time.Duration) error {
	if err := radio.Disconnect(); err != nil {
		return errors.Errorf("could not disconnect: %v", err)
	}

	for radio.LinkStatus() == LinkConnected {
		select {
		case <-ctx.Done():
			return errors.Errorf("could not wait for disconnect: %v", ctx.Err())
		case <-time.After(poll):
		}
	}

	return nil
}
