package wifi

import "github.com/go-errors/errors"

type State uint8

const (
	StateBoot State = iota
	StateIdle
	StateInit
	StateWaitScan
	StateWaitScanWithoutCurrent
	StateConnect
	StateWaitConnected
	StateTimeout
	StateFallback
	StateTryConnectBetter
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateBoot:
		return "Boot"
	case StateIdle:
		return "Idle"
	case StateInit:
		return "Init"
	case StateWaitScan:
		return "WaitScan"
	case StateWaitScanWithoutCurrent:
		return "WaitScanWithoutCurrent"
	case StateConnect:
		return "Connect"
	case StateWaitConnected:
		return "WaitConnected"
	case StateTimeout:
		return "Timeout"
	case StateFallback:
		return "Fallback"
	case StateTryConnectBetter:
		return "TryConnectBetter"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for candidate := StateBoot; candidate <= StateConnected; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}

	return errors.Errorf("unknown state %q", text)
}
