package wifi

import (
	"fmt"
	"math"
)

const (
	// rssiAtOneMeter and propagationConstant calibrate Distance.
	rssiAtOneMeter      = -30
	propagationConstant = 4.0
)

// Distance estimates the distance in meters to an access point from its
// signal strength.
func Distance(rssi int) float64 {
	return math.Pow(10, float64(rssiAtOneMeter-rssi)/(10*propagationConstant))
}

type AccessPointStatus struct {
	SSID    string `json:"ssid"`
	Clients int    `json:"clients"`
}

// Status is a snapshot of the manager for operators.
type Status struct {
	State      State              `json:"state"`
	Mode       Mode               `json:"mode"`
	Powered    bool               `json:"powered"`
	Locked     bool               `json:"locked"`
	Station    *StationInfo       `json:"station,omitempty"`
	Distance   float64            `json:"distance,omitempty"`
	AP         *AccessPointStatus `json:"ap,omitempty"`
	Queue      []Action           `json:"-"`
	Candidates []string           `json:"candidates,omitempty"`
	Rounds     int                `json:"rounds"`
	Networks   int                `json:"networks"`
}

func (m *Manager) Status() Status {
	status := Status{
		State:    m.state,
		Mode:     m.currentMode(),
		Powered:  m.powered,
		Locked:   m.locked,
		Queue:    m.queue.Pending(),
		Rounds:   m.rounds,
		Networks: len(m.catalog),
	}

	if m.linkUp {
		info := m.radio.Station()
		status.Station = &info
		status.Distance = Distance(info.RSSI)
	}

	if status.Mode.AccessPoint() {
		status.AP = &AccessPointStatus{
			SSID:    m.settings.AccessPoint.SSID,
			Clients: m.radio.AccessPointClients(),
		}
	}

	if m.task != nil {
		for _, network := range m.task.Candidates() {
			status.Candidates = append(status.Candidates, network.SSID)
		}
	}

	return status
}

// Lines renders the status the way it is printed on a terminal.
func (s Status) Lines() []string {
	lines := []string{
		fmt.Sprintf("MODE: %s STATE: %s", s.Mode, s.State),
	}

	if !s.Powered {
		return append(lines, "RADIO: off")
	}

	if s.Station != nil {
		lines = append(lines,
			fmt.Sprintf("STA SSID: %s", s.Station.SSID),
			fmt.Sprintf("STA IP: %s", s.Station.Address),
			fmt.Sprintf("STA BSSID: %s", s.Station.BSSID),
			fmt.Sprintf("STA CH: %d", s.Station.Channel),
			fmt.Sprintf("STA RSSI: %d", s.Station.RSSI),
			fmt.Sprintf("STA DISTANCE: %.1fm", s.Distance),
		)
	} else if s.Mode.Station() {
		lines = append(lines, "STA: disconnected")
	}

	if s.AP != nil {
		lines = append(lines,
			fmt.Sprintf("AP SSID: %s", s.AP.SSID),
			fmt.Sprintf("AP CLIENTS: %d", s.AP.Clients),
		)
	}

	if len(s.Candidates) > 0 {
		lines = append(lines, fmt.Sprintf("CANDIDATES: %v", s.Candidates))
	}

	return lines
}
