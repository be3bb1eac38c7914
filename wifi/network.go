package wifi

import (
	"encoding/hex"
	"net/netip"
	"strings"

	"github.com/go-errors/errors"
)

const (
	MaxSSIDLength       = 32
	MinPassphraseLength = 8
	MaxPassphraseLength = 64

	// MaxNetworks is the number of networks the catalog keeps.
	MaxNetworks = 5
)

var (
	ErrSSIDLength       = errors.New("ssid must be between 1 and 32 bytes")
	ErrPassphraseLength = errors.New("passphrase must be empty or between 8 and 64 bytes")
)

// BSSID is the hardware address of one access point radio.
type BSSID [6]byte

func (b BSSID) String() string {
	var sb strings.Builder
	for i, octet := range b {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(hex.EncodeToString([]byte{octet}))
	}
	return sb.String()
}

func (b BSSID) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BSSID) UnmarshalText(text []byte) error {
	parsed, err := ParseBSSID(string(text))
	if err != nil {
		return err
	}

	*b = parsed

	return nil
}

func (b BSSID) IsZero() bool {
	return b == BSSID{}
}

// ParseBSSID accepts colon separated or plain hex notation.
func ParseBSSID(s string) (BSSID, error) {
	var b BSSID

	raw, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return b, errors.Errorf("could not parse bssid %q: %v", s, err)
	}

	if len(raw) != len(b) {
		return b, errors.Errorf("bssid %q has %d bytes, want 6", s, len(raw))
	}

	copy(b[:], raw)

	return b, nil
}

// StaticAddress replaces dynamic address assignment for one network.
// Values are kept as configured and parsed when the network is used.
type StaticAddress struct {
	Address string `json:"ip"`
	Gateway string `json:"gw"`
	Netmask string `json:"mask"`
	DNS     string `json:"dns"`
}

// IPConfig is a parsed StaticAddress.
type IPConfig struct {
	Address netip.Addr
	Gateway netip.Addr
	Netmask netip.Addr
	DNS     netip.Addr
}

func (s *StaticAddress) Parse() (*IPConfig, error) {
	cfg := &IPConfig{}

	var err error

	cfg.Address, err = netip.ParseAddr(s.Address)
	if err != nil {
		return nil, errors.Errorf("invalid address %q: %v", s.Address, err)
	}

	cfg.Gateway, err = netip.ParseAddr(s.Gateway)
	if err != nil {
		return nil, errors.Errorf("invalid gateway %q: %v", s.Gateway, err)
	}

	cfg.Netmask, err = netip.ParseAddr(s.Netmask)
	if err != nil {
		return nil, errors.Errorf("invalid netmask %q: %v", s.Netmask, err)
	}

	// resolver is optional
	if s.DNS != "" {
		cfg.DNS, err = netip.ParseAddr(s.DNS)
		if err != nil {
			return nil, errors.Errorf("invalid dns %q: %v", s.DNS, err)
		}
	}

	return cfg, nil
}

// Network is one configured candidate network.
type Network struct {
	SSID       string         `json:"ssid"`
	Passphrase string         `json:"pass"`
	Static     *StaticAddress `json:"static,omitempty"`

	bssid   BSSID
	channel int
	learned bool
}

func NewNetwork(ssid string, passphrase string) Network {
	return Network{
		SSID:       ssid,
		Passphrase: passphrase,
	}
}

// Secured reports whether the network needs a passphrase.
func (n Network) Secured() bool {
	return n.Passphrase != ""
}

// Learned returns the access point and channel matched against a scan.
func (n Network) Learned() (BSSID, int, bool) {
	return n.bssid, n.channel, n.learned
}

// Learn returns a copy of the network pinned to one access point.
func (n Network) Learn(bssid BSSID, channel int) Network {
	n.bssid = bssid
	n.channel = channel
	n.learned = true
	return n
}

// Forget returns a copy without the learned access point.
func (n Network) Forget() Network {
	n.bssid = BSSID{}
	n.channel = 0
	n.learned = false
	return n
}

func (n Network) Validate() error {
	if len(n.SSID) == 0 || len(n.SSID) > MaxSSIDLength {
		return ErrSSIDLength
	}

	if len(n.Passphrase) != 0 && (len(n.Passphrase) < MinPassphraseLength || len(n.Passphrase) > MaxPassphraseLength) {
		return ErrPassphraseLength
	}

	if n.Static != nil {
		if _, err := n.Static.Parse(); err != nil {
			return err
		}
	}

	return nil
}

func (n Network) String() string {
	if n.learned {
		return n.SSID + " (" + n.bssid.String() + ")"
	}

	return n.SSID
}

// Catalog is the ordered list of configured networks.
type Catalog []Network

// NewCatalog keeps the configured order and stops at the first entry without a name.
func NewCatalog(networks []Network) Catalog {
	catalog := make(Catalog, 0, len(networks))

	for _, network := range networks {
		if network.SSID == "" {
			break
		}

		if len(catalog) == MaxNetworks {
			break
		}

		catalog = append(catalog, network.Forget())
	}

	return catalog
}

func (c Catalog) Empty() bool {
	return len(c) == 0
}

// Upsert replaces the entry with the same name, appends otherwise,
// and overwrites the first entry once the catalog is full.
func (c Catalog) Upsert(network Network) Catalog {
	out := make(Catalog, len(c))
	copy(out, c)

	for i := range out {
		if out[i].SSID == network.SSID {
			out[i] = network
			return out
		}
	}

	if len(out) >= MaxNetworks {
		out[0] = network
		return out
	}

	return append(out, network)
}
