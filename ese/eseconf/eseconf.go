// Package eseconf describes how a P3 secure element is wired to a board.
//
// A Board carries the properties a platform exposes for the element: which
// power rail feeds it, who owns the SPI clock and which application
// processor vendor the bus controller comes from. Boards are stored as JSON
// or YAML documents.
package eseconf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compatible is the only device identity a Board may declare.
const Compatible = "ese_p3"

// Vendor identifies the application processor family driving the SPI bus.
//
// The vendor decides how the bus clock rate is programmed and whether writes
// must be padded to whole bus words.
type Vendor uint8

const (
	VendorDefault Vendor = iota
	VendorQualcomm
	VendorSLSI
)

func (v Vendor) String() string {
	switch v {
	case VendorDefault:
		return "default"
	case VendorQualcomm:
		return "qualcomm"
	case VendorSLSI:
		return "slsi"
	default:
		return "unknown"
	}
}

// ParseVendor returns the vendor named s. An empty name is the default
// vendor.
func ParseVendor(s string) (Vendor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return VendorDefault, nil
	case "qualcomm":
		return VendorQualcomm, nil
	case "slsi":
		return VendorSLSI, nil
	default:
		return 0, fmt.Errorf("eseconf: unknown ap vendor %q", s)
	}
}

func (v Vendor) MarshalText() ([]byte, error) {
	if v > VendorSLSI {
		return nil, errors.New("eseconf: invalid vendor")
	}
	return []byte(v.String()), nil
}

func (v *Vendor) UnmarshalText(b []byte) error {
	vendor, err := ParseVendor(string(b))
	if err != nil {
		return err
	}
	*v = vendor
	return nil
}

// Clock describes a clock the driver owns under the secure clock setup.
//
// Rates are derived from Source by an integer divider in [1, MaxDivider].
type Clock struct {
	Name       string `json:"name" yaml:"name"`
	SourceHz   int64  `json:"source_hz" yaml:"source_hz"`
	MaxDivider int    `json:"max_divider" yaml:"max_divider"`
	// GateGPIO is the pin gating the clock, if any.
	GateGPIO string `json:"gate_gpio,omitempty" yaml:"gate_gpio,omitempty"`
}

// Board is the wiring of one secure element.
type Board struct {
	Compatible string `json:"compatible" yaml:"compatible"`

	// LDOControl selects the regulator rail named by PVDDRegulator. When
	// false, the rail is the GPIO line PVDDGPIO.
	LDOControl    bool   `json:"ldo_control" yaml:"ldo_control"`
	PVDDRegulator string `json:"pvdd_regulator,omitempty" yaml:"pvdd_regulator,omitempty"`
	PVDDGPIO      string `json:"pvdd_gpio,omitempty" yaml:"pvdd_gpio,omitempty"`

	APVendor Vendor `json:"ap_vendor" yaml:"ap_vendor"`

	// SecureClock means the driver owns the SPI clocks and the bus I/O is
	// performed by the platform.
	SecureClock bool    `json:"secure_clock" yaml:"secure_clock"`
	Clocks      []Clock `json:"clocks,omitempty" yaml:"clocks,omitempty"`

	SPIPort    string `json:"spi_port,omitempty" yaml:"spi_port,omitempty"`
	MaxSpeedHz int64  `json:"max_speed_hz,omitempty" yaml:"max_speed_hz,omitempty"`

	// WordSize pads writes to a multiple of this many bytes. Zero disables
	// padding unless the vendor requires it.
	WordSize int `json:"word_size,omitempty" yaml:"word_size,omitempty"`

	WakeLock string `json:"wake_lock,omitempty" yaml:"wake_lock,omitempty"`
}

// DefaultBoard is a GPIO powered element on the default SPI port.
func DefaultBoard() *Board {
	return &Board{
		Compatible: Compatible,
		PVDDGPIO:   "GPIO25",
		APVendor:   VendorDefault,
		MaxSpeedHz: 8000000,
	}
}

// Validate checks that exactly one power rail is described and that the
// clock setup is complete.
func (b *Board) Validate() error {
	if b.Compatible != Compatible {
		return fmt.Errorf("eseconf: incompatible device %q", b.Compatible)
	}
	if b.LDOControl {
		if b.PVDDRegulator == "" {
			return errors.New("eseconf: ldo control without regulator name")
		}
		if b.PVDDGPIO != "" {
			return errors.New("eseconf: both regulator and gpio rail configured")
		}
	} else {
		if b.PVDDGPIO == "" {
			return errors.New("eseconf: missing pvdd gpio")
		}
		if b.PVDDRegulator != "" {
			return errors.New("eseconf: regulator configured without ldo control")
		}
	}
	if b.SecureClock {
		for _, name := range []string{"pclk", "sclk"} {
			if _, ok := b.Clock(name); !ok {
				return fmt.Errorf("eseconf: secure clock requires %q", name)
			}
		}
	}
	for _, c := range b.Clocks {
		if c.SourceHz <= 0 || c.MaxDivider < 1 {
			return fmt.Errorf("eseconf: invalid clock %q", c.Name)
		}
	}
	if b.MaxSpeedHz < 0 {
		return errors.New("eseconf: negative bus speed")
	}
	if b.WordSize < 0 {
		return errors.New("eseconf: negative word size")
	}
	return nil
}

// Clock returns the clock called name.
func (b *Board) Clock(name string) (Clock, bool) {
	for _, c := range b.Clocks {
		if c.Name == name {
			return c, true
		}
	}
	return Clock{}, false
}

// Marshal encodes the board as indented JSON.
func Marshal(b *Board) ([]byte, error) {
	return json.MarshalIndent(b, "", " ")
}

// Unmarshal decodes a JSON board and validates it.
func Unmarshal(data []byte, b *Board) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(b); err != nil {
		return fmt.Errorf("eseconf: %w", err)
	}
	return b.Validate()
}

// UnmarshalYAML decodes a YAML board and validates it.
func UnmarshalYAML(data []byte, b *Board) error {
	if err := yaml.Unmarshal(data, b); err != nil {
		return fmt.Errorf("eseconf: %w", err)
	}
	return b.Validate()
}

// MarshalYAML encodes the board as YAML.
func MarshalYAML(b *Board) ([]byte, error) {
	return yaml.Marshal(b)
}

// Load reads a board description. Files ending in .yaml or .yml are YAML,
// everything else is JSON.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Board
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = UnmarshalYAML(data, &b)
	default:
		err = Unmarshal(data, &b)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
