package ese

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/karalabe/usb"
	"periph.io/x/conn/v3/physic"
)

// ErrUSBNotSupported is returned when the USB support is missing.
//
// When building, CGO is required for USB support. If CGO is not enabled, the
// HID bridge will not be available.
var ErrUSBNotSupported = errors.New("ese: usb support is missing")

// MCP2210 USB-HID to SPI bridge.
const (
	MCP2210VendorID  = 0x04d8
	MCP2210ProductID = 0x00de

	mcp2210ReportSize = 64
	mcp2210ChunkSize  = 60
	mcp2210DataOffset = 4

	mcp2210CmdSetGPIO  = 0x30
	mcp2210CmdSetSPI   = 0x40
	mcp2210CmdTransfer = 0x42
	mcp2210GPIOCount   = 9

	mcp2210StatusOK         = 0x00
	mcp2210StatusBusy       = 0xf7
	mcp2210StatusInProgress = 0xf8

	mcp2210EngineFinished = 0x10
	mcp2210EngineStarted  = 0x20
	mcp2210EnginePending  = 0x30

	// bounds the reports exchanged for one transaction
	mcp2210MaxPolls = 256
)

// HIDConfig selects and sets up an MCP2210 bridge.
type HIDConfig struct {
	VendorID  uint16
	ProductID uint16
	// DevIndex picks among several bridges.
	DevIndex int
	Speed    physic.Frequency
	// CS is the general purpose pin used as chip select.
	CS uint8
}

// HIDConfigDefault returns the config of the first MCP2210 with the element
// selected by GP0.
func HIDConfigDefault() HIDConfig {
	return HIDConfig{
		VendorID:  MCP2210VendorID,
		ProductID: MCP2210ProductID,
		Speed:     DefaultSpeed,
	}
}

// HIDBus is a Bus over an MCP2210 bridge. Transfers are full duplex.
type HIDBus struct {
	usb usb.Device
	cfg HIDConfig

	mu     sync.Mutex
	report [mcp2210ReportSize]byte
	// transaction size the bridge is set up for
	txSize int
	// output levels of the general purpose pins
	gpio uint16
}

// OpenHIDBus opens the bridge selected by cfg.
func OpenHIDBus(cfg HIDConfig) (*HIDBus, error) {
	if !usb.Supported() {
		return nil, ErrUSBNotSupported
	}

	deviceInfos, err := usb.EnumerateHid(cfg.VendorID, cfg.ProductID)
	if err != nil {
		return nil, fmt.Errorf("ese: failed to get hid devices: %w", err)
	}
	if cfg.DevIndex >= len(deviceInfos) {
		return nil, fmt.Errorf("ese: hid device %d not found, %d present", cfg.DevIndex, len(deviceInfos))
	}
	hid, err := deviceInfos[cfg.DevIndex].Open()
	if err != nil {
		return nil, fmt.Errorf("ese: %w", err)
	}
	return newHIDBus(hid, cfg), nil
}

func newHIDBus(dev usb.Device, cfg HIDConfig) *HIDBus {
	if cfg.Speed == 0 {
		cfg.Speed = DefaultSpeed
	}
	return &HIDBus{usb: dev, cfg: cfg}
}

func (b *HIDBus) Close() error {
	return b.usb.Close()
}

func (b *HIDBus) String() string {
	return fmt.Sprintf("mcp2210(%04x:%04x/%d)", b.cfg.VendorID, b.cfg.ProductID, b.cfg.DevIndex)
}

// Tx clocks max(len(w), len(r)) bytes. Missing write bytes are sent as
// zeros.
func (b *HIDBus) Tx(w, r []byte) error {
	n := max(len(w), len(r))
	if n == 0 {
		return nil
	}
	if n > 0xffff {
		return fmt.Errorf("ese: mcp2210: transaction of %d bytes", n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.txSize != n {
		if err := b.setup(n); err != nil {
			return err
		}
	}

	sent, recv := 0, 0
	for poll := 0; poll < mcp2210MaxPolls; poll++ {
		chunk := min(n-sent, mcp2210ChunkSize)
		b.clearReport()
		b.report[0] = mcp2210CmdTransfer
		b.report[1] = byte(chunk)
		if sent < len(w) {
			copy(b.report[mcp2210DataOffset:mcp2210DataOffset+chunk], w[sent:])
		}
		resp, err := b.exchange()
		if err != nil {
			return err
		}

		switch resp[1] {
		case mcp2210StatusOK:
		case mcp2210StatusBusy, mcp2210StatusInProgress:
			continue
		default:
			return fmt.Errorf("ese: mcp2210: transfer status %#02x", resp[1])
		}
		sent += chunk

		count := int(resp[2])
		if count > mcp2210ChunkSize || recv+count > n || mcp2210DataOffset+count > len(resp) {
			return fmt.Errorf("ese: mcp2210: received %d bytes after %d of %d", count, recv, n)
		}
		if recv < len(r) {
			copy(r[recv:], resp[mcp2210DataOffset:mcp2210DataOffset+count])
		}
		recv += count

		switch resp[3] {
		case mcp2210EngineFinished:
			if recv != n {
				return fmt.Errorf("ese: mcp2210: received %d of %d bytes", recv, n)
			}
			return nil
		case mcp2210EngineStarted, mcp2210EnginePending:
		default:
			return fmt.Errorf("ese: mcp2210: engine status %#02x", resp[3])
		}
	}
	return fmt.Errorf("ese: mcp2210: transfer of %d bytes did not finish", n)
}

// Regulator returns general purpose pin "gpN" of the bridge as a regulator
// driving the pin high when enabled. The pin must be set up as an output in
// the bridge's power-up settings.
func (b *HIDBus) Regulator(name string) (Regulator, error) {
	num, ok := strings.CutPrefix(strings.ToLower(name), "gp")
	n, err := strconv.Atoi(num)
	if !ok || err != nil || n < 0 || n >= mcp2210GPIOCount {
		return nil, fmt.Errorf("ese: mcp2210: no pin %q", name)
	}
	return &hidPin{b: b, mask: 1 << n}, nil
}

type hidPin struct {
	b    *HIDBus
	mask uint16
}

func (p *hidPin) Enable() error {
	return p.b.setGPIO(p.mask, true)
}

func (p *hidPin) Disable() error {
	return p.b.setGPIO(p.mask, false)
}

func (p *hidPin) Put() error {
	return nil
}

func (b *HIDBus) setGPIO(mask uint16, high bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := b.gpio &^ mask
	if high {
		v |= mask
	}
	b.clearReport()
	b.report[0] = mcp2210CmdSetGPIO
	binary.LittleEndian.PutUint16(b.report[4:6], v)
	resp, err := b.exchange()
	if err != nil {
		return err
	}
	if resp[1] != mcp2210StatusOK {
		return fmt.Errorf("ese: mcp2210: gpio status %#02x", resp[1])
	}
	b.gpio = v
	return nil
}

// setup sets speed, chip select and transaction size.
func (b *HIDBus) setup(n int) error {
	b.clearReport()
	b.report[0] = mcp2210CmdSetSPI
	binary.LittleEndian.PutUint32(b.report[4:8], uint32(b.cfg.Speed/physic.Hertz))
	// every chip select idles high, the selected one goes low
	binary.LittleEndian.PutUint16(b.report[8:10], 0x01ff)
	binary.LittleEndian.PutUint16(b.report[10:12], 0x01ff&^(1<<b.cfg.CS))
	binary.LittleEndian.PutUint16(b.report[18:20], uint16(n))
	b.report[20] = byte(spiMode)

	resp, err := b.exchange()
	if err != nil {
		return err
	}
	if resp[1] != mcp2210StatusOK {
		return fmt.Errorf("ese: mcp2210: spi setup status %#02x", resp[1])
	}
	b.txSize = n
	return nil
}

func (b *HIDBus) clearReport() {
	clear(b.report[:])
}

// exchange writes the report and reads the response of the bridge.
func (b *HIDBus) exchange() ([]byte, error) {
	cmd := b.report[0]
	if _, err := b.usb.Write(b.report[:]); err != nil {
		return nil, fmt.Errorf("ese: mcp2210 write: %w", err)
	}
	n, err := b.usb.Read(b.report[:])
	if err != nil {
		return nil, fmt.Errorf("ese: mcp2210 read: %w", err)
	}
	if n < mcp2210DataOffset || b.report[0] != cmd {
		return nil, fmt.Errorf("ese: mcp2210: unexpected response %x", b.report[:n])
	}
	return b.report[:n], nil
}
