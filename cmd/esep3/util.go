package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/northvolt/go-ese/ese"
	"github.com/northvolt/go-ese/ese/eseconf"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	defaultSpeed   = ese.DefaultSpeed
	defaultHIDPVDD = "gp1"
)

func newDev(c *rootConfig) (*ese.Dev, error) {
	logger := newLogger(c.verbose)
	if c.board != "" {
		b, err := eseconf.Load(c.board)
		if err != nil {
			return nil, err
		}
		if _, err = host.Init(); err != nil {
			return nil, err
		}
		return ese.NewBoardDev(*b, logger)
	}

	switch c.iface {
	case "spi":
		return newDevSPI(c, logger)
	case "hid":
		return newDevHID(c, logger)
	default:
		return nil, errors.New("ese: unknown interface")
	}
}

func newDevSPI(c *rootConfig, logger ese.Logger) (*ese.Dev, error) {
	if c.pvdd == "" {
		return nil, errors.New("ese: -pvdd is required")
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(c.pvdd)
	if pin == nil {
		return nil, fmt.Errorf("ese: no gpio %q", c.pvdd)
	}
	port, err := spireg.Open(c.port)
	if err != nil {
		return nil, fmt.Errorf("ese: failed to open spi port: %w", err)
	}

	cfg := ese.ConfigP3_GPIODefault(port, pin)
	if err := applyFlags(c, &cfg, logger); err != nil {
		return nil, multierr.Append(err, port.Close())
	}
	d, err := ese.New(cfg)
	if err != nil {
		return nil, multierr.Append(err, port.Close())
	}
	return d, nil
}

func newDevHID(c *rootConfig, logger ese.Logger) (*ese.Dev, error) {
	hc := ese.HIDConfigDefault()
	hc.DevIndex = c.devIndex
	hc.CS = uint8(c.cs)
	hc.Speed = c.speed
	bus, err := ese.OpenHIDBus(hc)
	if err != nil {
		return nil, err
	}

	pvdd := c.pvdd
	if pvdd == "" {
		pvdd = defaultHIDPVDD
	}
	cfg := ese.ConfigP3_RegulatorDefault(nil, pvdd, bus)
	cfg.Bus = bus
	if err := applyFlags(c, &cfg, logger); err != nil {
		return nil, multierr.Append(err, bus.Close())
	}
	d, err := ese.New(cfg)
	if err != nil {
		return nil, multierr.Append(err, bus.Close())
	}
	return d, nil
}

func applyFlags(c *rootConfig, cfg *ese.Config, logger ese.Logger) error {
	vendor, err := eseconf.ParseVendor(c.vendor)
	if err != nil {
		return err
	}
	cfg.Vendor = vendor
	cfg.Speed = c.speed
	cfg.WordSize = c.wordSize
	cfg.Debug = logger
	return nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "\n", "").Replace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return hex.DecodeString(s)
}

func prettyHex(data []byte) string {
	return prettyHexIndent(data, "    ", "")
}

func prettyHexIndent(data []byte, prefix string, space string) string {
	var buf strings.Builder

	// prefix and space every 16 byte, and 2 hex, and one space/newline
	cols := 16
	size := (len(data)/cols+1)*(len(prefix)+len(space)+1) + len(data)*3
	buf.Grow(size)

	for i := range data {
		if i > 0 {
			switch i % cols {
			case 0:
				buf.WriteByte('\n')
			case cols / 2:
				buf.WriteByte(' ')
				buf.WriteString(space)
			default:
				buf.WriteByte(' ')
			}
		}
		if i%cols == 0 {
			buf.WriteString(prefix)
		}

		fmt.Fprintf(&buf, "%02X", data[i])
	}

	return buf.String()
}

func writeJSON(w io.Writer, data any) error {
	j, err := json.MarshalIndent(data, "", " ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(j, '\n'))
	return err
}

func addLongHelp(cmd *ffcli.Command) *ffcli.Command {
	if cmd.LongHelp == "" {
		cmd.LongHelp = cmd.ShortHelp
	}

	cmd.LongHelp += eseLongHelp

	return cmd
}

func newLogger(verbose bool) ese.Logger {
	if verbose {
		return log.New(os.Stderr, "", 0)
	} else {
		return nil
	}
}
