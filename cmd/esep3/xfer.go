package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/northvolt/go-ese/ese"
	"github.com/peterbourgon/ff/v3/ffcli"
)

type xferConfig struct {
	rootConfig *rootConfig
	in         io.Reader
	out        io.Writer
	err        io.Writer
	n          int
}

func (c *xferConfig) Exec(ctx context.Context, args []string) error {
	if c.rootConfig.verbose {
		fmt.Fprintln(c.err, "xfer")
	}

	var t ese.TransferRecord
	if len(args) > 0 {
		tx, err := readFrame(c.in, args)
		if err != nil {
			return err
		}
		t.Tx = tx
		t.Len = len(tx)
	}
	if c.n > t.Len {
		t.Len = c.n
	}
	t.Rx = make([]byte, t.Len)

	d, err := newDev(c.rootConfig)
	if err != nil {
		return err
	}
	defer d.Close()

	h, err := d.Open()
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.RawTransfer(&t); err != nil {
		return err
	}
	fmt.Fprintln(c.out, prettyHex(t.Rx))
	return nil
}

func newXferCmd(
	rootConfig *rootConfig, in io.Reader, out io.Writer, err io.Writer,
) *ffcli.Command {
	cfg := xferConfig{
		rootConfig: rootConfig,
		in:         in,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("esep3 xfer", flag.ExitOnError)
	fs.IntVar(&cfg.n, "n", 0, "transfer at least this many bytes, padding with zeros")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "xfer",
		ShortUsage: "xfer [flags] [hex frame | -]",
		ShortHelp:  "Runs one full duplex transfer and prints the bytes clocked in.",
		LongHelp: `Runs one full duplex transfer and prints the bytes clocked in.

The transfer is refused when the driver owns the clock.`,
		FlagSet: fs,
		Options: rootConfig.options(),
		Exec:    cfg.Exec,
	})
}
