package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/northvolt/go-ese/ese"
	"github.com/peterbourgon/ff/v3/ffcli"
)

type sendConfig struct {
	rootConfig *rootConfig
	in         io.Reader
	out        io.Writer
	err        io.Writer
	n          int
	wait       time.Duration
}

func (c *sendConfig) Exec(ctx context.Context, args []string) error {
	if c.rootConfig.verbose {
		fmt.Fprintln(c.err, "send")
	}

	frame, err := readFrame(c.in, args)
	if err != nil {
		return err
	}
	if len(frame) > ese.MaxFrameSize {
		return fmt.Errorf("ese: frame is %d bytes, at most %d are sent", len(frame), ese.MaxFrameSize)
	}

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

	if _, err := h.Write(frame); err != nil {
		return err
	}
	if c.n <= 0 {
		return nil
	}

	if c.wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.wait):
		}
	}

	resp := make([]byte, c.n)
	n, err := h.Read(resp)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, prettyHex(resp[:n]))
	return nil
}

// readFrame takes the frame from the arguments or, given "-", from in.
func readFrame(in io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("ese: missing frame")
	}
	s := strings.Join(args, "")
	if s == "-" {
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		s = string(b)
	}
	frame, err := parseHex(s)
	if err != nil {
		return nil, fmt.Errorf("ese: frame is not hex: %w", err)
	}
	return frame, nil
}

func newSendCmd(
	rootConfig *rootConfig, in io.Reader, out io.Writer, err io.Writer,
) *ffcli.Command {
	cfg := sendConfig{
		rootConfig: rootConfig,
		in:         in,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("esep3 send", flag.ExitOnError)
	fs.IntVar(&cfg.n, "n", 0, "number of response bytes to read")
	fs.DurationVar(&cfg.wait, "wait", 0, "time to wait before reading the response")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "send",
		ShortUsage: "send [flags] <hex frame | ->",
		ShortHelp:  "Writes a frame to the secure element and reads back a response.",
		FlagSet:    fs,
		Options:    rootConfig.options(),
		Exec:       cfg.Exec,
	})
}
