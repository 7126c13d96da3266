package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/peterbourgon/ff/v3/ffcli"
)

type clockConfig struct {
	rootConfig *rootConfig
	out        io.Writer
	err        io.Writer
}

func (c *clockConfig) Exec(ctx context.Context, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return flag.ErrHelp
	}
	if c.rootConfig.verbose {
		fmt.Fprintln(c.err, "clock", args[0])
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

	if args[0] == "on" {
		err = h.EnableClock()
	} else {
		err = h.DisableClock()
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, d.State())
	return nil
}

func newClockCmd(rootConfig *rootConfig, out io.Writer, err io.Writer) *ffcli.Command {
	cfg := clockConfig{
		rootConfig: rootConfig,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("esep3 clock", flag.ExitOnError)
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "clock",
		ShortUsage: "clock [flags] on|off",
		ShortHelp:  "Gates the secure clocks on or off within a session.",
		FlagSet:    fs,
		Options:    rootConfig.options(),
		Exec:       cfg.Exec,
	})
}
