package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/northvolt/go-ese/ese"
	"github.com/northvolt/go-ese/ese/eseconf"
	"github.com/peterbourgon/ff/v3/ffcli"
	"periph.io/x/conn/v3/physic"
)

type quantizeConfig struct {
	rootConfig *rootConfig
	out        io.Writer
	err        io.Writer
	source     physic.Frequency
	maxDiv     int
}

func (c *quantizeConfig) Exec(ctx context.Context, _ []string) error {
	if c.rootConfig.verbose {
		fmt.Fprintln(c.err, "quantize")
	}

	clk := &ese.DividerClock{Name: "sclk", Source: c.source, MaxDivider: c.maxDiv}
	if c.rootConfig.board != "" {
		b, err := eseconf.Load(c.rootConfig.board)
		if err != nil {
			return err
		}
		bc, ok := b.Clock("sclk")
		if !ok {
			return errors.New("ese: board has no sclk")
		}
		clk.Source = physic.Frequency(bc.SourceHz) * physic.Hertz
		clk.MaxDivider = bc.MaxDivider
	}

	rate, err := ese.Quantize(clk, c.rootConfig.speed)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: requested %s, programmed %s\n", clk, c.rootConfig.speed, rate)
	return nil
}

func newQuantizeCmd(rootConfig *rootConfig, out io.Writer, err io.Writer) *ffcli.Command {
	cfg := quantizeConfig{
		rootConfig: rootConfig,
		out:        out,
		err:        err,
		source:     100 * physic.MegaHertz,
	}

	fs := flag.NewFlagSet("esep3 quantize", flag.ExitOnError)
	fs.Var(&cfg.source, "source", "rate of the clock feeding the divider")
	fs.IntVar(&cfg.maxDiv, "max-div", 256, "largest divider")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "quantize",
		ShortUsage: "quantize [flags]",
		ShortHelp:  "Shows the rate a divider clock settles on for -speed.",
		LongHelp: `Shows the rate a divider clock settles on for -speed.

The clock is taken from the sclk entry of -board when given. No hardware is
touched.`,
		FlagSet: fs,
		Options: rootConfig.options(),
		Exec:    cfg.Exec,
	})
}
