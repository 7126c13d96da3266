package main

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"periph.io/x/conn/v3/physic"
)

type rootConfig struct {
	verbose  bool
	config   string
	board    string
	iface    string
	port     string
	pvdd     string
	vendor   string
	speed    physic.Frequency
	wordSize int
	devIndex int
	cs       uint
}

func (c *rootConfig) registerFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "increase log verbosity")
	fs.StringVar(&c.config, "config", "", "config file with one flag per line")
	fs.StringVar(&c.board, "board", "", "board description in json or yaml, overrides the flags below")
	fs.StringVar(&c.iface, "i", "spi", "interface type, spi or hid")
	fs.StringVar(&c.port, "port", "", "spi port to use, the first one when empty")
	fs.StringVar(&c.pvdd, "pvdd", "", "power rail, a gpio name for spi or gpN of the bridge for hid")
	fs.StringVar(&c.vendor, "vendor", "default", "application processor vendor, default, qualcomm or slsi")
	fs.Var(&c.speed, "speed", "spi clock rate eg 8MHz")
	fs.IntVar(&c.wordSize, "word-size", 0, "pad writes to whole words of this many bytes")
	fs.IntVar(&c.devIndex, "dev-index", 0, "bridge index when enumerating")
	fs.UintVar(&c.cs, "cs", 0, "bridge pin used as chip select")
}

// options reads flags from ESE_ environment variables and the -config file.
func (c *rootConfig) options() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix("ESE"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	}
}

func (c *rootConfig) Exec(context.Context, []string) error {
	return flag.ErrHelp
}

func newRootCmd() (*ffcli.Command, *rootConfig) {
	cfg := rootConfig{
		speed: defaultSpeed,
	}

	fs := flag.NewFlagSet("esep3", flag.ExitOnError)
	cfg.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "esep3",
		ShortUsage: "esep3 [flags] <subcommand>",
		ShortHelp:  "Utilities to bring up and talk to a P3 secure element.",
		FlagSet:    fs,
		Options:    cfg.options(),
		Exec:       cfg.Exec,
	}), &cfg
}

var eseLongHelp = `

GENERAL
The element is reached over a SPI port of the host, powered by a GPIO line,
or through an MCP2210 USB bridge powered by one of its general purpose pins:

  esep3 -port SPI0.0 -pvdd GPIO25 info
  esep3 -i hid -pvdd gp1 send 00a4040000

Every flag can also be set from the environment, eg ESE_PVDD=GPIO25, or from
a file given with -config.`
