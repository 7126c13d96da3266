package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestRootDefaults(t *testing.T) {
	cmd, cfg := newRootCmd()
	assert.Equal(t, defaultSpeed, cfg.speed)
	assert.Equal(t, "spi", cfg.iface)

	require.NoError(t, cmd.FlagSet.Parse([]string{"-speed", "4MHz"}))
	assert.Equal(t, 4*physic.MegaHertz, cfg.speed)

	// registering on a subcommand keeps the parsed value
	fs := flag.NewFlagSet("esep3 info", flag.ContinueOnError)
	cfg.registerFlags(fs)
	assert.Equal(t, 4*physic.MegaHertz, cfg.speed)
}

func TestRegisterFlagsNoDefaults(t *testing.T) {
	var cfg rootConfig
	cfg.registerFlags(flag.NewFlagSet("esep3", flag.ContinueOnError))
	assert.Zero(t, cfg.speed)
}
