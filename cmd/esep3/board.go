package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/northvolt/go-ese/ese"
	"github.com/northvolt/go-ese/ese/eseconf"
	"github.com/peterbourgon/ff/v3/ffcli"
	"periph.io/x/host/v3"
)

const (
	inputDefault = "default"
	inputJSON    = "json"
	inputYAML    = "yaml"
	inputBoard   = "board"

	outputJSON  = "json"
	outputYAML  = "yaml"
	outputCheck = "check"
)

var allOutputs = []string{outputJSON, outputYAML, outputCheck}

type boardConfig struct {
	rootConfig *rootConfig
	in         io.Reader
	out        io.Writer
	err        io.Writer
	input      string
	output     string
}

func (c *boardConfig) Exec(ctx context.Context, _ []string) error {
	if c.rootConfig.verbose {
		fmt.Fprintf(c.err, "board\n")
	}

	input := c.input
	if input == "" {
		input = inputDefault
		if c.rootConfig.board != "" {
			input = inputBoard
		}
	}
	b, err := readBoard(input, c.in, c.rootConfig.board)
	if err != nil {
		return err
	}

	switch c.output {
	case outputJSON:
		return writeJSON(c.out, b)
	case outputYAML:
		y, err := eseconf.MarshalYAML(b)
		if err != nil {
			return err
		}
		_, err = c.out.Write(y)
		return err
	case outputCheck:
		// Resolves pins and ports without powering anything.
		if _, err := host.Init(); err != nil {
			return err
		}
		d, err := ese.NewBoardDev(*b, newLogger(c.rootConfig.verbose))
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, d.State())
		return d.Close()
	default:
		outputs := strings.Join(allOutputs, ", ")
		return fmt.Errorf("ese: valid outputs are %s", outputs)
	}
}

func readBoard(input string, r io.Reader, path string) (*eseconf.Board, error) {
	switch input {
	case inputDefault:
		return eseconf.DefaultBoard(), nil
	case inputBoard:
		return eseconf.Load(path)
	case inputJSON, inputYAML:
		in, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		var b eseconf.Board
		if input == inputJSON {
			err = eseconf.Unmarshal(in, &b)
		} else {
			err = eseconf.UnmarshalYAML(in, &b)
		}
		return &b, err
	default:
		return nil, fmt.Errorf("ese: valid board sources are default, board, json, yaml")
	}
}

func newBoardCmd(
	rootConfig *rootConfig, in io.Reader, out io.Writer, err io.Writer,
) *ffcli.Command {
	cfg := boardConfig{
		rootConfig: rootConfig,
		in:         in,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("esep3 board", flag.ExitOnError)
	fs.StringVar(&cfg.input, "input", "", "Read the board from: default (built-in), board (the -board file), json (stdin), yaml (stdin)")
	fs.StringVar(&cfg.output, "output", outputYAML, "Write the board as: json, yaml, check (attach and detach on this host)")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "board",
		ShortUsage: "board [flags]",
		ShortHelp:  "Converts and checks board descriptions.",
		FlagSet:    fs,
		Options:    rootConfig.options(),
		Exec:       cfg.Exec,
	})
}
