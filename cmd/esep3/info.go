package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/template"

	"github.com/northvolt/go-ese/ese"
	"github.com/peterbourgon/ff/v3/ffcli"
)

type infoConfig struct {
	rootConfig *rootConfig
	out        io.Writer
	err        io.Writer
	json       bool
	open       bool
}

func (c *infoConfig) Exec(ctx context.Context, _ []string) error {
	if c.rootConfig.verbose {
		fmt.Fprintf(c.err, "info\n")
	}

	d, err := newDev(c.rootConfig)
	if err != nil {
		return err
	}
	defer d.Close()

	// Powering the element shows the rate the clock settled on.
	if c.open {
		h, err := d.Open()
		if err != nil {
			return err
		}
		defer h.Close()
	}

	di := getDeviceInfo(d)
	if c.json {
		return writeJSON(c.out, di)
	} else {
		return writeText(c.out, di)
	}
}

const deviceInfoTemplate = `
Vendor:
    {{ .Vendor }}

Session:
    {{ yesno .Open "open" "closed" }}, {{ .Users }} user(s)

Power:
    {{ yesno .Powered "on" "off" }}

Clock:
    {{ if .SecureClock }}driver owned, {{ yesno .ClockOn "running" "gated" }}, {{ .Rate }}{{ else }}host owned{{ end }}

Debug:
    {{ .DebugLevel }}
`

func writeText(w io.Writer, di *deviceInfo) error {
	funcs := template.FuncMap{
		"yesno": func(b bool, yes, no string) string {
			if b {
				return yes
			} else {
				return no
			}
		},
	}
	t, err := template.New("info").Funcs(funcs).Parse(deviceInfoTemplate)
	if err != nil {
		return err
	}

	return t.Execute(w, di)
}

func newInfoCmd(
	rootConfig *rootConfig, out io.Writer, err io.Writer,
) *ffcli.Command {
	cfg := infoConfig{
		rootConfig: rootConfig,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("esep3 info", flag.ExitOnError)
	fs.BoolVar(&cfg.json, "json", false, "output in json mode")
	fs.BoolVar(&cfg.open, "open", false, "open a session before reading the state")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "info",
		ShortUsage: "info",
		ShortHelp:  "Returns the power and clock state of the secure element.",
		FlagSet:    fs,
		Options:    rootConfig.options(),
		Exec:       cfg.Exec,
	})
}

type deviceInfo struct {
	Vendor      string `json:"vendor"`
	Open        bool   `json:"open"`
	Users       int    `json:"users"`
	Powered     bool   `json:"powered"`
	SecureClock bool   `json:"secure_clock"`
	ClockOn     bool   `json:"clock_on"`
	Rate        string `json:"rate,omitempty"`
	DebugLevel  string `json:"debug_level"`
}

func getDeviceInfo(d *ese.Dev) *deviceInfo {
	s := d.State()
	di := &deviceInfo{
		Vendor:      s.Vendor.String(),
		Open:        s.Open,
		Users:       s.Users,
		Powered:     s.Powered,
		SecureClock: s.SecureClock,
		ClockOn:     s.ClockOn,
		DebugLevel:  s.DebugLevel.String(),
	}
	if s.Rate > 0 {
		di.Rate = s.Rate.String()
	}
	return di
}
