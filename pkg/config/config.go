// Package config provides a go-simpler.org/env configuration table and
// helpers for working with the environment variables that drive the
// client (spec.md §6), replacing the scattered read_setting_* accessors
// the design notes call out with one typed struct.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"go-simpler.org/env"
	lol "lol.mleku.dev"
	"lol.mleku.dev/chk"
)

// Version is the engine's reported version string.
const Version = "0.1.0"

// C holds application configuration loaded from environment variables and
// default values: storage location, logging, and network behaviour used
// across the client (spec.md §6).
type C struct {
	AppName     string `env:"GOSSIP_APP_NAME" usage:"set a name to display in diagnostics" default:"gossip"`
	DataDir     string `env:"GOSSIP_DATA_DIR" usage:"profile directory: event store, identity, settings" default:"~/.local/share/gossip"`
	LogLevel    string `env:"GOSSIP_LOG_LEVEL" default:"info" usage:"log level: fatal error warn info debug trace"`
	LogToStdout bool   `env:"GOSSIP_LOG_TO_STDOUT" default:"false" usage:"log to stdout instead of stderr"`
	Pprof       string `env:"GOSSIP_PPROF" usage:"enable pprof in modes: cpu,memory,allocation"`
	Offline     bool   `env:"GOSSIP_OFFLINE" default:"false" usage:"do not open any outbound relay connection"`
	HealthPort  int    `env:"GOSSIP_HEALTH_PORT" default:"0" usage:"optional health check HTTP port; 0 disables"`
}

// New loads configuration from the environment, applying the profile
// directory default and initializing logging, mirroring spec.md §6's
// `--dbdir`/`XDG_DATA_HOME`-equivalent override and logging-filter knobs.
func New() (cfg *C, err error) {
	cfg = &C{}
	if err = env.Load(cfg, &env.Options{SliceSep: ","}); chk.T(err) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err)
		}
		PrintHelp(cfg, os.Stderr)
		os.Exit(1)
	}
	if cfg.DataDir == "" || strings.Contains(cfg.DataDir, "~") {
		cfg.DataDir = filepath.Join(xdg.DataHome, cfg.AppName)
	}
	if GetEnv() {
		PrintEnv(cfg, os.Stdout)
		os.Exit(0)
	}
	if HelpRequested() {
		PrintHelp(cfg, os.Stderr)
		os.Exit(0)
	}
	if cfg.LogToStdout {
		lol.Writer = os.Stdout
	}
	lol.SetLogLevel(cfg.LogLevel)
	return
}

// ApplyDBDir overrides cfg.DataDir with an explicit --dbdir flag value,
// when one was given on the command line.
func (cfg *C) ApplyDBDir(dbdir string) {
	if dbdir != "" {
		cfg.DataDir = dbdir
	}
}

// HelpRequested reports whether the first CLI argument asked for help.
func HelpRequested() (help bool) {
	if len(os.Args) > 1 {
		switch strings.ToLower(os.Args[1]) {
		case "help", "-h", "--h", "-help", "--help", "?":
			help = true
		}
	}
	return
}

// GetEnv reports whether the first CLI argument is "env", requesting a
// printout of the resolved environment configuration.
func GetEnv() (requested bool) {
	if len(os.Args) > 1 {
		switch strings.ToLower(os.Args[1]) {
		case "env":
			requested = true
		}
	}
	return
}

// KV is a key/value pair.
type KV struct{ Key, Value string }

// KVSlice is a sortable slice of key/value pairs.
type KVSlice []KV

func (kv KVSlice) Len() int           { return len(kv) }
func (kv KVSlice) Less(i, j int) bool { return kv[i].Key < kv[j].Key }
func (kv KVSlice) Swap(i, j int)      { kv[i], kv[j] = kv[j], kv[i] }

// EnvKV generates key/value pairs from a configuration object's env tags.
func EnvKV(cfg any) (m KVSlice) {
	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		k := t.Field(i).Tag.Get("env")
		if k == "" {
			continue
		}
		v := reflect.ValueOf(cfg).Field(i).Interface()
		var val string
		switch vv := v.(type) {
		case string:
			val = vv
		case int, bool, time.Duration:
			val = fmt.Sprint(vv)
		case []string:
			if len(vv) > 0 {
				val = strings.Join(vv, ",")
			}
		}
		m = append(m, KV{k, val})
	}
	return
}

// PrintEnv writes sorted environment key/value pairs to printer.
func PrintEnv(cfg *C, printer io.Writer) {
	kvs := EnvKV(*cfg)
	sort.Sort(kvs)
	for _, v := range kvs {
		_, _ = fmt.Fprintf(printer, "%s=%s\n", v.Key, v.Value)
	}
}

// PrintHelp prints application version, environment variable help, and
// the currently resolved configuration to printer.
func PrintHelp(cfg *C, printer io.Writer) {
	_, _ = fmt.Fprintf(printer, "%s %s\n\n", cfg.AppName, Version)
	_, _ = fmt.Fprintf(
		printer,
		`Usage: %s [env|help] [--dbdir <path>] [--offline] [--wgpu] [import-lmdb-events <path>]

- env: print environment variables configuring %s
- help: print this help text

`,
		cfg.AppName, cfg.AppName,
	)
	_, _ = fmt.Fprintf(printer, "Environment variables that configure %s:\n\n", cfg.AppName)
	env.Usage(cfg, printer, &env.Options{SliceSep: ","})
	fmt.Fprintf(printer, "\ncurrent configuration:\n\n")
	PrintEnv(cfg, printer)
	fmt.Fprintln(printer)
}
