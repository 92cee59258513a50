// Command voiceinfo builds voices from a preset, renders a note and
// reports the status of every component and the spectral peak of the mix.
//
// Usage:
//
//	voiceinfo [flags]
//
// Examples:
//
//	voiceinfo
//	voiceinfo -p preset/testdata/warm_pad.toml -n 3 --note 57
//	voiceinfo --log-level debug --log-format json
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/cwbudde/algo-voice/internal/config"
	"github.com/cwbudde/algo-voice/internal/logging"
)

func main() {
	fs := pflag.NewFlagSet("voiceinfo", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: voiceinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Builds voices from a preset, renders one note per voice and prints\n")
		fmt.Fprintf(os.Stderr, "component status and the spectral peak of the mix.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables prefixed %s_ override the config file.\n", config.EnvPrefix)
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	if err := run(cfg, log, os.Stdout); err != nil {
		log.Error().Err(err).Msg("voiceinfo failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, log zerolog.Logger, out io.Writer) error {
	rep, err := renderVoices(cfg, log)
	if err != nil {
		return err
	}
	return rep.print(out)
}
