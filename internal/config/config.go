// Package config loads the engine settings of the commands from defaults,
// an optional TOML file, VOICEINFO_ environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-voice/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. VOICEINFO_SAMPLE_RATE.
const EnvPrefix = "VOICEINFO"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid value")

// Config holds the engine settings.
type Config struct {
	SampleRate        float64   `mapstructure:"sample_rate"`
	BlockSize         int       `mapstructure:"block_size"`
	Polyphony         int       `mapstructure:"polyphony"`
	Note              float64   `mapstructure:"note"`
	Velocity          float64   `mapstructure:"velocity"`
	Duration          float64   `mapstructure:"duration"`
	Preset            string    `mapstructure:"preset"`
	CreateConcurrency int       `mapstructure:"create_concurrency"`
	Log               LogConfig `mapstructure:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SampleRate:        48000,
		BlockSize:         128,
		Polyphony:         6,
		Note:              69,
		Velocity:          1,
		Duration:          1,
		CreateConcurrency: 1,
		Log:               LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// flag name -> config key
var flagKeys = map[string]string{
	"sample-rate":        "sample_rate",
	"block-size":         "block_size",
	"polyphony":          "polyphony",
	"note":               "note",
	"velocity":           "velocity",
	"duration":           "duration",
	"preset":             "preset",
	"create-concurrency": "create_concurrency",
	"log-level":          "log.level",
	"log-format":         "log.format",
}

// RegisterFlags adds a flag for every setting to fs, plus --config.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a TOML config file")
	fs.Float64("sample-rate", d.SampleRate, "sample rate in Hz")
	fs.Int("block-size", d.BlockSize, "render block size in samples")
	fs.IntP("polyphony", "n", d.Polyphony, "number of voices to build")
	fs.Float64("note", d.Note, "MIDI note of the first voice")
	fs.Float64("velocity", d.Velocity, "note velocity in [0, 1]")
	fs.Float64P("duration", "d", d.Duration, "rendered length in seconds")
	fs.StringP("preset", "p", d.Preset, "preset file (.toml or .json)")
	fs.Int("create-concurrency", d.CreateConcurrency, "components created in parallel per voice")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (console, json)")
}

// Load resolves the settings. fs may be nil; when it carries a --config
// flag that file is read and must exist.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("block_size", d.BlockSize)
	v.SetDefault("polyphony", d.Polyphony)
	v.SetDefault("note", d.Note)
	v.SetDefault("velocity", d.Velocity)
	v.SetDefault("duration", d.Duration)
	v.SetDefault("preset", d.Preset)
	v.SetDefault("create_concurrency", d.CreateConcurrency)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if path, err := fs.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects non-positive sizes and rates and unknown log formats.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: sample_rate %v", ErrInvalid, c.SampleRate))
	}
	if c.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: block_size %d", ErrInvalid, c.BlockSize))
	}
	if c.Polyphony <= 0 {
		errs = append(errs, fmt.Errorf("%w: polyphony %d", ErrInvalid, c.Polyphony))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("%w: duration %v", ErrInvalid, c.Duration))
	}
	if c.Velocity < 0 || c.Velocity > 1 {
		errs = append(errs, fmt.Errorf("%w: velocity %v", ErrInvalid, c.Velocity))
	}
	if c.CreateConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("%w: create_concurrency %d", ErrInvalid, c.CreateConcurrency))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format))
	}
	return errors.Join(errs...)
}
