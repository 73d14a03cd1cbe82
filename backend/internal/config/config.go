// Package config merges command-line flags, VRINPUT_* environment variables
// and an optional YAML file into one Config.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "VRINPUT"

// Input sources.
const (
	SourceSDL   = "sdl"
	SourceTrace = "trace"
)

// Config holds the resolved settings from flags, environment and config file.
type Config struct {
	ConfigFile string

	Addr      string
	LogLevel  string
	LogFormat string

	Source string
	Trace  string
	Loop   bool
	Check  bool

	EngineURL string
	Console   bool
	CvarsFile string
	Tray      bool

	// Cvars are applied on top of the registered defaults and the archive.
	Cvars map[string]string
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("vrinput", pflag.ContinueOnError)
	fs.String("config", "", "YAML config file")
	fs.String("addr", ":8080", "viewer listen address")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-format", "console", "console, text or json")
	fs.String("source", SourceSDL, "input source: sdl or trace")
	fs.String("trace", "", "trace file for --source=trace or --check")
	fs.Bool("loop", false, "repeat the trace until interrupted")
	fs.Bool("check", false, "replay the trace without pacing, verify its expectations and exit")
	fs.String("engine-url", "", "websocket URL of the engine console bridge")
	fs.Bool("console", false, "print engine commands to stdout")
	fs.String("cvars-file", "", "YAML file archived cvars are loaded from and saved to")
	fs.Bool("tray", true, "show a system tray icon where supported")
	return fs
}

// Load parses args (without the program name). Flags set on the command line
// win over the environment, which wins over the config file.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	cfg := &Config{
		ConfigFile: v.GetString("config"),
		Addr:       v.GetString("addr"),
		LogLevel:   strings.ToLower(v.GetString("log-level")),
		LogFormat:  strings.ToLower(v.GetString("log-format")),
		Source:     strings.ToLower(v.GetString("source")),
		Trace:      v.GetString("trace"),
		Loop:       v.GetBool("loop"),
		Check:      v.GetBool("check"),
		EngineURL:  v.GetString("engine-url"),
		Console:    v.GetBool("console"),
		CvarsFile:  v.GetString("cvars-file"),
		Tray:       v.GetBool("tray"),
		Cvars:      v.GetStringMapString("cvars"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Source {
	case SourceSDL, SourceTrace:
	default:
		return errors.Errorf("unknown source %q", c.Source)
	}
	if (c.Source == SourceTrace || c.Check) && c.Trace == "" {
		return errors.New("a trace file is required for --source=trace and --check")
	}
	if c.Check && c.Loop {
		return errors.New("--check and --loop cannot be combined")
	}
	return nil
}
