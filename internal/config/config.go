// Package config loads the engine's operator-facing settings: a YAML
// file holding the callsign, audio device selection, PTT backend, and
// the ARQ timing constants spec §4.5 otherwise hardcodes, merged with
// command-line flags the way src/appserver.go and src/kissutil.go build
// theirs (every flag has a short and long form, pflag.Usage prints a
// banner before the defaults).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the merged result of a YAML file and CLI flag overrides.
type Config struct {
	Callsign string `yaml:"callsign"`

	InputDevice  int `yaml:"input_device"`
	OutputDevice int `yaml:"output_device"`

	PTTBackend string `yaml:"ptt_backend"` // "null", "hamlib", "gpio", "serial"
	PTTDevice  string `yaml:"ptt_device"`  // serial port / GPIO chip name / hamlib device path
	PTTGPIO    int    `yaml:"ptt_gpio_line"`

	LogFile       string `yaml:"log_file"`       // strftime pattern, see internal/logging
	LogLevel      string `yaml:"log_level"`      // debug, info, warn, error
	MonitorPTYLog bool   `yaml:"monitor_enabled"`

	DiscoveryEnabled bool `yaml:"discovery_enabled"`

	ArqWaitTimeMS        int `yaml:"arq_wait_time_ms"`
	RetransmitWaitTimeMS int `yaml:"retransmit_wait_time_ms"`
	QuietThresholdMS     int `yaml:"quiet_threshold_ms"`
}

// Default returns the spec's literal constants rendered as a Config.
func Default() Config {
	return Config{
		PTTBackend:           "null",
		LogLevel:             "info",
		ArqWaitTimeMS:        15000,
		RetransmitWaitTimeMS: 7000,
		QuietThresholdMS:     5000,
	}
}

func (c Config) ArqWaitTime() time.Duration {
	return time.Duration(c.ArqWaitTimeMS) * time.Millisecond
}

func (c Config) RetransmitWaitTime() time.Duration {
	return time.Duration(c.RetransmitWaitTimeMS) * time.Millisecond
}

func (c Config) QuietThreshold() time.Duration {
	return time.Duration(c.QuietThresholdMS) * time.Millisecond
}

// LoadFile reads a YAML config from path into Default()'s base values.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ParseFlags builds a dedicated flag set (rather than pflag.CommandLine,
// so tests can call this more than once) mirroring the appserver.go /
// kissutil.go convention: short and long forms, a banner in Usage, and
// flags layered on top of whatever LoadFile already populated.
func ParseFlags(cfg Config, args []string) (Config, error) {
	fs := pflag.NewFlagSet("freetvd", pflag.ContinueOnError)

	configPath := fs.StringP("config", "c", "", "Path to YAML config file.")
	callsign := fs.StringP("callsign", "m", cfg.Callsign, "Station callsign (MYCALL), at most 10 characters.")
	inputDevice := fs.IntP("input-device", "i", cfg.InputDevice, "Audio input device index.")
	outputDevice := fs.IntP("output-device", "o", cfg.OutputDevice, "Audio output device index.")
	pttBackend := fs.StringP("ptt-backend", "P", cfg.PTTBackend, "PTT backend: null, hamlib, gpio, or serial.")
	pttDevice := fs.StringP("ptt-device", "d", cfg.PTTDevice, "PTT backend device/rig identifier.")
	logFile := fs.StringP("log-file", "l", cfg.LogFile, "strftime log file path pattern.")
	logLevel := fs.StringP("log-level", "v", cfg.LogLevel, "Log level: debug, info, warn, error.")
	discovery := fs.BoolP("discovery", "D", cfg.DiscoveryEnabled, "Advertise the control socket over mDNS.")
	help := fs.BoolP("help", "h", false, "Display help text.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "freetvd - headless ARQ image transport engine\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: freetvd [OPTIONS]\n")
		fmt.Fprintf(os.Stderr, "\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *help {
		fs.Usage()
		os.Exit(0)
	}

	if *configPath != "" {
		fileCfg, err := LoadFile(*configPath)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	if fs.Changed("callsign") {
		cfg.Callsign = *callsign
	}
	if fs.Changed("input-device") {
		cfg.InputDevice = *inputDevice
	}
	if fs.Changed("output-device") {
		cfg.OutputDevice = *outputDevice
	}
	if fs.Changed("ptt-backend") {
		cfg.PTTBackend = *pttBackend
	}
	if fs.Changed("ptt-device") {
		cfg.PTTDevice = *pttDevice
	}
	if fs.Changed("log-file") {
		cfg.LogFile = *logFile
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("discovery") {
		cfg.DiscoveryEnabled = *discovery
	}

	if len(cfg.Callsign) > 10 {
		return cfg, fmt.Errorf("config: callsign %q too long (maximum 10 characters)", cfg.Callsign)
	}

	return cfg, nil
}
