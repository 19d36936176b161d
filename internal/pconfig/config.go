// Package pconfig implements the typed configuration for the path integral
// sampler: validated ranges, defaults, and the UCI-option and YAML-file
// loaders that feed it.
package pconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RewardMode selects the per-draw scoring function used in quantum-limit
// mode.
type RewardMode int

const (
	RewardHybrid RewardMode = iota
	RewardPolicy
	RewardCpScore
)

func (m RewardMode) String() string {
	switch m {
	case RewardPolicy:
		return "policy"
	case RewardCpScore:
		return "cp_score"
	default:
		return "hybrid"
	}
}

// ParseRewardMode maps a UCI option string to a RewardMode, defaulting to
// hybrid for anything unrecognized.
func ParseRewardMode(s string) RewardMode {
	switch s {
	case "policy":
		return RewardPolicy
	case "cp_score":
		return RewardCpScore
	default:
		return RewardHybrid
	}
}

// SamplingMode selects the root-move selection rule.
type SamplingMode int

const (
	SamplingCompetitive SamplingMode = iota
	SamplingQuantumLimit
)

func (m SamplingMode) String() string {
	if m == SamplingQuantumLimit {
		return "quantum_limit"
	}
	return "competitive"
}

// ParseSamplingMode maps a UCI option string to a SamplingMode, defaulting
// to competitive for anything unrecognized.
func ParseSamplingMode(s string) SamplingMode {
	if s == "quantum_limit" {
		return SamplingQuantumLimit
	}
	return SamplingCompetitive
}

// ExportFormat selects the verifier's report serialization.
type ExportFormat int

const (
	ExportNone ExportFormat = iota
	ExportJSON
	ExportCSV
	ExportText
)

func ParseExportFormat(s string) ExportFormat {
	switch s {
	case "json":
		return ExportJSON
	case "csv":
		return ExportCSV
	case "text":
		return ExportText
	default:
		return ExportNone
	}
}

const (
	MinLambda  = 0.001
	MaxLambda  = 10.0
	MinSamples = 1
	MaxSamples = 100000

	DefaultLambda  = 0.1
	DefaultSamples = 50
)

// Config is the typed, validated configuration for one Controller.
type Config struct {
	Lambda       float64
	Samples      int
	RewardMode   RewardMode
	SamplingMode SamplingMode
	DebugLogging bool
	MetricsFile  string
	ExportFormat ExportFormat
}

// SetDefaults resets the configuration to the reference defaults.
func (c *Config) SetDefaults() {
	*c = Config{
		Lambda:       DefaultLambda,
		Samples:      DefaultSamples,
		RewardMode:   RewardHybrid,
		SamplingMode: SamplingCompetitive,
	}
}

// IsValid reports whether lambda and samples both fall within their valid
// ranges. It does not consult Enabled: enablement is derived separately.
func (c Config) IsValid() bool {
	return c.Lambda >= MinLambda && c.Lambda <= MaxLambda &&
		c.Samples >= MinSamples && c.Samples <= MaxSamples
}

// Enabled reports whether the controller should run PIS at all: lambda and
// samples must both be strictly positive, independent of IsValid's range
// check (a caller can still pass an out-of-range-but-positive value and get
// a Controller that tries to run and then disables itself).
func (c Config) Enabled() bool {
	return c.Lambda > 0 && c.Samples > 0
}

// DefaultConfig returns a Config with SetDefaults applied.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// FromOptions parses a UCI-style options bag against the reference defaults.
// Unknown keys are ignored; malformed numeric values are reported but do not
// stop parsing of the remaining keys.
func FromOptions(opts map[string]string) (Config, []error) {
	return ApplyOptions(DefaultConfig(), opts)
}

// ApplyOptions parses a UCI-style options bag on top of base, leaving any
// key absent from opts untouched. This is what a "setoption" handler should
// use: each call only touches the one option named, instead of resetting
// every other option back to its default.
func ApplyOptions(base Config, opts map[string]string) (Config, []error) {
	cfg := base
	var errs []error

	if v, ok := opts["PathIntegralLambda"]; ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("PathIntegralLambda: %w", err))
		} else {
			cfg.Lambda = f
		}
	}
	if v, ok := opts["PathIntegralSamples"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("PathIntegralSamples: %w", err))
		} else {
			cfg.Samples = n
		}
	}
	if v, ok := opts["PathIntegralRewardMode"]; ok {
		cfg.RewardMode = ParseRewardMode(strings.TrimSpace(v))
	}
	if v, ok := opts["PathIntegralMode"]; ok {
		cfg.SamplingMode = ParseSamplingMode(strings.TrimSpace(v))
	}
	if v, ok := opts["PathIntegralDebugMode"]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("PathIntegralDebugMode: %w", err))
		} else {
			cfg.DebugLogging = b
		}
	}
	if v, ok := opts["PathIntegralMetricsFile"]; ok {
		cfg.MetricsFile = v
	}

	return cfg, errs
}

// fileConfig is the YAML-serializable shape of a Config, for
// --config file loading.
type fileConfig struct {
	Lambda       float64 `yaml:"lambda"`
	Samples      int     `yaml:"samples"`
	RewardMode   string  `yaml:"reward_mode"`
	SamplingMode string  `yaml:"sampling_mode"`
	DebugLogging bool    `yaml:"debug_logging"`
	MetricsFile  string  `yaml:"metrics_file"`
	ExportFormat string  `yaml:"export_format"`
}

// LoadFile reads a YAML configuration file. Fields absent from the file keep
// their default value.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var fc fileConfig
	fc.Lambda = cfg.Lambda
	fc.Samples = cfg.Samples
	fc.RewardMode = cfg.RewardMode.String()
	fc.SamplingMode = cfg.SamplingMode.String()
	fc.ExportFormat = "none"

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Lambda = fc.Lambda
	cfg.Samples = fc.Samples
	cfg.RewardMode = ParseRewardMode(fc.RewardMode)
	cfg.SamplingMode = ParseSamplingMode(fc.SamplingMode)
	cfg.DebugLogging = fc.DebugLogging
	cfg.MetricsFile = fc.MetricsFile
	cfg.ExportFormat = ParseExportFormat(fc.ExportFormat)

	return cfg, nil
}
