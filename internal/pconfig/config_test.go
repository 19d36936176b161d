package pconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"defaults", DefaultConfig(), true},
		{"lambda at MinLambda", Config{Lambda: MinLambda, Samples: DefaultSamples}, true},
		{"lambda at MaxLambda", Config{Lambda: MaxLambda, Samples: DefaultSamples}, true},
		{"lambda below MinLambda", Config{Lambda: MinLambda / 2, Samples: DefaultSamples}, false},
		{"lambda above MaxLambda", Config{Lambda: MaxLambda * 2, Samples: DefaultSamples}, false},
		{"samples at MinSamples", Config{Lambda: DefaultLambda, Samples: MinSamples}, true},
		{"samples at MaxSamples", Config{Lambda: DefaultLambda, Samples: MaxSamples}, true},
		{"samples below MinSamples", Config{Lambda: DefaultLambda, Samples: MinSamples - 1}, false},
		{"samples above MaxSamples", Config{Lambda: DefaultLambda, Samples: MaxSamples + 1}, false},
		{"zero value is invalid", Config{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.IsValid())
		})
	}
}

func TestEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"positive lambda and samples", Config{Lambda: 0.1, Samples: 1}, true},
		{"zero lambda disables", Config{Lambda: 0, Samples: 50}, false},
		{"zero samples disables", Config{Lambda: 0.1, Samples: 0}, false},
		{"negative lambda disables", Config{Lambda: -1, Samples: 50}, false},
		{"out-of-range but positive is still enabled", Config{Lambda: MaxLambda * 2, Samples: 50}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.Enabled())
		})
	}
}

func TestFromOptionsDefaults(t *testing.T) {
	cfg, errs := FromOptions(map[string]string{})
	assert.Empty(t, errs)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyOptionsOverridesOnlyNamedKeys(t *testing.T) {
	base := DefaultConfig()
	base.DebugLogging = true
	base.MetricsFile = "existing.json"

	cfg, errs := ApplyOptions(base, map[string]string{
		"PathIntegralLambda": "0.5",
	})
	require.Empty(t, errs)
	assert.Equal(t, 0.5, cfg.Lambda)
	assert.Equal(t, base.Samples, cfg.Samples)
	assert.True(t, cfg.DebugLogging)
	assert.Equal(t, "existing.json", cfg.MetricsFile)
}

func TestApplyOptionsIgnoresUnknownKeys(t *testing.T) {
	cfg, errs := ApplyOptions(DefaultConfig(), map[string]string{
		"SomeUnrelatedOption": "whatever",
	})
	assert.Empty(t, errs)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyOptionsMalformedValueDoesNotAbortParsing(t *testing.T) {
	cfg, errs := ApplyOptions(DefaultConfig(), map[string]string{
		"PathIntegralLambda":  "not-a-number",
		"PathIntegralSamples": "25",
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "PathIntegralLambda")
	assert.Equal(t, DefaultConfig().Lambda, cfg.Lambda, "malformed lambda leaves the base value untouched")
	assert.Equal(t, 25, cfg.Samples, "an earlier malformed key must not block a later well-formed one")
}

func TestApplyOptionsParsesEveryKey(t *testing.T) {
	cfg, errs := ApplyOptions(DefaultConfig(), map[string]string{
		"PathIntegralLambda":      "0.25",
		"PathIntegralSamples":     "10",
		"PathIntegralRewardMode":  "cp_score",
		"PathIntegralMode":        "quantum_limit",
		"PathIntegralDebugMode":   "true",
		"PathIntegralMetricsFile": "/tmp/metrics.json",
	})
	require.Empty(t, errs)
	assert.Equal(t, 0.25, cfg.Lambda)
	assert.Equal(t, 10, cfg.Samples)
	assert.Equal(t, RewardCpScore, cfg.RewardMode)
	assert.Equal(t, SamplingQuantumLimit, cfg.SamplingMode)
	assert.True(t, cfg.DebugLogging)
	assert.Equal(t, "/tmp/metrics.json", cfg.MetricsFile)
}

func TestApplyOptionsUnrecognizedEnumValueFallsBackToDefault(t *testing.T) {
	cfg, errs := ApplyOptions(DefaultConfig(), map[string]string{
		"PathIntegralRewardMode": "not-a-real-mode",
		"PathIntegralMode":       "not-a-real-mode",
	})
	assert.Empty(t, errs)
	assert.Equal(t, RewardHybrid, cfg.RewardMode)
	assert.Equal(t, SamplingCompetitive, cfg.SamplingMode)
}

func TestLoadFileAppliesOnlyFieldsPresentInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lambda: 0.75\nsamples: 20\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Lambda)
	assert.Equal(t, 20, cfg.Samples)
	assert.Equal(t, RewardHybrid, cfg.RewardMode)
	assert.Equal(t, SamplingCompetitive, cfg.SamplingMode)
}

func TestLoadFileMissingFileReturnsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadFileMalformedYAMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lambda: [this is not a float"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
