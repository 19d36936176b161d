// Package verifier implements the Verifier (C6): it drives the Controller
// across test scenarios, validates the results against fixed predicates,
// and aggregates them into machine-readable reports.
package verifier

import (
	"fmt"
	"time"

	"github.com/hailam/pathintegral/internal/backend"
	"github.com/hailam/pathintegral/internal/chess"
	"github.com/hailam/pathintegral/internal/pconfig"
	"github.com/hailam/pathintegral/internal/perfmon"
	"github.com/hailam/pathintegral/internal/sampler"
)

const (
	minReasonableTimePerSampleMs = 0.001
	maxReasonableTimePerSampleMs = 1000.0
	sampleCountTolerancePercent  = 5.0
)

// Result is the outcome of one VerifySampling call.
type Result struct {
	SamplesMatchRequested bool
	NeuralNetUsed         bool
	TimingReasonable      bool
	BackendAvailable      bool
	SamplingCompleted     bool

	RequestedSamples     int
	ActualSamples        int
	NeuralNetEvaluations int
	CachedEvaluations    int
	HeuristicEvaluations int
	TotalTimeMs          float64
	AvgTimePerSampleMs   float64

	DetailedReport string
	Warnings       []string
	Errors         []string

	PositionFEN string
	ConfigUsed  pconfig.Config
}

// IsValid reports whether the result counts as passing.
func (r Result) IsValid() bool {
	return r.SamplesMatchRequested && r.SamplingCompleted && len(r.Errors) == 0
}

// SamplesPerSecond derives throughput from the result's own counters.
func (r Result) SamplesPerSecond() float64 {
	if r.TotalTimeMs > 0 {
		return float64(r.ActualSamples) * 1000.0 / r.TotalTimeMs
	}
	return 0
}

// Scenario names one test case: a position, a configuration, and optional
// expected-timing bounds.
type Scenario struct {
	Name              string
	PositionFEN       string
	Config            pconfig.Config
	Limits            sampler.SearchLimits
	MinExpectedTimeMs float64
	MaxExpectedTimeMs float64
}

// Report aggregates a batch of Results with summary statistics.
type Report struct {
	IndividualResults []Result

	TotalTests    int
	PassedTests   int
	FailedTests   int
	WarningsCount int
	ErrorsCount   int

	AvgSamplesPerSecond float64
	MinSamplesPerSecond float64
	MaxSamplesPerSecond float64

	TestsWithNeuralNet      int
	TestsWithHeuristicsOnly int

	SummaryReport string
	GeneratedAt   time.Time
}

// IsOverallSuccess reports whether every scenario passed with no errors.
func (r Report) IsOverallSuccess() bool {
	return r.FailedTests == 0 && r.ErrorsCount == 0
}

// Verifier drives a Controller across scenarios.
type Verifier struct {
	controller *sampler.Controller
	backend    backend.Backend
	verbose    bool
}

// New returns a Verifier that exercises controller directly, with no
// engine shell involved.
func New(controller *sampler.Controller, be backend.Backend) *Verifier {
	return &Verifier{controller: controller, backend: be}
}

func (v *Verifier) SetVerbose(verbose bool) { v.verbose = verbose }

// VerifySampling runs one end-to-end selection and fills a Result with its
// metrics and validation predicates.
func (v *Verifier) VerifySampling(position *chess.Position, cfg pconfig.Config, limits sampler.SearchLimits) Result {
	return v.verifySamplingAgainstScenario(position, cfg, limits, Scenario{})
}

func (v *Verifier) verifySamplingAgainstScenario(position *chess.Position, cfg pconfig.Config, limits sampler.SearchLimits, scenario Scenario) Result {
	result := Result{
		PositionFEN:      position.ToFEN(),
		ConfigUsed:       cfg,
		RequestedSamples: cfg.Samples,
	}

	v.controller.SetConfig(cfg)

	result.BackendAvailable = v.backend != nil && v.backend.Available()
	if !result.BackendAvailable {
		result.Warnings = append(result.Warnings, "No neural network backend available - will use heuristic evaluation")
	}

	start := time.Now()
	selected := v.controller.SelectMove(position, limits)
	result.TotalTimeMs = float64(time.Since(start).Microseconds()) / 1000.0

	metrics := v.controller.GetLastSamplingMetrics()

	result.SamplingCompleted = selected != chess.NoMove
	result.ActualSamples = metrics.ActualSamples
	result.NeuralNetEvaluations = metrics.NeuralNetEvaluations
	result.CachedEvaluations = metrics.CachedEvaluations
	result.HeuristicEvaluations = metrics.HeuristicEvaluations
	result.AvgTimePerSampleMs = metrics.AvgTimePerSampleMs

	// cfg.Samples is a per-move count; the monitor counts every draw.
	expectedSamples := cfg.Samples * position.GenerateLegalMoves().Len()
	result.SamplesMatchRequested = validateSampleCounts(metrics.ActualSamples, expectedSamples)
	result.NeuralNetUsed = v.validateNeuralNetworkUsage(metrics)
	result.TimingReasonable = validateTimingReasonableness(metrics, result.TotalTimeMs, scenario.MinExpectedTimeMs, scenario.MaxExpectedTimeMs)

	v.analyzePerformanceMetrics(&result, metrics)
	result.DetailedReport = generateDetailedReport(result)

	return result
}

// VerifyIndividualScenario parses a scenario's FEN and runs VerifySampling
// against that scenario's own timing bounds.
func (v *Verifier) VerifyIndividualScenario(scenario Scenario) Result {
	position, err := chess.ParseFEN(scenario.PositionFEN)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("Invalid FEN position: %s - %v", scenario.PositionFEN, err)}}
	}
	return v.verifySamplingAgainstScenario(position, scenario.Config, scenario.Limits, scenario)
}

func validateSampleCounts(actual, requested int) bool {
	if actual == requested {
		return true
	}
	tolerance := int(float64(requested) * sampleCountTolerancePercent / 100.0)
	if tolerance < 1 {
		tolerance = 1
	}
	diff := actual - requested
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func (v *Verifier) validateNeuralNetworkUsage(metrics perfmon.SamplingMetrics) bool {
	if v.backend != nil && v.backend.Available() {
		return metrics.NeuralNetEvaluations > 0 || metrics.CachedEvaluations > 0
	}
	return metrics.HeuristicEvaluations > 0
}

func validateTimingReasonableness(metrics perfmon.SamplingMetrics, totalTimeMs, minExpectedMs, maxExpectedMs float64) bool {
	if metrics.AvgTimePerSampleMs < minReasonableTimePerSampleMs {
		return false
	}
	if metrics.AvgTimePerSampleMs > maxReasonableTimePerSampleMs {
		return false
	}
	if minExpectedMs > 0.0 && totalTimeMs < minExpectedMs {
		return false
	}
	if maxExpectedMs > 0.0 && totalTimeMs > maxExpectedMs {
		return false
	}
	return true
}

// analyzePerformanceMetrics appends warnings/errors for suspicious
// performance patterns the raw predicates above don't themselves flag.
func (v *Verifier) analyzePerformanceMetrics(result *Result, metrics perfmon.SamplingMetrics) {
	if result.BackendAvailable && metrics.NeuralNetEvaluations == 0 {
		result.Warnings = append(result.Warnings, "Backend available but no neural network evaluations performed")
	}
	if metrics.ActualSamples > 0 && metrics.AvgTimePerSampleMs < 0.01 {
		result.Warnings = append(result.Warnings, "Extremely fast sampling detected - verify computation is actually performed")
	}
	if metrics.ActualSamples != result.RequestedSamples {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Sample count mismatch: requested %d, actual %d", result.RequestedSamples, metrics.ActualSamples))
	}

	total := metrics.NeuralNetEvaluations + metrics.CachedEvaluations + metrics.HeuristicEvaluations
	if total == 0 {
		result.Errors = append(result.Errors, "No evaluations performed during sampling")
	} else if total < metrics.ActualSamples {
		result.Warnings = append(result.Warnings, "Fewer evaluations than samples - possible evaluation reuse")
	}
}

func generateDetailedReport(r Result) string {
	report := "=== Path Integral Sampling Verification Report ===\n"
	report += fmt.Sprintf("Position: %s\n", r.PositionFEN)
	report += "Configuration:\n"
	report += fmt.Sprintf("  - Lambda: %v\n", r.ConfigUsed.Lambda)
	report += fmt.Sprintf("  - Samples: %d\n", r.ConfigUsed.Samples)
	report += fmt.Sprintf("  - Mode: %s\n", r.ConfigUsed.SamplingMode.String())
	report += fmt.Sprintf("  - Reward Mode: %s\n", r.ConfigUsed.RewardMode.String())
	report += "\n"

	report += "Results:\n"
	report += fmt.Sprintf("  - Sampling Completed: %s\n", yesNo(r.SamplingCompleted))
	report += fmt.Sprintf("  - Samples Match Requested: %s\n", yesNo(r.SamplesMatchRequested))
	report += fmt.Sprintf("  - Neural Network Used: %s\n", yesNo(r.NeuralNetUsed))
	report += fmt.Sprintf("  - Timing Reasonable: %s\n", yesNo(r.TimingReasonable))
	report += fmt.Sprintf("  - Backend Available: %s\n", yesNo(r.BackendAvailable))
	report += "\n"

	report += "Performance Metrics:\n"
	report += fmt.Sprintf("  - Requested Samples: %d\n", r.RequestedSamples)
	report += fmt.Sprintf("  - Actual Samples: %d\n", r.ActualSamples)
	report += fmt.Sprintf("  - Neural Net Evaluations: %d\n", r.NeuralNetEvaluations)
	report += fmt.Sprintf("  - Cached Evaluations: %d\n", r.CachedEvaluations)
	report += fmt.Sprintf("  - Heuristic Evaluations: %d\n", r.HeuristicEvaluations)
	report += fmt.Sprintf("  - Total Time: %.3f ms\n", r.TotalTimeMs)
	report += fmt.Sprintf("  - Avg Time per Sample: %.3f ms\n", r.AvgTimePerSampleMs)
	report += fmt.Sprintf("  - Samples per Second: %.1f\n", r.SamplesPerSecond())
	report += "\n"

	if len(r.Warnings) > 0 {
		report += "Warnings:\n"
		for _, w := range r.Warnings {
			report += "  - " + w + "\n"
		}
		report += "\n"
	}
	if len(r.Errors) > 0 {
		report += "Errors:\n"
		for _, e := range r.Errors {
			report += "  - " + e + "\n"
		}
		report += "\n"
	}

	report += fmt.Sprintf("Overall Result: %s\n", passFail(r.IsValid()))
	return report
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func passFail(b bool) string {
	if b {
		return "PASS"
	}
	return "FAIL"
}
