package verifier

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/hailam/pathintegral/internal/pconfig"
)

// RunComprehensiveTest verifies every combination of the standard,
// performance, and edge-case scenarios against every supplied position and
// aggregates the outcome into one Report.
func (v *Verifier) RunComprehensiveTest(fenPositions []string) Report {
	var scenarios []Scenario
	for _, base := range append(append(CreateStandardTestScenarios(), CreatePerformanceTestScenarios()...), CreateEdgeCaseTestScenarios()...) {
		for _, fen := range fenPositions {
			s := base
			s.PositionFEN = fen
			scenarios = append(scenarios, s)
		}
	}
	return v.runScenarios(scenarios)
}

// RunStandardTestSuite verifies CreateStandardTestScenarios, each against
// the starting position it carries.
func (v *Verifier) RunStandardTestSuite() Report {
	return v.runScenarios(CreateStandardTestScenarios())
}

// RunPerformanceTestSuite verifies CreatePerformanceTestScenarios.
func (v *Verifier) RunPerformanceTestSuite() Report {
	return v.runScenarios(CreatePerformanceTestScenarios())
}

// RunEdgeCaseTestSuite verifies CreateEdgeCaseTestScenarios.
func (v *Verifier) RunEdgeCaseTestSuite() Report {
	return v.runScenarios(CreateEdgeCaseTestScenarios())
}

func (v *Verifier) runScenarios(scenarios []Scenario) Report {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		results = append(results, v.VerifyIndividualScenario(s))
	}
	return GenerateSummaryStatistics(results)
}

// GenerateSummaryStatistics aggregates a batch of Results into a Report,
// including the human-readable summary text.
func GenerateSummaryStatistics(results []Result) Report {
	report := Report{IndividualResults: results, TotalTests: len(results)}
	if len(results) == 0 {
		report.SummaryReport = "No test results to summarize.\n"
		return report
	}

	minSps := results[0].SamplesPerSecond()
	maxSps := results[0].SamplesPerSecond()
	sumSps := 0.0

	for _, r := range results {
		if r.IsValid() {
			report.PassedTests++
		} else {
			report.FailedTests++
		}
		report.WarningsCount += len(r.Warnings)
		report.ErrorsCount += len(r.Errors)

		sps := r.SamplesPerSecond()
		sumSps += sps
		if sps < minSps {
			minSps = sps
		}
		if sps > maxSps {
			maxSps = sps
		}

		if r.NeuralNetEvaluations > 0 || r.CachedEvaluations > 0 {
			report.TestsWithNeuralNet++
		} else {
			report.TestsWithHeuristicsOnly++
		}
	}

	report.AvgSamplesPerSecond = sumSps / float64(len(results))
	report.MinSamplesPerSecond = minSps
	report.MaxSamplesPerSecond = maxSps

	report.SummaryReport = fmt.Sprintf(
		"=== Path Integral Sampler Verification Summary ===\n"+
			"Total Tests: %d\n"+
			"Passed: %d\n"+
			"Failed: %d\n"+
			"Warnings: %d\n"+
			"Errors: %d\n"+
			"Samples/sec (min/avg/max): %.1f / %.1f / %.1f\n"+
			"Tests using neural network: %d\n"+
			"Tests using heuristics only: %d\n"+
			"Overall: %s\n",
		report.TotalTests, report.PassedTests, report.FailedTests,
		report.WarningsCount, report.ErrorsCount,
		report.MinSamplesPerSecond, report.AvgSamplesPerSecond, report.MaxSamplesPerSecond,
		report.TestsWithNeuralNet, report.TestsWithHeuristicsOnly,
		passFail(report.IsOverallSuccess()),
	)

	return report
}

// ExportReport writes report to filename in the given format.
func ExportReport(report Report, filename string, format pconfig.ExportFormat) error {
	switch format {
	case pconfig.ExportJSON:
		return GenerateJsonReport(report, filename)
	case pconfig.ExportCSV:
		return GenerateCsvReport(report, filename)
	default:
		return GenerateTextReport(report, filename)
	}
}

type jsonSummary struct {
	TotalTests      int     `json:"total_tests"`
	PassedTests     int     `json:"passed_tests"`
	FailedTests     int     `json:"failed_tests"`
	WarningsCount   int     `json:"warnings_count"`
	ErrorsCount     int     `json:"errors_count"`
	AvgSamplesSec   float64 `json:"avg_samples_per_second"`
	MinSamplesSec   float64 `json:"min_samples_per_second"`
	MaxSamplesSec   float64 `json:"max_samples_per_second"`
	OverallSuccess  bool    `json:"overall_success"`
}

type jsonReport struct {
	Summary           jsonSummary  `json:"summary"`
	IndividualResults []jsonResult `json:"individual_results"`
}

type jsonResult struct {
	Position             string   `json:"position"`
	RequestedSamples     int      `json:"requested_samples"`
	ActualSamples        int      `json:"actual_samples"`
	TotalTimeMs          float64  `json:"total_time_ms"`
	SamplesPerSecond     float64  `json:"samples_per_second"`
	NeuralNetEvaluations int      `json:"neural_net_evaluations"`
	CachedEvaluations    int      `json:"cached_evaluations"`
	HeuristicEvaluations int      `json:"heuristic_evaluations"`
	IsValid              bool     `json:"is_valid"`
	Warnings             []string `json:"warnings"`
	Errors               []string `json:"errors"`
}

// GenerateJsonReport writes report as a single JSON document to filename:
// {"summary": {...}, "individual_results": [...]}.
func GenerateJsonReport(report Report, filename string) error {
	jr := jsonReport{
		Summary: jsonSummary{
			TotalTests:     report.TotalTests,
			PassedTests:    report.PassedTests,
			FailedTests:    report.FailedTests,
			WarningsCount:  report.WarningsCount,
			ErrorsCount:    report.ErrorsCount,
			AvgSamplesSec:  report.AvgSamplesPerSecond,
			MinSamplesSec:  report.MinSamplesPerSecond,
			MaxSamplesSec:  report.MaxSamplesPerSecond,
			OverallSuccess: report.IsOverallSuccess(),
		},
	}
	for _, r := range report.IndividualResults {
		jr.IndividualResults = append(jr.IndividualResults, jsonResult{
			Position:             r.PositionFEN,
			RequestedSamples:     r.RequestedSamples,
			ActualSamples:        r.ActualSamples,
			TotalTimeMs:          r.TotalTimeMs,
			SamplesPerSecond:     r.SamplesPerSecond(),
			NeuralNetEvaluations: r.NeuralNetEvaluations,
			CachedEvaluations:    r.CachedEvaluations,
			HeuristicEvaluations: r.HeuristicEvaluations,
			IsValid:              r.IsValid(),
			Warnings:             r.Warnings,
			Errors:               r.Errors,
		})
	}

	data, err := json.MarshalIndent(jr, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// GenerateTextReport writes the summary text followed by each result's
// detailed report to filename.
func GenerateTextReport(report Report, filename string) error {
	out := report.SummaryReport + "\n"
	for _, r := range report.IndividualResults {
		out += r.DetailedReport + "\n"
	}
	return os.WriteFile(filename, []byte(out), 0644)
}

var csvHeader = []string{
	"Position", "Requested_Samples", "Actual_Samples", "Total_Time_ms",
	"Samples_Per_Second", "Neural_Net_Evaluations", "Cached_Evaluations",
	"Heuristic_Evaluations", "Is_Valid", "Warnings_Count", "Errors_Count",
}

// GenerateCsvReport writes one row per result to filename.
func GenerateCsvReport(report Report, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range report.IndividualResults {
		row := []string{
			r.PositionFEN,
			strconv.Itoa(r.RequestedSamples),
			strconv.Itoa(r.ActualSamples),
			strconv.FormatFloat(r.TotalTimeMs, 'f', 3, 64),
			strconv.FormatFloat(r.SamplesPerSecond(), 'f', 1, 64),
			strconv.Itoa(r.NeuralNetEvaluations),
			strconv.Itoa(r.CachedEvaluations),
			strconv.Itoa(r.HeuristicEvaluations),
			yesNo(r.IsValid()),
			strconv.Itoa(len(r.Warnings)),
			strconv.Itoa(len(r.Errors)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
