// Command pis-verify drives the Verifier across test scenarios and exports
// a report, exiting non-zero when any scenario fails or reports an error.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hailam/pathintegral/internal/backend"
	"github.com/hailam/pathintegral/internal/cache"
	"github.com/hailam/pathintegral/internal/pconfig"
	"github.com/hailam/pathintegral/internal/sampler"
	"github.com/hailam/pathintegral/internal/verifier"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	testSuite    string
	positions    string
	outputFormat string
	outputFile   string
	outputDir    string
	weights      string
	backendName  string
	verbose      bool

	lambda       float64
	samples      int
	rewardMode   string
	samplingMode string
)

func main() {
	root := &cobra.Command{
		Use:   "pis-verify",
		Short: "Verify the path integral sampler against a battery of test scenarios",
		RunE:  run,
	}

	root.Flags().StringVar(&configFile, "config", "", "YAML config file; explicit flags below override its values")
	root.Flags().StringVar(&testSuite, "test-suite", "standard", "standard|performance|edge-case|comprehensive")
	root.Flags().StringVar(&positions, "positions", "", "comma-separated FENs (comprehensive suite only)")
	root.Flags().StringVar(&outputFormat, "output-format", "text", "text|json|csv")
	root.Flags().StringVar(&outputFile, "output-file", "", "write the report to this file instead of stdout")
	root.Flags().StringVar(&outputDir, "output-dir", "", "directory to write the report into (combined with a generated filename)")
	root.Flags().StringVar(&weights, "weights", "", "path to backend weights; triggers backend wiring when supported")
	root.Flags().StringVar(&backendName, "backend", "", "backend name")
	root.Flags().BoolVar(&verbose, "verbose", false, "print each scenario's detailed report")

	root.Flags().Float64Var(&lambda, "lambda", pconfig.DefaultLambda, "softmax temperature")
	root.Flags().IntVar(&samples, "samples", pconfig.DefaultSamples, "samples per move")
	root.Flags().StringVar(&rewardMode, "reward-mode", "hybrid", "hybrid|policy|cp_score")
	root.Flags().StringVar(&samplingMode, "mode", "competitive", "competitive|quantum_limit")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	be, evalCache := resolveBackend()
	if evalCache != nil {
		defer evalCache.Close()
	}

	controller := sampler.New(cfg, be)
	v := verifier.New(controller, be)
	v.SetVerbose(verbose)

	report, err := runSuite(v)
	if err != nil {
		return err
	}

	if verbose {
		for _, r := range report.IndividualResults {
			fmt.Println(r.DetailedReport)
		}
	}

	if err := emitReport(report); err != nil {
		return err
	}

	if !report.IsOverallSuccess() {
		os.Exit(1)
	}
	return nil
}

// loadConfig builds the run's Config from --config (if given) with any
// explicitly-passed flags layered on top, so a scripted run can set the
// common case in a file and still override one value from the command
// line.
func loadConfig(cmd *cobra.Command) (pconfig.Config, error) {
	cfg := pconfig.DefaultConfig()
	if configFile != "" {
		fileCfg, err := pconfig.LoadFile(configFile)
		if err != nil {
			return pconfig.Config{}, fmt.Errorf("loading %s: %w", configFile, err)
		}
		cfg = fileCfg
	}

	if cmd.Flags().Changed("lambda") {
		cfg.Lambda = lambda
	}
	if cmd.Flags().Changed("samples") {
		cfg.Samples = samples
	}
	if cmd.Flags().Changed("reward-mode") {
		cfg.RewardMode = pconfig.ParseRewardMode(rewardMode)
	}
	if cmd.Flags().Changed("mode") {
		cfg.SamplingMode = pconfig.ParseSamplingMode(samplingMode)
	}

	return cfg, nil
}

func resolveBackend() (backend.Backend, *cache.EvalCache) {
	if weights == "" && backendName == "" {
		return backend.Unavailable{}, nil
	}

	c, err := cache.Open()
	if err != nil {
		slog.Warn("evaluation cache unavailable", "error", err)
		return backend.NewCachedBackend(nil), nil
	}
	return backend.NewCachedBackend(c), c
}

func runSuite(v *verifier.Verifier) (verifier.Report, error) {
	switch testSuite {
	case "standard":
		return v.RunStandardTestSuite(), nil
	case "performance":
		return v.RunPerformanceTestSuite(), nil
	case "edge-case":
		return v.RunEdgeCaseTestSuite(), nil
	case "comprehensive":
		fens := verifier.GetDefaultTestPositions()
		if positions != "" {
			fens = splitPositions(positions)
		}
		return v.RunComprehensiveTest(fens), nil
	default:
		return verifier.Report{}, fmt.Errorf("unknown test-suite %q", testSuite)
	}
}

func splitPositions(csv string) []string {
	parts := strings.Split(csv, ",")
	fens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fens = append(fens, p)
		}
	}
	return fens
}

func emitReport(report verifier.Report) error {
	format := pconfig.ParseExportFormat(outputFormat)

	target := outputFile
	if target == "" && outputDir != "" {
		target = filepath.Join(outputDir, "report."+outputFormat)
	}
	if target == "" {
		fmt.Print(report.SummaryReport)
		return nil
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return err
		}
	}
	return verifier.ExportReport(report, target, format)
}
