// Package sampler implements the Controller: it orchestrates mode
// selection, per-move evaluation, softmax sampling and move selection, and
// records every step through a PerformanceMonitor and a DebugLogger.
package sampler

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/hailam/pathintegral/internal/backend"
	"github.com/hailam/pathintegral/internal/chess"
	"github.com/hailam/pathintegral/internal/debuglog"
	"github.com/hailam/pathintegral/internal/pconfig"
	"github.com/hailam/pathintegral/internal/perfmon"
	"github.com/hailam/pathintegral/internal/softmax"
)

// SearchLimits is plumbed through every entry point for forward
// compatibility but is not consulted by the Controller; the real
// tree-search algorithm that would enforce it is out of scope here.
type SearchLimits struct {
	MoveTimeMs int64
	Depth      int
	Nodes      int64
}

// SampleResult is one move's averaged score and softmax probability.
// Immutable once the result vector is assembled.
type SampleResult struct {
	Move        chess.Move
	Score       float64
	Probability float64
}

const (
	perMoveSampleWarnThreshold = 10000
	totalSampleWarnThreshold   = 100000
)

// Controller orchestrates the path integral sampling process for one
// position at a time. It is safe to share across goroutines only in the
// sense that its own state is mutex-guarded; a single sampling session
// still runs on the calling goroutine, matching the monitor's
// single-producer contract.
type Controller struct {
	mu sync.Mutex

	config  pconfig.Config
	backend backend.Backend
	monitor *perfmon.Monitor
	logger  *debuglog.Logger

	lastMetrics perfmon.SamplingMetrics
}

// New returns a Controller wired to the given backend collaborator and the
// process-wide debug logger.
func New(cfg pconfig.Config, be backend.Backend) *Controller {
	c := &Controller{
		config:  cfg,
		backend: be,
		monitor: perfmon.New(),
		logger:  debuglog.Instance(),
	}
	c.monitor.OnWarning = c.logger.LogWarning
	return c
}

// SetBackend rewires the backend collaborator.
func (c *Controller) SetBackend(be backend.Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend = be
}

// SetConfig replaces the configuration wholesale.
func (c *Controller) SetConfig(cfg pconfig.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg
}

// UpdateOptions parses opts and replaces the configuration, returning any
// parse errors encountered (parsing still applies every recognized key).
func (c *Controller) UpdateOptions(opts map[string]string) []error {
	cfg, errs := pconfig.ApplyOptions(c.GetConfig(), opts)
	c.SetConfig(cfg)
	return errs
}

// GetConfig returns a copy of the current configuration.
func (c *Controller) GetConfig() pconfig.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// IsEnabled reports whether PIS should run at all: lambda and samples must
// both be strictly positive.
func (c *Controller) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Enabled()
}

// GetLastSamplingMetrics returns a snapshot of the most recently completed
// (or in-flight) sampling session's metrics.
func (c *Controller) GetLastSamplingMetrics() perfmon.SamplingMetrics {
	return c.monitor.GetMetrics()
}

// ExportPerformanceMetrics appends the last session's metrics to filename.
func (c *Controller) ExportPerformanceMetrics(filename string) error {
	return c.monitor.ExportMetrics(filename)
}

// SelectMove runs a full sampling session against position and returns the
// selected move, or chess.NoMove when PIS is disabled or the session fails.
// limits is accepted and preserved for forward compatibility but is not
// enforced.
func (c *Controller) SelectMove(position *chess.Position, limits SearchLimits) chess.Move {
	cfg := c.GetConfig()
	if !cfg.Enabled() {
		return chess.NoMove
	}
	if !cfg.IsValid() {
		c.logger.LogError("invalid configuration: lambda or samples out of range")
		return chess.NoMove
	}

	legalMoves := position.GenerateLegalMoves()
	if !c.validateSampleCountIntegrity(cfg.Samples, legalMoves.Len()) {
		c.logger.LogError("integrity gate failed: invalid sample count or no legal moves")
		return chess.NoMove
	}

	c.logger.StartSession(position.ToFEN())
	defer c.logger.EndSession()

	c.monitor.StartSampling(cfg.Samples)
	c.logger.LogSamplingStart(cfg.Samples, legalMoves.Len(), cfg.Lambda, cfg.SamplingMode.String(), rewardModeForLog(cfg), position.ToFEN())

	var results []SampleResult
	if cfg.SamplingMode == pconfig.SamplingQuantumLimit {
		results = c.performQuantumLimitSampling(position, legalMoves, cfg)
	} else {
		results = c.performRootNodeSampling(position, legalMoves, cfg)
	}

	c.monitor.EndSampling()
	metrics := c.monitor.GetMetrics()
	c.logger.LogSamplingComplete(metrics.ActualSamples, metrics.TotalTimeMs, metrics.NeuralNetEvaluations, metrics.CachedEvaluations, metrics.HeuristicEvaluations)

	if len(results) == 0 {
		return chess.NoMove
	}

	return c.selectMoveFromSampling(results)
}

// SelectMoveFromScores is the score-in, move-out overload used when the
// caller already has per-move scores (e.g. from a search tree). It applies
// softmax to scores and always selects via a weighted random draw according
// to the resulting distribution.
func (c *Controller) SelectMoveFromScores(legalMoves []chess.Move, scores []float64, position *chess.Position) chess.Move {
	cfg := c.GetConfig()
	if !cfg.Enabled() || !cfg.IsValid() || len(legalMoves) == 0 || len(legalMoves) != len(scores) {
		return chess.NoMove
	}

	probs := softmax.Calculate(scores, cfg.Lambda)
	c.logger.LogSoftmaxCalculation(scores, cfg.Lambda, probs)
	if len(probs) != len(legalMoves) {
		return chess.NoMove
	}

	idx := weightedRandomIndex(probs)
	selected := legalMoves[idx]

	c.logPairedSelection(legalMoves, probs, idx, scores[idx])
	return selected
}

func (c *Controller) logPairedSelection(moves []chess.Move, probs []float64, idx int, score float64) {
	all := make([]debuglog.MoveProbability, len(moves))
	for i, m := range moves {
		all[i] = debuglog.MoveProbability{Move: m.String(), Probability: probs[i]}
	}
	c.logger.LogMoveSelection(moves[idx].String(), probs[idx], score, all)
}

// validateSampleCountIntegrity runs the integrity gate: samples <= 0 or no
// legal moves is a hard failure. Exceeding the per-move or total sample
// warning thresholds is allowed but logged.
func (c *Controller) validateSampleCountIntegrity(samples, legalMoveCount int) bool {
	if samples <= 0 || legalMoveCount == 0 {
		return false
	}
	if samples > perMoveSampleWarnThreshold {
		c.logger.LogWarning("per-move sample count exceeds 10000")
	}
	if samples*legalMoveCount > totalSampleWarnThreshold {
		c.logger.LogWarning("total sample count exceeds 100000")
	}
	return true
}

func (c *Controller) verifyBackendAvailability() backend.Backend {
	c.mu.Lock()
	be := c.backend
	c.mu.Unlock()
	if be == nil || !be.Available() {
		return nil
	}
	return be
}

// performRootNodeSampling is competitive mode's sampling loop: for each
// legal move, draw cfg.Samples evaluations from EvaluateMove, discard
// non-finite draws, and average the remainder into that move's score.
func (c *Controller) performRootNodeSampling(position *chess.Position, legalMoves *chess.MoveList, cfg pconfig.Config) []SampleResult {
	n := legalMoves.Len()
	results := make([]SampleResult, 0, n)
	totalValid := 0

	for i := 0; i < n; i++ {
		move := legalMoves.Get(i)
		sum := 0.0
		validSamples := 0
		attemptedSamples := 0

		for s := 0; s < cfg.Samples; s++ {
			attemptedSamples++
			score, method, evalMs := c.evaluateMove(position, move)
			c.monitor.RecordSample(method, evalMs)
			c.logger.LogSampleEvaluation(move.String(), s, score, method, evalMs)

			if !isFinite(score) {
				continue
			}
			validSamples++
			sum += score
		}

		if validSamples < attemptedSamples {
			c.logger.LogWarning(fmt.Sprintf("sample count mismatch for move %s: requested %d, got %d", move.String(), attemptedSamples, validSamples))
		}
		if validSamples == 0 {
			continue
		}

		totalValid += validSamples
		results = append(results, SampleResult{Move: move, Score: sum / float64(validSamples)})
	}

	if totalValid != cfg.Samples*n {
		c.logger.LogWarning(fmt.Sprintf("total sample count mismatch: requested %d, got %d", cfg.Samples*n, totalValid))
	}

	c.applySoftmax(results, cfg.Lambda)
	return results
}

// performQuantumLimitSampling mirrors performRootNodeSampling's structure
// but scores each draw via the configured reward mode instead of the raw
// position evaluation.
func (c *Controller) performQuantumLimitSampling(position *chess.Position, legalMoves *chess.MoveList, cfg pconfig.Config) []SampleResult {
	n := legalMoves.Len()
	results := make([]SampleResult, 0, n)
	totalValid := 0

	for i := 0; i < n; i++ {
		move := legalMoves.Get(i)
		sum := 0.0
		validSamples := 0
		attemptedSamples := 0

		for s := 0; s < cfg.Samples; s++ {
			attemptedSamples++
			score, method, evalMs := c.evaluateReward(position, move, cfg.RewardMode)
			c.monitor.RecordSample(method, evalMs)
			c.logger.LogSampleEvaluation(move.String(), s, score, method, evalMs)

			if !isFinite(score) {
				continue
			}
			validSamples++
			sum += score
		}

		if validSamples < attemptedSamples {
			c.logger.LogWarning(fmt.Sprintf("sample count mismatch for move %s: requested %d, got %d", move.String(), attemptedSamples, validSamples))
		}
		if validSamples == 0 {
			continue
		}

		totalValid += validSamples
		results = append(results, SampleResult{Move: move, Score: sum / float64(validSamples)})
	}

	if totalValid != cfg.Samples*n {
		c.logger.LogWarning(fmt.Sprintf("total sample count mismatch: requested %d, got %d", cfg.Samples*n, totalValid))
	}

	c.applySoftmax(results, cfg.Lambda)
	return results
}

func (c *Controller) applySoftmax(results []SampleResult, lambda float64) {
	if len(results) == 0 {
		return
	}
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	probs := softmax.Calculate(scores, lambda)
	c.logger.LogSoftmaxCalculation(scores, lambda, probs)
	for i := range results {
		results[i].Probability = probs[i]
	}
}

// selectMoveFromSampling implements both modes' primary selection rule:
// deterministic argmax over the softmax probabilities.
func (c *Controller) selectMoveFromSampling(results []SampleResult) chess.Move {
	best := results[0]
	for _, r := range results[1:] {
		if r.Probability > best.Probability {
			best = r
		}
	}

	all := make([]debuglog.MoveProbability, len(results))
	for i, r := range results {
		all[i] = debuglog.MoveProbability{Move: r.Move.String(), Probability: r.Probability}
	}
	c.logger.LogMoveSelection(best.Move.String(), best.Probability, best.Score, all)

	return best.Move
}

// evaluateMove implements §4.5's EvaluateMove pipeline: cached backend
// evaluation, then fresh backend evaluation, then the heuristic fallback.
// Returns the score, the evaluation-method tag, and elapsed time in ms.
func (c *Controller) evaluateMove(position *chess.Position, move chess.Move) (float64, string, float64) {
	start := time.Now()
	be := c.verifyBackendAvailability()

	if be != nil {
		successor := position.Copy()
		successor.MakeMove(move)

		if q, hit, ok := be.EvaluateCached(successor); ok && hit {
			elapsed := msSince(start)
			c.logger.LogNeuralNetworkCall(true, elapsed, "")
			return q, "cached", elapsed
		}
		if q, ok := be.EvaluateFresh(successor); ok {
			elapsed := msSince(start)
			c.logger.LogNeuralNetworkCall(false, elapsed, "")
			return q, "neural_network", elapsed
		}
	}

	score := heuristicScore(position, move)
	return score, "heuristic", msSince(start)
}

// evaluateReward computes one quantum-limit draw's score according to mode.
func (c *Controller) evaluateReward(position *chess.Position, move chess.Move, mode pconfig.RewardMode) (float64, string, float64) {
	switch mode {
	case pconfig.RewardPolicy:
		p, method, elapsed := c.evaluateMovePolicy(position, move)
		return p, method, elapsed
	case pconfig.RewardCpScore:
		return c.evaluateMove(position, move)
	default: // hybrid
		p, _, _ := c.evaluateMovePolicy(position, move)
		q, method, elapsed := c.evaluateMove(position, move)
		return p * q, method, elapsed
	}
}

// evaluateMovePolicy implements §4.5's EvaluateMovePolicy: the policy
// probability of move under the backend's distribution over position's
// legal moves, or 1/|legal_moves| on miss or backend failure.
func (c *Controller) evaluateMovePolicy(position *chess.Position, move chess.Move) (float64, string, float64) {
	start := time.Now()
	be := c.verifyBackendAvailability()

	if be != nil {
		if dist, ok := be.Policy(position); ok {
			if p, found := dist[move]; found {
				return p, "neural_network", msSince(start)
			}
		}
	}

	legal := position.GenerateLegalMoves().Len()
	if legal == 0 {
		return 0, "heuristic", msSince(start)
	}
	return 1.0 / float64(legal), "heuristic", msSince(start)
}

// heuristicScore is the capture-and-center scoring used when no neural
// backend is available: +1.0 for a capture, +0.5 for landing on a central
// square, plus Gaussian noise with mean 0 and standard deviation 0.1.
func heuristicScore(position *chess.Position, move chess.Move) float64 {
	score := 0.0
	if move.IsCapture(position) {
		score += 1.0
	}
	if isCentralSquare(move.To()) {
		score += 0.5
	}
	score += rand.NormFloat64() * 0.1
	return score
}

func isCentralSquare(sq chess.Square) bool {
	return sq == chess.D4 || sq == chess.E4 || sq == chess.D5 || sq == chess.E5
}

func rewardModeForLog(cfg pconfig.Config) string {
	if cfg.SamplingMode == pconfig.SamplingQuantumLimit {
		return cfg.RewardMode.String()
	}
	return ""
}

func weightedRandomIndex(probs []float64) int {
	r := rand.Float64()
	cumulative := 0.0
	for i, p := range probs {
		cumulative += p
		if r <= cumulative {
			return i
		}
	}
	return len(probs) - 1
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
