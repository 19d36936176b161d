package sampler

import (
	"testing"

	"github.com/hailam/pathintegral/internal/backend"
	"github.com/hailam/pathintegral/internal/chess"
	"github.com/hailam/pathintegral/internal/pconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestController(cfg pconfig.Config) *Controller {
	return New(cfg, backend.Unavailable{})
}

func TestSelectMoveCompetitiveHeuristicPath(t *testing.T) {
	pos, err := chess.ParseFEN(startFEN)
	require.NoError(t, err)

	cfg := pconfig.DefaultConfig()
	cfg.Samples = 5
	c := newTestController(cfg)

	move := c.SelectMove(pos, SearchLimits{})
	require.NotEqual(t, chess.NoMove, move)

	legal := pos.GenerateLegalMoves()
	assert.True(t, legal.Contains(move))

	metrics := c.GetLastSamplingMetrics()
	assert.Equal(t, 5, metrics.RequestedSamples)
	assert.Equal(t, metrics.ActualSamples, metrics.NeuralNetEvaluations+metrics.CachedEvaluations+metrics.HeuristicEvaluations)
	assert.True(t, metrics.TotalTimeMs >= 0)
}

func TestSelectMoveQuantumLimitHybrid(t *testing.T) {
	fen := "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/3P1N2/PPP2PPP/RNBQK2R w KQkq - 0 1"
	pos, err := chess.ParseFEN(fen)
	require.NoError(t, err)

	cfg := pconfig.DefaultConfig()
	cfg.Samples = 3
	cfg.SamplingMode = pconfig.SamplingQuantumLimit
	cfg.RewardMode = pconfig.RewardHybrid
	c := newTestController(cfg)

	move := c.SelectMove(pos, SearchLimits{})
	require.NotEqual(t, chess.NoMove, move)
	assert.True(t, pos.GenerateLegalMoves().Contains(move))
}

func TestSelectMoveExtremeLambda(t *testing.T) {
	pos, err := chess.ParseFEN(startFEN)
	require.NoError(t, err)

	cfg := pconfig.DefaultConfig()
	cfg.Lambda = 10.0
	cfg.Samples = 1
	c := newTestController(cfg)

	move := c.SelectMove(pos, SearchLimits{})
	require.NotEqual(t, chess.NoMove, move)
}

func TestIntegrityGateRejectsZeroSamples(t *testing.T) {
	pos, err := chess.ParseFEN(startFEN)
	require.NoError(t, err)

	cfg := pconfig.DefaultConfig()
	cfg.Samples = 0
	c := newTestController(cfg)

	move := c.SelectMove(pos, SearchLimits{})
	assert.Equal(t, chess.NoMove, move)
}

func TestDisabledConfigReturnsNull(t *testing.T) {
	pos, err := chess.ParseFEN(startFEN)
	require.NoError(t, err)

	cfg := pconfig.DefaultConfig()
	cfg.Lambda = 0
	c := newTestController(cfg)

	move := c.SelectMove(pos, SearchLimits{})
	assert.Equal(t, chess.NoMove, move)
}

func TestSelectMoveFromScoresWeightedRandom(t *testing.T) {
	pos, err := chess.ParseFEN(startFEN)
	require.NoError(t, err)

	legal := pos.GenerateLegalMoves()
	moves := legal.Slice()
	scores := make([]float64, len(moves))
	for i := range scores {
		scores[i] = float64(i)
	}

	cfg := pconfig.DefaultConfig()
	c := newTestController(cfg)

	move := c.SelectMoveFromScores(moves, scores, pos)
	assert.True(t, legal.Contains(move))
}

func TestEmptyLegalMovesReturnsNullWithoutCrash(t *testing.T) {
	// A position with no legal moves (checkmated) still runs the integrity
	// gate cleanly.
	pos, err := chess.ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)

	cfg := pconfig.DefaultConfig()
	c := newTestController(cfg)

	move := c.SelectMove(pos, SearchLimits{})
	if pos.GenerateLegalMoves().Len() == 0 {
		assert.Equal(t, chess.NoMove, move)
	}
}
