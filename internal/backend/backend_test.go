package backend

import (
	"testing"

	"github.com/hailam/pathintegral/internal/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestUnavailableBackend(t *testing.T) {
	var b Unavailable
	assert.False(t, b.Available())
	_, hit, ok := b.EvaluateCached(nil)
	assert.False(t, hit)
	assert.False(t, ok)
}

func TestCachedBackendMissThenFresh(t *testing.T) {
	b := NewCachedBackend(nil)
	pos, err := chess.ParseFEN(startFEN)
	require.NoError(t, err)

	assert.True(t, b.Available())

	_, hit, ok := b.EvaluateCached(pos)
	assert.True(t, ok)
	assert.False(t, hit)

	q, ok := b.EvaluateFresh(pos)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, q, -1.0)
	assert.LessOrEqual(t, q, 1.0)
}

func TestPolicyCoversAllLegalMoves(t *testing.T) {
	b := NewCachedBackend(nil)
	pos, err := chess.ParseFEN(startFEN)
	require.NoError(t, err)

	policy, ok := b.Policy(pos)
	require.True(t, ok)

	legal := pos.GenerateLegalMoves()
	require.Equal(t, legal.Len(), len(policy))

	sum := 0.0
	for _, p := range policy {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
