package shell

import (
	"strings"
	"testing"

	"github.com/hailam/pathintegral/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLines(t *testing.T, s *Shell, lines ...string) string {
	t.Helper()
	var out strings.Builder
	s.out = &out
	// handlePosition/handleGo/etc. are exercised directly since Run reads
	// stdin, which isn't convenient to fake line by line here.
	for _, line := range lines {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "uci":
			s.handleUCI()
		case "isready":
			out.WriteString("readyok\n")
		case "ucinewgame":
			s.handleNewGame()
		case "position":
			s.handlePosition(parts[1:])
		case "go":
			s.handleGo(parts[1:])
		case "setoption":
			s.handleSetOption(parts[1:])
		case "d":
			out.WriteString(s.position.String() + "\n")
		}
	}
	return out.String()
}

func TestHandleUCIAdvertisesOptions(t *testing.T) {
	s := New(backend.Unavailable{})
	out := runLines(t, s, "uci")
	assert.Contains(t, out, "uciok")
	assert.Contains(t, out, "PathIntegralLambda")
}

func TestHandlePositionStartposWithMoves(t *testing.T) {
	s := New(backend.Unavailable{})
	runLines(t, s, "position startpos moves e2e4 e7e5")
	require.Len(t, s.positionHashes, 3)
}

func TestHandleGoProducesBestMove(t *testing.T) {
	s := New(backend.Unavailable{})
	out := runLines(t, s, "position startpos", "go depth 1")
	assert.Contains(t, out, "bestmove")
}

func TestHandleSetOptionUpdatesLambdaWithoutResettingSamples(t *testing.T) {
	s := New(backend.Unavailable{})
	runLines(t, s, "setoption name PathIntegralSamples value 7")
	runLines(t, s, "setoption name PathIntegralLambda value 0.5")

	cfg := s.controller.GetConfig()
	assert.Equal(t, 7, cfg.Samples)
	assert.InDelta(t, 0.5, cfg.Lambda, 1e-9)
}
