// Package adapter implements the EngineAdapter: the glue that wires the
// Controller into an engine's move-request path, publishing a thinking-info
// record and a best-move record for a successful selection.
package adapter

import (
	"github.com/hailam/pathintegral/internal/chess"
	"github.com/hailam/pathintegral/internal/sampler"
)

// ThinkingInfo is the "info" record published ahead of a successful
// selection.
type ThinkingInfo struct {
	Depth    int
	SelDepth int
	TimeMs   float64
	Nodes    int
	Nps      float64
	PV       []chess.Move
	MultiPV  int
}

// BestMove is the final move record published after ThinkingInfo.
type BestMove struct {
	Move   chess.Move
	Player int // +1 for white to move, -1 for black to move
}

// Sink receives the two publications an adapter emits for a successful
// selection.
type Sink interface {
	PublishInfo(ThinkingInfo)
	PublishBestMove(BestMove)
}

// Adapter owns a Controller and translates move requests into the two
// wire-facing publications the engine shell expects.
type Adapter struct {
	controller *sampler.Controller
	sink       Sink
}

// New returns an Adapter wired to controller and sink.
func New(controller *sampler.Controller, sink Sink) *Adapter {
	return &Adapter{controller: controller, sink: sink}
}

// HandleMoveRequest calls SelectMove if the Controller is enabled and, on a
// non-null result, publishes a thinking-info record followed by a
// best-move record. It reports whether PIS produced a move; false means
// the caller should fall back to its default search.
func (a *Adapter) HandleMoveRequest(position *chess.Position, limits sampler.SearchLimits) bool {
	if !a.controller.IsEnabled() {
		return false
	}

	move := a.controller.SelectMove(position, limits)
	if move == chess.NoMove {
		return false
	}

	metrics := a.controller.GetLastSamplingMetrics()

	a.sink.PublishInfo(ThinkingInfo{
		Depth:    1,
		SelDepth: 1,
		TimeMs:   metrics.TotalTimeMs,
		Nodes:    metrics.ActualSamples,
		Nps:      metrics.SamplesPerSecond,
		PV:       []chess.Move{move},
		MultiPV:  1,
	})

	player := 1
	if position.SideToMove == chess.Black {
		player = -1
	}
	a.sink.PublishBestMove(BestMove{Move: move, Player: player})

	return true
}
