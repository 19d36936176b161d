// Package backend defines the evaluation-backend collaborator contract the
// sampler consumes: availability checks, cached-vs-fresh position
// evaluation, and a policy distribution over legal moves. The actual neural
// network is out of this module's scope; CachedBackend provides a
// deterministic material+mobility stand-in wrapped around a real
// Zobrist-keyed cache so the cache-hit/miss distinction the Controller
// depends on is genuinely exercised.
package backend

import (
	"math"

	"github.com/hailam/pathintegral/internal/cache"
	"github.com/hailam/pathintegral/internal/chess"
)

// Backend is the read-only, externally owned evaluation handle the
// Controller is given.
type Backend interface {
	// Available reports whether the backend can currently serve
	// evaluations.
	Available() bool

	// EvaluateCached returns the Q value for pos from the cache if present,
	// without computing a fresh evaluation. ok is false if the backend is
	// unavailable; hit is false on a cache miss.
	EvaluateCached(pos *chess.Position) (q float64, hit bool, ok bool)

	// EvaluateFresh computes a Q value for pos, populating the cache as a
	// side effect when the backend maintains one.
	EvaluateFresh(pos *chess.Position) (q float64, ok bool)

	// Policy returns a probability distribution over pos's legal moves.
	Policy(pos *chess.Position) (map[chess.Move]float64, bool)
}

// Unavailable is a zero-value Backend whose Available always returns false,
// used to exercise the integrity-gate and heuristic-fallback paths.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }
func (Unavailable) EvaluateCached(*chess.Position) (float64, bool, bool) {
	return 0, false, false
}
func (Unavailable) EvaluateFresh(*chess.Position) (float64, bool) { return 0, false }
func (Unavailable) Policy(*chess.Position) (map[chess.Move]float64, bool) {
	return nil, false
}

// CachedBackend wraps a deterministic evaluation function (the stand-in
// "neural net") with a Zobrist-hash-keyed cache.
type CachedBackend struct {
	cache *cache.EvalCache
}

// NewCachedBackend returns a CachedBackend backed by c. c may be nil, in
// which case evaluations are always computed fresh.
func NewCachedBackend(c *cache.EvalCache) *CachedBackend {
	return &CachedBackend{cache: c}
}

func (b *CachedBackend) Available() bool { return true }

// EvaluateCached reports a cache hit only when the entry already exists;
// it never computes or stores a fresh evaluation.
func (b *CachedBackend) EvaluateCached(pos *chess.Position) (float64, bool, bool) {
	if b.cache == nil {
		return 0, false, true
	}
	q, hit := b.cache.Get(pos.Hash)
	return q, hit, true
}

// EvaluateFresh computes a fresh Q value and stores it in the cache.
func (b *CachedBackend) EvaluateFresh(pos *chess.Position) (float64, bool) {
	q := evaluateMaterialMobility(pos)
	if b.cache != nil {
		_ = b.cache.Put(pos.Hash, q)
	}
	return q, true
}

// Policy returns a softmax-flavored distribution over legal moves driven by
// the same material+mobility evaluation of each resulting position, giving
// captures and central advances higher weight without reimplementing NNUE
// inference.
func (b *CachedBackend) Policy(pos *chess.Position) (map[chess.Move]float64, bool) {
	legal := pos.GenerateLegalMoves()
	n := legal.Len()
	if n == 0 {
		return map[chess.Move]float64{}, true
	}

	scores := make([]float64, n)
	moves := make([]chess.Move, n)
	for i := 0; i < n; i++ {
		m := legal.Get(i)
		moves[i] = m

		successor := pos.Copy()
		successor.MakeMove(m)
		scores[i] = evaluateMaterialMobility(successor)
		if pos.SideToMove == chess.Black {
			scores[i] = -scores[i]
		}
	}

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	sum := 0.0
	weights := make([]float64, n)
	for i, s := range scores {
		w := math.Exp(s - maxScore)
		weights[i] = w
		sum += w
	}

	out := make(map[chess.Move]float64, n)
	for i, m := range moves {
		out[m] = weights[i] / sum
	}
	return out, true
}

// evaluateMaterialMobility is the deterministic stand-in for a value head:
// material balance plus legal-move-count mobility, scaled into roughly
// [-1, 1] from white's perspective, matching the cache convention backend
// callers rely on.
func evaluateMaterialMobility(pos *chess.Position) float64 {
	material := float64(pos.Material())

	mobility := pos.GenerateLegalMoves().Len()
	successor := pos.Copy()
	successor.MakeNullMove()
	opponentMobility := successor.GenerateLegalMoves().Len()

	mobilityDiff := float64(mobility - opponentMobility)
	if pos.SideToMove == chess.Black {
		mobilityDiff = -mobilityDiff
	}

	score := material/2400.0 + mobilityDiff/200.0
	return clampUnit(score)
}

func clampUnit(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}
