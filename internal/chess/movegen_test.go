package chess

import "testing"

// perftNodes counts leaf positions at depth, the standard move-generation
// correctness oracle: any bug in generation, make/unmake, or legality
// filtering shows up as a wrong node count at some depth.
func perftNodes(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}
	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return int64(moves.Len())
	}
	var nodes int64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := p.MakeMove(m)
		nodes += perftNodes(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

func TestPerft(t *testing.T) {
	cases := []struct {
		name  string
		fen   string
		depth int
		nodes int64
	}{
		{"starting position d1", StartFEN, 1, 20},
		{"starting position d2", StartFEN, 2, 400},
		{"starting position d3", StartFEN, 3, 8902},
		{"starting position d4", StartFEN, 4, 197281},
		{"kiwipete d1", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 1, 48},
		{"kiwipete d2", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 2039},
		{"kiwipete d3", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 3, 97862},
		{"en passant tactics d1", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 1, 14},
		{"en passant tactics d2", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 2, 191},
		{"en passant tactics d3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
		{"en passant tactics d4", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 4, 43238},
		{"en passant horizontal pin d1", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", 1, 6},
		{"en passant horizontal pin d2", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", 2, 94},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
			}
			if got := perftNodes(pos, tc.depth); got != tc.nodes {
				t.Errorf("perft(depth=%d) = %d, want %d", tc.depth, got, tc.nodes)
			}
		})
	}
}

func TestEnPassantPinIsRejected(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); m.IsEnPassant() {
			t.Errorf("en passant move %s should be illegal: it exposes the king to the h4 rook", m)
		}
	}
}

func TestCastlingRequiresClearAndUnattackedPath(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	moves := pos.GenerateLegalMoves()
	var sawKingSide, sawQueenSide bool
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if !m.IsCastling() {
			continue
		}
		switch m.To() {
		case G1:
			sawKingSide = true
		case C1:
			sawQueenSide = true
		}
	}
	if !sawKingSide || !sawQueenSide {
		t.Errorf("expected both castling moves available, kingSide=%v queenSide=%v", sawKingSide, sawQueenSide)
	}

	attacked, err := ParseFEN("r3k2r/6q1/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	moves = attacked.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); m.IsCastling() && m.To() == G1 {
			t.Errorf("kingside castling should be illegal: g1 is covered by the black queen on g7")
		}
	}
}
