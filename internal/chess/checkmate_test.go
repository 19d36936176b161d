package chess

import "testing"

func TestCheckmateDetection(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want bool
	}{
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true},
		{"king can capture the checking rook", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", false},
		{"king boxed in by the enemy king and pawns, mated by the g-pawn's check", "8/8/8/8/8/7k/6pp/7K w - - 0 1", true},
		{"fool's mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
			}
			if got := pos.IsCheckmate(); got != tc.want {
				t.Errorf("IsCheckmate() = %v, want %v (legal moves: %d, inCheck: %v)",
					got, tc.want, pos.GenerateLegalMoves().Len(), pos.InCheck())
			}
		})
	}
}

func TestStalemateDetection(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want bool
	}{
		{"king boxed in by the enemy king and pawn, no checks", "8/8/8/8/8/5k2/5p2/5K2 w - - 0 1", true},
		{"starting position has moves", StartFEN, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
			}
			if got := pos.IsStalemate(); got != tc.want {
				t.Errorf("IsStalemate() = %v, want %v (legal moves: %d, inCheck: %v)",
					got, tc.want, pos.GenerateLegalMoves().Len(), pos.InCheck())
			}
		})
	}
}
