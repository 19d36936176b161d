package chess

import "fmt"

// CastlingRights is a 4-bit set of which castling moves remain available.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// Position is a complete board state: piece placement, side to move,
// castling/en passant/clock state, and the cached fields (hash, king
// squares, checkers) move generation depends on.
type Position struct {
	Pieces [2][6]Bitboard

	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	Hash uint64

	KingSquare [2]Square
	Checkers   Bitboard
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy returns an independent deep copy (Position has no pointer fields,
// so a value copy suffices).
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// PieceAt returns the piece occupying sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := Black
	if p.Occupied[White]&bb != 0 {
		c = White
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

func (p *Position) IsEmpty(sq Square) bool { return p.AllOccupied&SquareBB(sq) == 0 }

func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c, pt, bb := piece.Color(), piece.Type(), SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}
	c, pt, bb := piece.Color(), piece.Type(), SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	return piece
}

func (p *Position) movePiece(from, to Square) {
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return
	}
	c, pt := piece.Color(), piece.Type()
	moveBB := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= moveBB
	p.Occupied[c] ^= moveBB
	p.AllOccupied ^= moveBB
	if pt == King {
		p.KingSquare[c] = to
	}
}

func (p *Position) updateOccupied() {
	p.Occupied[White] = 0
	p.Occupied[Black] = 0
	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}
	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
}

// String renders the board as ASCII plus the trailing state fields, for
// "d" in the UCI shell and for debugging.
func (p *Position) String() string {
	s := "\n"
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h\n\n"
	s += fmt.Sprintf("Side to move: %s\n", p.SideToMove)
	s += fmt.Sprintf("Castling: %s\n", p.CastlingRights)
	s += fmt.Sprintf("En passant: %s\n", p.EnPassant)
	s += fmt.Sprintf("Half-move clock: %d\n", p.HalfMoveClock)
	s += fmt.Sprintf("Full move: %d\n", p.FullMoveNumber)
	s += fmt.Sprintf("Hash: %016x\n", p.Hash)
	return s
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.Checkers != 0 }

// Material returns the white-minus-black material balance in centipawns.
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += p.Pieces[White][pt].PopCount() * PieceValue[pt]
		score -= p.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}
	return score
}

// AttackersByColor returns every piece of color c (in occupied) that
// attacks sq.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	var attackers Bitboard
	attackers |= KnightAttacks(sq) & p.Pieces[c][Knight]
	attackers |= KingAttacks(sq) & p.Pieces[c][King]
	attackers |= PawnAttacks(sq, c.Other()) & p.Pieces[c][Pawn]
	attackers |= BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])
	attackers |= RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen])
	return attackers
}

// IsSquareAttacked reports whether sq is attacked by any piece of color c.
func (p *Position) IsSquareAttacked(sq Square, c Color) bool {
	return p.AttackersByColor(sq, c, p.AllOccupied) != 0
}

// UpdateCheckers recomputes Checkers for the current side to move.
func (p *Position) UpdateCheckers() {
	us := p.SideToMove
	them := us.Other()
	p.Checkers = p.AttackersByColor(p.KingSquare[us], them, p.AllOccupied)
}

// ComputePinned returns, via Stockfish-style x-ray attack detection, the
// bitboard of the side-to-move's own pieces pinned against their king.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	var pinned Bitboard

	snipers := RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	for snipers != 0 {
		sniper := snipers.PopLSB()
		blockers := Between(sniper, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	snipers = BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])
	for snipers != 0 {
		sniper := snipers.PopLSB()
		blockers := Between(sniper, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	return pinned
}

// MakeNullMove passes the turn without moving a piece, for the backend's
// static mobility probe (it never needs to unmake — the probe runs
// against a disposable Copy()).
func (p *Position) MakeNullMove() {
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove
	p.UpdateCheckers()
}

// HasNonPawnMaterial reports whether the side to move has any piece other
// than pawns and king.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}
