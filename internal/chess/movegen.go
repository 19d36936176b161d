package chess

// pieceGenerator names the data a non-pawn, non-king piece's pseudo-legal
// move generation needs: which squares hold it, and how to compute its
// attack set given an origin square and the current occupancy. Knight,
// bishop, rook, and queen generation differ only in these two things, so
// one loop drives all four instead of four copies of the same loop body.
type pieceGenerator struct {
	pieceType PieceType
	attacksOf func(from Square, occupied Bitboard) Bitboard
}

var slidingAndLeaperGenerators = [4]pieceGenerator{
	{Knight, func(from Square, _ Bitboard) Bitboard { return KnightAttacks(from) }},
	{Bishop, func(from Square, occ Bitboard) Bitboard { return BishopAttacks(from, occ) }},
	{Rook, func(from Square, occ Bitboard) Bitboard { return RookAttacks(from, occ) }},
	{Queen, func(from Square, occ Bitboard) Bitboard { return QueenAttacks(from, occ) }},
}

// GenerateLegalMoves generates every legal move for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generatePseudoLegalMoves(ml)
	return p.filterLegalMoves(ml)
}

// generatePseudoLegalMoves generates every pseudo-legal move: moves that
// obey each piece's movement rules but may leave the mover's own king in
// check.
func (p *Position) generatePseudoLegalMoves(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied

	p.generatePawnMoves(ml, us, p.Occupied[us.Other()], occupied)

	for _, g := range slidingAndLeaperGenerators {
		pieces := p.Pieces[us][g.pieceType]
		for pieces != 0 {
			from := pieces.PopLSB()
			targets := g.attacksOf(from, occupied) &^ p.Occupied[us]
			for targets != 0 {
				ml.Add(NewMove(from, targets.PopLSB()))
			}
		}
	}

	p.generateKingMoves(ml, us)
	p.generateCastlingMoves(ml, us)
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR, promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL, attackR = pawns.NorthWest()&enemies, pawns.NorthEast()&enemies
		promotionRank, pushDir = Rank8, 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL, attackR = pawns.SouthWest()&enemies, pawns.SouthEast()&enemies
		promotionRank, pushDir = Rank1, -8
	}

	addShifted := func(targets Bitboard, fileShift int, promote bool) {
		quiet := targets &^ promotionRank
		for quiet != 0 {
			to := quiet.PopLSB()
			ml.Add(NewMove(Square(int(to)-fileShift), to))
		}
		if !promote {
			return
		}
		promo := targets & promotionRank
		for promo != 0 {
			to := promo.PopLSB()
			addPromotions(ml, Square(int(to)-fileShift), to)
		}
	}

	addShifted(push1, pushDir, true)
	for push2 != 0 {
		to := push2.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*pushDir), to))
	}
	addShifted(attackL, pushDir-1, true)
	addShifted(attackR, pushDir+1, true)

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var attackers Bitboard
		if us == White {
			attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		for attackers != 0 {
			ml.Add(NewEnPassant(attackers.PopLSB(), p.EnPassant))
		}
	}
}

func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

func (p *Position) generateKingMoves(ml *MoveList, us Color) {
	kingBB := p.Pieces[us][King]
	if kingBB == 0 {
		return
	}
	from := kingBB.LSB()
	targets := KingAttacks(from) &^ p.Occupied[us]
	for targets != 0 {
		ml.Add(NewMove(from, targets.PopLSB()))
	}
}

type castlingPath struct {
	right           CastlingRights
	mustBeEmpty     Bitboard
	mustNotBeAttacked [3]Square
	kingFrom, kingTo Square
}

func (p *Position) castlingPaths(us Color) [2]castlingPath {
	if us == White {
		return [2]castlingPath{
			{WhiteKingSideCastle, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}, E1, G1},
			{WhiteQueenSideCastle, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}, E1, C1},
		}
	}
	return [2]castlingPath{
		{BlackKingSideCastle, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}, E8, G8},
		{BlackQueenSideCastle, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}, E8, C8},
	}
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	for _, path := range p.castlingPaths(us) {
		if p.CastlingRights&path.right == 0 {
			continue
		}
		if p.AllOccupied&path.mustBeEmpty != 0 {
			continue
		}
		attacked := false
		for _, sq := range path.mustNotBeAttacked {
			if p.IsSquareAttacked(sq, them) {
				attacked = true
				break
			}
		}
		if !attacked {
			ml.Add(NewCastling(path.kingFrom, path.kingTo))
		}
	}
}

// filterLegalMoves applies the Stockfish optimization: a move is legal by
// construction unless it's a king move, an en passant capture, or moves a
// pinned piece off its pin ray, or the side to move is in check (in which
// case every move must be checked).
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()
	pinned := p.ComputePinned()
	ksq := p.KingSquare[p.SideToMove]
	inCheck := p.Checkers != 0

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		from := m.From()

		if inCheck {
			if p.IsLegalFast(m, pinned) {
				result.Add(m)
			}
			continue
		}

		if from != ksq && !m.IsEnPassant() && pinned&SquareBB(from) == 0 {
			result.Add(m)
			continue
		}

		if p.IsLegalFast(m, pinned) {
			result.Add(m)
		}
	}

	return result
}

// IsLegalFast decides legality without make/unmake for the common cases;
// it falls back to isLegalEnPassant (make/unmake) only for en passant,
// since removing two pawns can expose a horizontal attack the pin
// bitboard doesn't model.
func (p *Position) IsLegalFast(m Move, pinned Bitboard) bool {
	from, to := m.From(), m.To()
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	checkers := p.Checkers

	if from == ksq {
		if m.IsCastling() {
			return checkers == 0
		}
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(to, them, occ) == 0
	}

	if checkers != 0 {
		if checkers.PopCount() > 1 {
			return false
		}
		checker := checkers.LSB()
		validTargets := SquareBB(checker) | Between(checker, ksq)

		if m.IsEnPassant() {
			capturedSq := to - 8
			if us == Black {
				capturedSq = to + 8
			}
			if capturedSq == checker {
				return p.isLegalEnPassant(m)
			}
			return false
		}

		if validTargets&SquareBB(to) == 0 {
			return false
		}
		if pinned&SquareBB(from) != 0 && !Aligned(from, to, ksq) {
			return false
		}
		return true
	}

	if m.IsEnPassant() {
		return p.isLegalEnPassant(m)
	}
	if pinned&SquareBB(from) == 0 {
		return true
	}
	return Aligned(from, to, ksq)
}

func (p *Position) isLegalEnPassant(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	undo := p.MakeMove(m)
	if p.SideToMove == us {
		// MakeMove bailed out before touching the board.
		return false
	}
	attacked := p.IsSquareAttacked(ksq, them)
	p.UnmakeMove(m, undo)
	return !attacked
}

// MakeMove applies m and returns the state needed to undo it. undo.Valid
// is false in two cases: when the from-square holds no piece of the side
// to move (nothing is changed), and when the applied move leaves the
// mover's king attacked (the move has been applied, and the caller must
// still call UnmakeMove to restore the position).
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
		KingSquare:     p.KingSquare,
		Pieces:         p.Pieces,
		Occupied:       p.Occupied,
		AllOccupied:    p.AllOccupied,
		Valid:          false,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)

	if piece == NoPiece || piece.Color() != us {
		return undo
	}
	undo.Valid = true
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		capturedSq := to - 8
		if us == Black {
			capturedSq = to + 8
		}
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		undo.CapturedPiece = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom, rookTo = NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
		} else {
			rookFrom, rookTo = NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()

	if p.IsSquareAttacked(p.KingSquare[us], them) {
		undo.Valid = false
	}

	return undo
}

// UnmakeMove restores the position to the state undo captured, by full
// snapshot restoration rather than reversing each field update.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	us := p.SideToMove.Other()

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.KingSquare = undo.KingSquare
	p.Pieces = undo.Pieces
	p.Occupied = undo.Occupied
	p.AllOccupied = undo.AllOccupied
	p.SideToMove = us

	if us == Black {
		p.FullMoveNumber--
	}
}

// HasLegalMoves reports whether the side to move has at least one legal
// move, short-circuiting as soon as one is found.
func (p *Position) HasLegalMoves() bool {
	ml := NewMoveList()
	p.generatePseudoLegalMoves(ml)
	pinned := p.ComputePinned()
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegalFast(ml.Get(i), pinned) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is in check with no legal
// moves.
func (p *Position) IsCheckmate() bool { return p.InCheck() && !p.HasLegalMoves() }

// IsStalemate reports whether the side to move is not in check but has no
// legal moves.
func (p *Position) IsStalemate() bool { return !p.InCheck() && !p.HasLegalMoves() }
