package chess

import "fmt"

// Move packs from/to/promotion/flag into 16 bits:
// bits 0-5 from, bits 6-11 to, bits 12-13 promotion piece offset from
// Knight, bits 14-15 flag.
type Move uint16

const (
	moveFlagNormal    uint16 = 0 << 14
	moveFlagPromotion uint16 = 1 << 14
	moveFlagEnPassant uint16 = 2 << 14
	moveFlagCastling  uint16 = 3 << 14
)

// NoMove is the zero value, used as a sentinel for "no move selected".
const NoMove Move = 0

func NewMove(from, to Square) Move { return Move(from) | Move(to)<<6 }

func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | Move(moveFlagPromotion)
}

func NewEnPassant(from, to Square) Move { return Move(from) | Move(to)<<6 | Move(moveFlagEnPassant) }

func NewCastling(from, to Square) Move { return Move(from) | Move(to)<<6 | Move(moveFlagCastling) }

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square   { return Square((m >> 6) & 0x3F) }
func (m Move) flag() uint16 { return uint16(m) & 0xC000 }

// Promotion returns the promoted-to piece type; only meaningful when
// IsPromotion is true.
func (m Move) Promotion() PieceType { return PieceType((m>>12)&3) + Knight }

func (m Move) IsPromotion() bool { return m.flag() == moveFlagPromotion }
func (m Move) IsCastling() bool  { return m.flag() == moveFlagCastling }
func (m Move) IsEnPassant() bool { return m.flag() == moveFlagEnPassant }

// IsCapture reports whether m captures a piece in pos, including en
// passant.
func (m Move) IsCapture(pos *Position) bool {
	return m.IsEnPassant() || !pos.IsEmpty(m.To())
}

var promotionLetters = [4]byte{'n', 'b', 'r', 'q'}

// String renders m in UCI notation ("e2e4", "e7e8q"), or "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(promotionLetters[m.Promotion()-Knight])
	}
	return s
}

// ParseMove parses a UCI move string against pos, which provides the
// context (piece on from-square, en passant target) needed to classify
// castling and en passant moves that UCI encodes the same as a plain move.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()

	if pt == King && abs(int(to)-int(from)) == 2 {
		return NewCastling(from, to), nil
	}
	if pt == Pawn && to == pos.EnPassant {
		return NewEnPassant(from, to), nil
	}
	return NewMove(from, to), nil
}

// MoveList is a fixed-capacity move buffer; generation reuses it instead
// of allocating a slice per call.
type MoveList struct {
	moves [256]Move
	count int
}

func NewMoveList() *MoveList { return &MoveList{} }

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

func (ml *MoveList) Len() int       { return ml.count }
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// UndoInfo is a full snapshot of the mutable position state, captured by
// MakeMove and restored verbatim by UnmakeMove.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Valid          bool
}
