package rules

import "github.com/notnil/chess"

var (
	knightSteps  = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps    = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays     = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays   = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	pawnAttacker = map[chess.Color]int{chess.White: -1, chess.Black: 1}
)

func squareAt(file, rank int) (chess.Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return chess.NoSquare, false
	}
	return chess.Square(rank*8 + file), true
}

func pieceAt(b *chess.Board, file, rank int) (chess.Piece, bool) {
	sq, ok := squareAt(file, rank)
	if !ok {
		return chess.NoPiece, false
	}
	return b.Piece(sq), true
}

// attacked reports whether any piece of color by attacks sq.
func attacked(b *chess.Board, sq chess.Square, by chess.Color) bool {
	f, r := int(sq.File()), int(sq.Rank())

	// A white pawn attacks from one rank below, a black pawn from above.
	dr := pawnAttacker[by]
	for _, df := range []int{-1, 1} {
		if p, ok := pieceAt(b, f+df, r+dr); ok && p.Color() == by && p.Type() == chess.Pawn {
			return true
		}
	}
	for _, s := range knightSteps {
		if p, ok := pieceAt(b, f+s[0], r+s[1]); ok && p.Color() == by && p.Type() == chess.Knight {
			return true
		}
	}
	for _, s := range kingSteps {
		if p, ok := pieceAt(b, f+s[0], r+s[1]); ok && p.Color() == by && p.Type() == chess.King {
			return true
		}
	}
	if slides(b, f, r, rookRays, by, chess.Rook) || slides(b, f, r, bishopRays, by, chess.Bishop) {
		return true
	}
	return false
}

// slides walks each ray until the first occupied square and reports whether
// it holds a slider of color by (queen, or the given line piece).
func slides(b *chess.Board, f, r int, rays [4][2]int, by chess.Color, line chess.PieceType) bool {
	for _, ray := range rays {
		for i := 1; ; i++ {
			p, ok := pieceAt(b, f+ray[0]*i, r+ray[1]*i)
			if !ok {
				break
			}
			if p == chess.NoPiece {
				continue
			}
			if p.Color() == by && (p.Type() == line || p.Type() == chess.Queen) {
				return true
			}
			break
		}
	}
	return false
}

// kingSquare finds the king of color c. ok is false if there isn't exactly
// one.
func kingSquare(b *chess.Board, c chess.Color) (chess.Square, bool) {
	found := chess.NoSquare
	n := 0
	for sq, p := range b.SquareMap() {
		if p.Type() == chess.King && p.Color() == c {
			found = sq
			n++
		}
	}
	return found, n == 1
}

func inCheck(pos *chess.Position) bool {
	b := pos.Board()
	ksq, ok := kingSquare(b, pos.Turn())
	if !ok {
		return false
	}
	return attacked(b, ksq, pos.Turn().Other())
}
