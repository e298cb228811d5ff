package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notnil/chess"
	"golang.org/x/text/unicode/norm"
)

var figurines = strings.NewReplacer(
	"♔", "K", "♕", "Q", "♖", "R", "♗", "B", "♘", "N",
	"♚", "K", "♛", "Q", "♜", "R", "♝", "B", "♞", "N",
)

var (
	uciRe    = regexp.MustCompile(`^([a-h][1-8])([a-h][1-8])([qrbn])?$`)
	sloppyRe = regexp.MustCompile(`^([KQRBN])?([a-h])?([1-8])?[x:-]?([a-h][1-8])(?:=?([QRBN]))?$`)
)

var pieceLetters = map[byte]chess.PieceType{
	'K': chess.King,
	'Q': chess.Queen,
	'R': chess.Rook,
	'B': chess.Bishop,
	'N': chess.Knight,
}

// normalize folds the textual variants people write into plain SAN.
func normalize(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	s = figurines.Replace(s)
	s = strings.TrimSuffix(s, "e.p.")
	s = strings.TrimRight(s, "+#!? ")
	switch s {
	case "0-0", "o-o":
		return "O-O"
	case "0-0-0", "o-o-o":
		return "O-O-O"
	}
	return s
}

// decode finds the legal move that notation refers to.
func decode(pos *chess.Position, notation string, tolerant bool) (*chess.Move, error) {
	if m, err := (chess.AlgebraicNotation{}).Decode(pos, notation); err == nil {
		return m, nil
	}
	if !tolerant {
		return nil, fmt.Errorf("%w: %q", ErrIllegalMove, notation)
	}
	s := normalize(notation)
	if s == "" {
		return nil, fmt.Errorf("%w: empty notation", ErrIllegalMove)
	}
	if m, err := (chess.AlgebraicNotation{}).Decode(pos, s); err == nil {
		return m, nil
	}
	moves := pos.ValidMoves()
	if m := matchUCI(moves, s); m != nil {
		return m, nil
	}
	candidates := matchSloppy(pos, moves, s)
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrIllegalMove, notation)
	default:
		return nil, fmt.Errorf("%w: %q is ambiguous (%d matches)", ErrIllegalMove, notation, len(candidates))
	}
}

func matchUCI(moves []*chess.Move, s string) *chess.Move {
	sm := uciRe.FindStringSubmatch(s)
	if sm == nil {
		return nil
	}
	for _, m := range moves {
		if m.S1().String() != sm[1] || m.S2().String() != sm[2] {
			continue
		}
		if sm[3] == "" && m.Promo() == chess.NoPieceType {
			return m
		}
		if sm[3] != "" && m.Promo() == pieceLetters[strings.ToUpper(sm[3])[0]] {
			return m
		}
	}
	return nil
}

// matchSloppy accepts SAN with missing, redundant or long-form
// disambiguation and returns every legal move it could mean.
func matchSloppy(pos *chess.Position, moves []*chess.Move, s string) []*chess.Move {
	sm := sloppyRe.FindStringSubmatch(s)
	if sm == nil {
		return nil
	}
	piece := chess.Pawn
	if sm[1] != "" {
		piece = pieceLetters[sm[1][0]]
	}
	fromFile, fromRank, dest := sm[2], sm[3], sm[4]
	promo := chess.NoPieceType
	if sm[5] != "" {
		promo = pieceLetters[sm[5][0]]
	}

	board := pos.Board()
	var out []*chess.Move
	for _, m := range moves {
		if m.S2().String() != dest || board.Piece(m.S1()).Type() != piece {
			continue
		}
		from := m.S1().String()
		if fromFile != "" && from[0] != fromFile[0] {
			continue
		}
		if fromRank != "" && from[1] != fromRank[0] {
			continue
		}
		if m.Promo() != promo {
			continue
		}
		out = append(out, m)
	}
	return out
}
