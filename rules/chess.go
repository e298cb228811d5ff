package rules

import (
	"fmt"
	"sort"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
)

type standardEngine struct{}

// Standard returns the Engine backed by github.com/notnil/chess.
func Standard() Engine {
	return standardEngine{}
}

func (standardEngine) NewSession(fen string) (_ Session, err error) {
	// Some placements (no king at all, for instance) make the library
	// panic while it computes the game status.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPosition, r)
		}
	}()
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	game := chess.NewGame(opt)
	if err := validatePosition(game.Position()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return &session{game: game}, nil
}

// validatePosition rejects placements that FEN parsing lets through but
// that cannot arise from legal play.
func validatePosition(pos *chess.Position) error {
	b := pos.Board()
	for _, c := range []chess.Color{chess.White, chess.Black} {
		if _, ok := kingSquare(b, c); !ok {
			return fmt.Errorf("%s must have exactly one king", colorName(c))
		}
	}
	for sq, p := range b.SquareMap() {
		if p.Type() == chess.Pawn && (sq.Rank() == chess.Rank1 || sq.Rank() == chess.Rank8) {
			return fmt.Errorf("pawn on %s", sq)
		}
	}
	opp := pos.Turn().Other()
	ksq, _ := kingSquare(b, opp)
	if attacked(b, ksq, pos.Turn()) {
		return fmt.Errorf("%s is in check but it is not their move", colorName(opp))
	}
	cr := pos.CastleRights()
	castles := []struct {
		color      chess.Color
		side       chess.Side
		king, rook chess.Square
	}{
		{chess.White, chess.KingSide, chess.E1, chess.H1},
		{chess.White, chess.QueenSide, chess.E1, chess.A1},
		{chess.Black, chess.KingSide, chess.E8, chess.H8},
		{chess.Black, chess.QueenSide, chess.E8, chess.A8},
	}
	for _, c := range castles {
		if !cr.CanCastle(c.color, c.side) {
			continue
		}
		if !isPiece(b.Piece(c.king), chess.King, c.color) || !isPiece(b.Piece(c.rook), chess.Rook, c.color) {
			return fmt.Errorf("castling rights %s without king and rook in place", cr)
		}
	}
	return nil
}

func colorName(c chess.Color) string {
	if c == chess.White {
		return "white"
	}
	return "black"
}

func isPiece(p chess.Piece, t chess.PieceType, c chess.Color) bool {
	return p.Type() == t && p.Color() == c
}

type session struct {
	game *chess.Game
}

func (s *session) Apply(notation string, tolerant bool) (Move, error) {
	pos := s.game.Position()
	m, err := decode(pos, notation, tolerant)
	if err != nil {
		return Move{}, err
	}
	applied := Move{
		SAN:   chess.AlgebraicNotation{}.Encode(pos, m),
		UCI:   chess.UCINotation{}.Encode(pos, m),
		Check: m.HasTag(chess.Check),
	}
	if err := s.game.Move(m); err != nil {
		return Move{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	log.Debug().Str("notation", notation).Str("san", applied.SAN).
		Str("fen", s.FEN()).Msg("applied move")
	return applied, nil
}

func (s *session) LegalMoves() []string {
	pos := s.game.Position()
	moves := pos.ValidMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, m))
	}
	sort.Strings(out)
	return out
}

func (s *session) InCheck() bool {
	return inCheck(s.game.Position())
}

func (s *session) IsCheckmate() bool {
	pos := s.game.Position()
	return inCheck(pos) && len(pos.ValidMoves()) == 0
}

func (s *session) FEN() string {
	return s.game.Position().String()
}
