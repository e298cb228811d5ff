// Package rules is the chess rules capability the verifier is built on:
// parse a position, apply moves in sequence, and answer legality and
// check/checkmate questions about the result.
package rules

import "errors"

var (
	// ErrInvalidPosition wraps every failure to parse or accept a FEN.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrIllegalMove is returned when notation matches no legal move.
	ErrIllegalMove = errors.New("illegal move")
)

// Engine starts independent rules sessions.
type Engine interface {
	NewSession(fen string) (Session, error)
}

// Session owns one position and advances it move by move. A Session is
// not safe for concurrent use; make one per goroutine.
type Session interface {
	// Apply plays notation against the current position. With tolerant
	// set, sloppy SAN, UCI and figurine notation are accepted as long as
	// exactly one legal move matches.
	Apply(notation string, tolerant bool) (Move, error)
	// LegalMoves lists every legal move in SAN, sorted.
	LegalMoves() []string
	InCheck() bool
	IsCheckmate() bool
	// FEN encodes the current position.
	FEN() string
}

// Move describes a move that was applied.
type Move struct {
	SAN   string
	UCI   string
	Check bool
}
