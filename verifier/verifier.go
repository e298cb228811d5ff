// Package verifier replays a puzzle's solution line against the rules
// engine and decides whether it is a valid, checkmating tactics puzzle.
package verifier

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/matecheck/puzzles"
	"github.com/domino14/matecheck/rules"
)

// Options controls how strict verification is.
type Options struct {
	// Strict requires every solving move to give check and every reply
	// before the last solving move to be the only legal one.
	Strict bool
}

// Verifier checks puzzle records. It keeps no state between calls and can
// be shared by goroutines.
type Verifier struct {
	engine rules.Engine
	opts   Options
}

func New(engine rules.Engine, opts Options) *Verifier {
	return &Verifier{engine: engine, opts: opts}
}

// Verify replays rec from its starting position and returns the verdict.
// It never panics on bad input: faults inside the engine become failing
// verdicts.
func (v *Verifier) Verify(rec puzzles.Record) puzzles.Verdict {
	logger := log.With().Str("puzzle", rec.ID).Str("bucket", rec.Bucket.String()).Logger()

	sess, err := v.newSession(rec.FEN)
	if err != nil {
		logger.Debug().Err(err).Msg("bad starting position")
		return puzzles.Fail(puzzles.InvalidStartPosition, "invalid starting position", 0).
			WithDiagnostics("", rec.FEN)
	}

	n := rec.Plies()
	lastSolving := lastSolvingPly(n)
	for i := range n {
		ply := i + 1
		notation := rec.Ply(i)
		before := sess.FEN()
		if err := applyPly(sess, notation); err != nil {
			var fault *engineFault
			if errors.As(err, &fault) {
				logger.Warn().Int("ply", ply).Str("move", notation).Str("fault", fault.msg).
					Msg("engine fault")
				return puzzles.Fail(puzzles.EngineFault,
					fmt.Sprintf("engine fault at ply %d: %s", ply, fault.msg), ply).
					WithDiagnostics(notation, before)
			}
			logger.Debug().Int("ply", ply).Str("move", notation).Err(err).Msg("illegal move")
			return puzzles.Fail(puzzles.IllegalMove, fmt.Sprintf("illegal move at ply %d", ply), ply).
				WithDiagnostics(notation, before)
		}
		if v.opts.Strict && i%2 == 0 {
			if verdict, ok := checkForced(sess, ply, i == lastSolving); !ok {
				logger.Debug().Int("ply", ply).Str("reason", verdict.Reason).Msg("not forced")
				return verdict.WithDiagnostics(notation, sess.FEN())
			}
		}
	}

	if !sess.IsCheckmate() {
		return puzzles.FailNoPly(puzzles.NotCheckmate, "final position is not checkmate").
			WithDiagnostics("", sess.FEN())
	}
	logger.Debug().Msg("puzzle ok")
	return puzzles.Pass()
}

func (v *Verifier) newSession(fen string) (sess rules.Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			sess, err = nil, fmt.Errorf("%w: %v", rules.ErrInvalidPosition, r)
		}
	}()
	return v.engine.NewSession(fen)
}

// lastSolvingPly is the 0-based index of the final move made by the
// solving side in a line of n plies.
func lastSolvingPly(n int) int {
	if n == 0 {
		return -1
	}
	return (n - 1) &^ 1
}
