package verifier

import (
	"fmt"

	"github.com/domino14/matecheck/puzzles"
	"github.com/domino14/matecheck/rules"
)

// checkForced runs after a solving-side move in strict mode. The move must
// give check, and unless it is the last solving move the opponent must be
// left with exactly one reply.
func checkForced(sess rules.Session, ply int, last bool) (puzzles.Verdict, bool) {
	if !sess.InCheck() {
		return puzzles.Fail(puzzles.NotForcedReply, fmt.Sprintf("no check at ply %d", ply), ply), false
	}
	if last {
		return puzzles.Verdict{}, true
	}
	if replies := len(sess.LegalMoves()); replies != 1 {
		return puzzles.Fail(puzzles.NotForcedReply,
			fmt.Sprintf("not forced at ply %d, %d legal replies", ply, replies), ply), false
	}
	return puzzles.Verdict{}, true
}
