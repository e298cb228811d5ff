package verifier

import (
	"fmt"

	"github.com/domino14/matecheck/rules"
)

// engineFault is a panic raised inside the rules engine while it applied
// a move.
type engineFault struct {
	msg string
}

func (e *engineFault) Error() string {
	return "engine fault: " + e.msg
}

// applyPly is the fault boundary for a single move: anything the engine
// raises here is turned into an error and goes no further.
func applyPly(sess rules.Session, notation string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &engineFault{msg: fmt.Sprint(r)}
		}
	}()
	_, err = sess.Apply(notation, true)
	return err
}
