package puzzles

// FailureKind classifies why a puzzle failed verification.
type FailureKind int

const (
	None FailureKind = iota
	InvalidStartPosition
	IllegalMove
	NotForcedReply
	NotCheckmate
	EngineFault
	TimedOut
)

func (k FailureKind) String() string {
	switch k {
	case None:
		return "none"
	case InvalidStartPosition:
		return "invalid-start-position"
	case IllegalMove:
		return "illegal-move"
	case NotForcedReply:
		return "not-forced-reply"
	case NotCheckmate:
		return "not-checkmate"
	case EngineFault:
		return "engine-fault"
	case TimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of verifying one puzzle. Verdicts are values;
// build them with Pass or Fail and don't modify them afterwards.
type Verdict struct {
	OK     bool        `json:"ok"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
	// FailedAtPly is the 1-based ply that failed, 0 for the starting
	// position, nil when the failure is not tied to a ply.
	FailedAtPly *int `json:"failed_at_ply,omitempty"`
	// Move and Position are diagnostics: the offending notation and the
	// FEN it was tried against.
	Move     string `json:"move,omitempty"`
	Position string `json:"position,omitempty"`
}

// Pass is the verdict for a valid puzzle.
func Pass() Verdict {
	return Verdict{OK: true}
}

// Fail builds a failing verdict tied to a ply.
func Fail(kind FailureKind, reason string, ply int) Verdict {
	p := ply
	return Verdict{Kind: kind, Reason: reason, FailedAtPly: &p}
}

// FailNoPly builds a failing verdict that is not tied to a specific ply.
func FailNoPly(kind FailureKind, reason string) Verdict {
	return Verdict{Kind: kind, Reason: reason}
}

// WithDiagnostics returns a copy of v carrying the move and position that
// produced it.
func (v Verdict) WithDiagnostics(move, fen string) Verdict {
	v.Move = move
	v.Position = fen
	return v
}

// Ply returns the failing ply and whether there is one.
func (v Verdict) Ply() (int, bool) {
	if v.FailedAtPly == nil {
		return 0, false
	}
	return *v.FailedAtPly, true
}
