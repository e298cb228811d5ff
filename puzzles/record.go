package puzzles

import (
	"errors"
	"fmt"
	"strings"
)

// Record is a single puzzle: a starting position and the line that is
// supposed to solve it. Solution plies alternate between the solving side
// and the forced replies.
type Record struct {
	ID       string
	Bucket   Bucket
	FEN      string
	solution []string
}

// NewRecord builds a record, copying the solution so the caller cannot
// mutate it afterwards.
func NewRecord(id string, bucket Bucket, fen string, solution []string) Record {
	s := make([]string, len(solution))
	copy(s, solution)
	return Record{ID: id, Bucket: bucket, FEN: fen, solution: s}
}

// Solution returns a copy of the solution line.
func (r Record) Solution() []string {
	s := make([]string, len(r.solution))
	copy(s, r.solution)
	return s
}

// Plies is the length of the solution line.
func (r Record) Plies() int {
	return len(r.solution)
}

// Ply returns the notation of the i-th ply, 0-based.
func (r Record) Ply(i int) string {
	return r.solution[i]
}

// Validate checks the structural invariants of a record. It does not look
// at whether the FEN describes a legal position; that is the verifier's job.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("missing id")
	}
	if strings.TrimSpace(r.FEN) == "" {
		return fmt.Errorf("puzzle %s: missing fen", r.ID)
	}
	if len(r.solution) == 0 {
		return fmt.Errorf("puzzle %s: empty solution", r.ID)
	}
	for i, m := range r.solution {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("puzzle %s: blank move at ply %d", r.ID, i+1)
		}
	}
	return nil
}
