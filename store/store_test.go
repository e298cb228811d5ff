package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/matecheck/batch"
	"github.com/domino14/matecheck/puzzles"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func report(verdicts ...puzzles.Verdict) *batch.Report {
	rep := &batch.Report{Elapsed: time.Second}
	for i, v := range verdicts {
		rep.Results = append(rep.Results, &batch.Result{
			ID:       []string{"alpha", "beta", "gamma"}[i],
			Bucket:   puzzles.Intermediate,
			Verdict:  v,
			Duration: time.Millisecond,
		})
	}
	return rep
}

func TestSaveAndReadHistory(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	first, err := s.SaveReport(ctx, report(
		puzzles.Pass(),
		puzzles.Fail(puzzles.IllegalMove, "illegal move at ply 2", 2).WithDiagnostics("Kh7", "7k/5Q1K/8/8/8/8/8/8 b - - 1 1"),
	), false)
	require.NoError(t, err)

	second, err := s.SaveReport(ctx, report(
		puzzles.Pass(),
		puzzles.FailNoPly(puzzles.NotCheckmate, "final position is not checkmate"),
	), true)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	hist, err := s.PuzzleHistory(ctx, "beta")
	require.NoError(t, err)
	require.Len(t, hist, 2)

	assert.Equal(t, second, hist[0].RunID)
	assert.True(t, hist[0].Strict)
	assert.Equal(t, puzzles.NotCheckmate, hist[0].Verdict.Kind)
	_, hasPly := hist[0].Verdict.Ply()
	assert.False(t, hasPly)

	assert.Equal(t, first, hist[1].RunID)
	assert.False(t, hist[1].Strict)
	assert.Equal(t, puzzles.Intermediate, hist[1].Bucket)
	assert.Equal(t, puzzles.IllegalMove, hist[1].Verdict.Kind)
	assert.Equal(t, "Kh7", hist[1].Verdict.Move)
	ply, hasPly := hist[1].Verdict.Ply()
	assert.True(t, hasPly)
	assert.Equal(t, 2, ply)
	assert.WithinDuration(t, time.Now(), hist[1].At, time.Minute)
}

func TestHistoryOfUnknownPuzzle(t *testing.T) {
	s := openTemp(t)
	hist, err := s.PuzzleHistory(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.SaveReport(ctx, report(puzzles.Pass()), false)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	hist, err := s.PuzzleHistory(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Verdict.OK)
}

func TestParseKind(t *testing.T) {
	for k := puzzles.None; k <= puzzles.TimedOut; k++ {
		got, err := parseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := parseKind("bogus")
	assert.ErrorIs(t, err, errUnknownKind)
}
