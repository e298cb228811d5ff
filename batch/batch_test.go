package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/matecheck/puzzles"
	"github.com/domino14/matecheck/rules"
	"github.com/domino14/matecheck/verifier"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

const catalogDoc = `{
  "beginner": [
    {"id": "back-rank", "fen": "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "solution": ["Ra8#"]},
    {"id": "no-mate", "fen": "6k1/8/5K2/8/8/8/3R4/4R3 w - - 0 1", "solution": ["Re8+", "Kh7", "Rd7+"]}
  ],
  "intermediate": [
    {"id": "ladder", "fen": "8/8/4k3/6R1/7R/8/8/K7 w - - 0 1", "solution": ["Rh6+", "Kd7", "Rg7+", "Kc8", "Rh8#"]}
  ],
  "expert": [
    {"id": "queen-chase", "fen": "7k/8/6K1/8/8/8/8/1Q6 w - - 0 1", "solution": ["Qh1+", "Kg8", "Qh7+", "Kf8", "Qf7#"]},
    {"id": "bad-start", "fen": "8/8/8/8/8/8/8/8 w - - 0 1", "solution": ["e4"]}
  ]
}`

func loadCatalog(t *testing.T, doc string) *puzzles.Catalog {
	t.Helper()
	cat, err := puzzles.Load(strings.NewReader(doc), puzzles.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func ids(results []*Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestRunReportsEveryPuzzle(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, catalogDoc)
	rep, err := Run(context.Background(), cat, verifier.New(rules.Standard(), verifier.Options{}), Options{Workers: 2})
	is.NoErr(err)

	is.Equal(ids(rep.Results), []string{"back-rank", "no-mate", "ladder", "queen-chase", "bad-start"})
	is.Equal(rep.Passed(), 3)
	is.True(!rep.AllValid())
	is.Equal(ids(rep.Failures()), []string{"no-mate", "bad-start"})

	is.Equal(rep.ByBucket(), []BucketStats{
		{Bucket: puzzles.Beginner, Total: 2, Passed: 1},
		{Bucket: puzzles.Intermediate, Total: 1, Passed: 1},
		{Bucket: puzzles.Expert, Total: 2, Passed: 1},
	})
}

func TestRunStrict(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, catalogDoc)
	rep, err := Run(context.Background(), cat, verifier.New(rules.Standard(), verifier.Options{Strict: true}), Options{})
	is.NoErr(err)
	is.Equal(ids(rep.Failures()), []string{"no-mate", "ladder", "bad-start"})
	is.Equal(rep.Results[2].Verdict.Kind, puzzles.NotForcedReply)
}

func TestShuffleKeepsCatalogOrder(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, catalogDoc)
	v := verifier.New(rules.Standard(), verifier.Options{})

	plain, err := Run(context.Background(), cat, v, Options{Workers: 1})
	is.NoErr(err)
	for range 5 {
		shuffled, err := Run(context.Background(), cat, v, Options{Workers: 3, Shuffle: true})
		is.NoErr(err)
		is.Equal(ids(shuffled.Results), ids(plain.Results))
		for i := range plain.Results {
			is.Equal(shuffled.Results[i].Verdict, plain.Results[i].Verdict)
		}
	}
}

func TestWrite(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, catalogDoc)
	rep, err := Run(context.Background(), cat, verifier.New(rules.Standard(), verifier.Options{}), Options{})
	is.NoErr(err)

	var buf bytes.Buffer
	is.NoErr(rep.Write(&buf))
	is.Equal(buf.String(), strings.Join([]string{
		"[OK] back-rank (beginner)",
		"[FAIL] no-mate (beginner): final position is not checkmate",
		"[OK] ladder (intermediate)",
		"[OK] queen-chase (expert)",
		"[FAIL] bad-start (expert): invalid starting position",
		"2 of 5 puzzles failed",
		"",
	}, "\n"))
}

func TestWriteAllValid(t *testing.T) {
	is := is.New(t)
	rep := &Report{Results: []*Result{
		{ID: "a", Bucket: puzzles.Beginner, Verdict: puzzles.Pass()},
	}}
	var buf bytes.Buffer
	is.NoErr(rep.Write(&buf))
	is.Equal(buf.String(), "[OK] a (beginner)\nall 1 puzzles valid\n")
	is.True(rep.AllValid())
}

func TestEmptyCatalog(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, `{}`)
	rep, err := Run(context.Background(), cat, verifier.New(rules.Standard(), verifier.Options{}), Options{})
	is.NoErr(err)
	is.True(rep.AllValid())
	is.Equal(rep.Timing(), Timing{})
}

// slowChecker blocks every verification until release is closed.
type slowChecker struct {
	release chan struct{}
	calls   atomic.Int32
}

func (s *slowChecker) Verify(rec puzzles.Record) puzzles.Verdict {
	s.calls.Add(1)
	<-s.release
	return puzzles.Pass()
}

func TestTimeout(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, catalogDoc)
	slow := &slowChecker{release: make(chan struct{})}
	defer close(slow.release)

	rep, err := Run(context.Background(), cat, slow, Options{Workers: 5, Timeout: 20 * time.Millisecond})
	is.NoErr(err)
	is.Equal(len(rep.Failures()), 5)
	for _, res := range rep.Results {
		is.Equal(res.Verdict.Kind, puzzles.TimedOut)
		is.Equal(res.Verdict.Reason, "verification timed out")
	}
}

func TestCancelledRun(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, catalogDoc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := Run(ctx, cat, verifier.New(rules.Standard(), verifier.Options{}), Options{})
	is.True(errors.Is(err, context.Canceled))
	is.True(rep == nil)
}

type countingChecker struct {
	calls atomic.Int32
}

func (c *countingChecker) Verify(rec puzzles.Record) puzzles.Verdict {
	c.calls.Add(1)
	return puzzles.Pass()
}

func TestEveryPuzzleVerifiedOnce(t *testing.T) {
	is := is.New(t)
	cat := loadCatalog(t, catalogDoc)
	c := &countingChecker{}
	rep, err := Run(context.Background(), cat, c, Options{Workers: 4, Shuffle: true})
	is.NoErr(err)
	is.Equal(int(c.calls.Load()), cat.Len())
	is.True(rep.AllValid())
}

func TestTiming(t *testing.T) {
	is := is.New(t)
	rep := &Report{Results: []*Result{
		{Duration: 10 * time.Millisecond},
		{Duration: 30 * time.Millisecond},
	}}
	tm := rep.Timing()
	is.Equal(tm.Mean, 20*time.Millisecond)
	is.Equal(tm.Max, 30*time.Millisecond)
	is.True(tm.StdDev > 0)
}
