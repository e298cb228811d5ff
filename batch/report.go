package batch

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/domino14/matecheck/puzzles"
)

// Report is the outcome of a batch run. Results are in catalog order.
type Report struct {
	Results []*Result
	Elapsed time.Duration
}

// BucketStats counts passes and failures in one bucket.
type BucketStats struct {
	Bucket puzzles.Bucket
	Total  int
	Passed int
}

// Timing summarises per-puzzle verification time.
type Timing struct {
	Mean   time.Duration
	StdDev time.Duration
	Max    time.Duration
}

// AllValid is true when every puzzle passed. An empty report is valid.
func (r *Report) AllValid() bool {
	return r.Passed() == len(r.Results)
}

func (r *Report) Passed() int {
	return lo.CountBy(r.Results, func(res *Result) bool { return res.Verdict.OK })
}

// Failures returns the failing results in catalog order.
func (r *Report) Failures() []*Result {
	return lo.Filter(r.Results, func(res *Result, _ int) bool { return !res.Verdict.OK })
}

// ByBucket returns stats for every bucket, in catalog order.
func (r *Report) ByBucket() []BucketStats {
	grouped := lo.GroupBy(r.Results, func(res *Result) puzzles.Bucket { return res.Bucket })
	out := make([]BucketStats, 0, len(grouped))
	for _, b := range puzzles.Buckets() {
		results := grouped[b]
		out = append(out, BucketStats{
			Bucket: b,
			Total:  len(results),
			Passed: lo.CountBy(results, func(res *Result) bool { return res.Verdict.OK }),
		})
	}
	return out
}

func (r *Report) Timing() Timing {
	if len(r.Results) == 0 {
		return Timing{}
	}
	durs := lo.Map(r.Results, func(res *Result, _ int) float64 { return float64(res.Duration) })
	t := Timing{
		Mean: time.Duration(stat.Mean(durs, nil)),
		Max:  time.Duration(slices.Max(durs)),
	}
	if len(durs) > 1 {
		t.StdDev = time.Duration(stat.StdDev(durs, nil))
	}
	return t
}

// Write prints one line per puzzle followed by a summary.
func (r *Report) Write(w io.Writer) error {
	for _, res := range r.Results {
		var err error
		if res.Verdict.OK {
			_, err = fmt.Fprintf(w, "[OK] %s (%s)\n", res.ID, res.Bucket)
		} else {
			_, err = fmt.Fprintf(w, "[FAIL] %s (%s): %s\n", res.ID, res.Bucket, res.Verdict.Reason)
		}
		if err != nil {
			return err
		}
	}
	total := len(r.Results)
	if failed := total - r.Passed(); failed > 0 {
		_, err := fmt.Fprintf(w, "%d of %d puzzles failed\n", failed, total)
		return err
	}
	_, err := fmt.Fprintf(w, "all %d puzzles valid\n", total)
	return err
}
