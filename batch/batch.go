// Package batch runs the verifier over a whole catalog and collects the
// verdicts into a report.
package batch

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/matecheck/puzzles"
)

// Checker produces a verdict for one puzzle. *verifier.Verifier is one.
type Checker interface {
	Verify(rec puzzles.Record) puzzles.Verdict
}

// Options controls a batch run.
type Options struct {
	// Workers is the number of puzzles verified at once. 0 means one per CPU.
	Workers int
	// Timeout bounds each verification. 0 disables the bound.
	Timeout time.Duration
	// Shuffle verifies puzzles in random order. Results are still reported
	// in catalog order.
	Shuffle bool
}

// Result is the verdict for a single puzzle in a batch.
type Result struct {
	ID       string
	Bucket   puzzles.Bucket
	Verdict  puzzles.Verdict
	Duration time.Duration
}

const timedOutReason = "verification timed out"

// Run verifies every puzzle in cat. The only error it returns is the
// context's, when the run is cancelled; failing puzzles are reported in
// the Report.
func Run(ctx context.Context, cat *puzzles.Catalog, c Checker, opts Options) (*Report, error) {
	var records []puzzles.Record
	for _, rec := range cat.All() {
		records = append(records, rec)
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	if opts.Shuffle {
		frand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log.Debug().Int("puzzles", len(records)).Int("workers", workers).
		Dur("timeout", opts.Timeout).Bool("shuffle", opts.Shuffle).Msg("starting batch")

	tstart := time.Now()
	results := make([]*Result, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, idx := range order {
		if gctx.Err() != nil {
			break
		}
		rec := records[idx]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			verdict := verifyOne(gctx, c, rec, opts.Timeout)
			results[idx] = &Result{
				ID:       rec.ID,
				Bucket:   rec.Bucket,
				Verdict:  verdict,
				Duration: time.Since(start),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{Results: results, Elapsed: time.Since(tstart)}
	log.Debug().Int("passed", rep.Passed()).Int("total", len(results)).
		Dur("elapsed", rep.Elapsed).Msg("batch done")
	return rep, nil
}

// verifyOne runs a single verification, bounded by timeout when it is set.
// A verification that overruns is abandoned; its goroutine finishes on its
// own since Verify cannot be interrupted.
func verifyOne(ctx context.Context, c Checker, rec puzzles.Record, timeout time.Duration) puzzles.Verdict {
	if timeout <= 0 {
		return c.Verify(rec)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan puzzles.Verdict, 1)
	go func() {
		done <- c.Verify(rec)
	}()
	select {
	case v := <-done:
		return v
	case <-ctx.Done():
		log.Warn().Str("puzzle", rec.ID).Dur("timeout", timeout).Msg(timedOutReason)
		return puzzles.FailNoPly(puzzles.TimedOut, timedOutReason)
	}
}
