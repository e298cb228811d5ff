// matecheck verifies every puzzle in a catalog and exits non-zero if any
// of them is not a valid checkmating line, so it can gate catalog changes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/matecheck/batch"
	"github.com/domino14/matecheck/config"
	"github.com/domino14/matecheck/puzzles"
	"github.com/domino14/matecheck/rules"
	"github.com/domino14/matecheck/store"
	"github.com/domino14/matecheck/verifier"
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := &config.Config{}
	if err := cfg.Load(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Debug().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalogPath := cfg.GetString(config.ConfigCatalogPath)
	cat, err := puzzles.LoadFile(catalogPath)
	if err != nil {
		if errors.Is(err, puzzles.ErrMalformedCatalog) {
			log.Error().Err(err).Msg("catalog is malformed; nothing verified")
		} else {
			log.Error().Err(err).Str("path", catalogPath).Msg("could not read catalog")
		}
		return 1
	}
	log.Info().Str("path", catalogPath).Int("puzzles", cat.Len()).Msg("catalog loaded")

	strict := cfg.GetBool(config.ConfigStrict)
	v := verifier.New(rules.Standard(), verifier.Options{Strict: strict})
	rep, err := batch.Run(ctx, cat, v, batch.Options{
		Workers: cfg.GetInt(config.ConfigWorkers),
		Timeout: cfg.GetDuration(config.ConfigTimeout),
		Shuffle: cfg.GetBool(config.ConfigShuffle),
	})
	if err != nil {
		log.Error().Err(err).Msg("verification run aborted")
		return 1
	}
	if err := rep.Write(os.Stdout); err != nil {
		log.Error().Err(err).Msg("writing report")
		return 1
	}
	for _, bs := range rep.ByBucket() {
		log.Debug().Str("bucket", bs.Bucket.String()).Int("passed", bs.Passed).
			Int("total", bs.Total).Msg("bucket summary")
	}
	timing := rep.Timing()
	log.Info().Dur("elapsed", rep.Elapsed).Dur("mean", timing.Mean).
		Dur("stddev", timing.StdDev).Dur("max", timing.Max).Bool("strict", strict).
		Msg("verification finished")

	if dbPath := cfg.GetString(config.ConfigResultsDB); dbPath != "" {
		if err := saveHistory(ctx, dbPath, rep, strict); err != nil {
			// History is a convenience; it must not change the gate result.
			log.Error().Err(err).Str("path", dbPath).Msg("could not save verdict history")
		}
	}

	if !rep.AllValid() {
		return 1
	}
	return 0
}

func saveHistory(ctx context.Context, path string, rep *batch.Report, strict bool) error {
	st, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()
	runID, err := st.SaveReport(ctx, rep, strict)
	if err != nil {
		return err
	}
	log.Info().Int64("run", runID).Str("path", path).Msg("saved verdict history")
	return nil
}
