// Command revalidate re-scores every stored source document against the
// current validation rules without re-extracting anything. Run it after a
// rule or threshold change to refresh quality scores, issues, and review
// flags across the archive.
//
// Flags:
//
//	--dry-run  print what would change without writing to DB
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huapala/mele-archive/internal/adapter/postgres"
	"github.com/huapala/mele-archive/internal/adapter/postgres/mele"
	"github.com/huapala/mele-archive/internal/app"
	"github.com/huapala/mele-archive/internal/config"
	"github.com/huapala/mele-archive/internal/domain"
	"github.com/huapala/mele-archive/internal/engine/qualify"
)

func main() {
	dryRunFlag := flag.Bool("dry-run", false, "print what would change without writing to DB")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)
	logger.Info("revalidate starting", slog.String("version", app.BuildVersion()))

	if cfg.Database.DSN == "" {
		logger.Error("database DSN is not configured")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	pool, err := postgres.NewPool(connectCtx, cfg.Database)
	cancel()
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	repo := mele.New(pool)
	txm := postgres.NewTxManager(pool)

	records, err := repo.ListAll(ctx)
	if err != nil {
		logger.Error("list stored sources", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("loaded stored sources", slog.Int("count", len(records)))

	qcfg := qualify.Config{
		ReviewThreshold:  cfg.Engine.ReviewThreshold,
		LowConfidenceCap: cfg.Engine.LowConfidenceCap,
	}

	var changed, failed int
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			logger.Warn("revalidation interrupted", slog.String("error", err.Error()))
			os.Exit(1)
		}

		res := revalidate(rec, qcfg)
		if res.Score == rec.QualityScore && res.ManualReviewRequired == rec.ManualReviewRequired {
			continue
		}
		changed++

		status := domain.StatusImported
		if res.ManualReviewRequired {
			status = domain.StatusFlagged
		}

		logger.Info("verdict changed",
			slog.String("canonical_id", rec.CanonicalID),
			slog.String("source_file", rec.SourceFile),
			slog.Float64("old_score", rec.QualityScore),
			slog.Float64("new_score", res.Score),
			slog.Bool("manual_review", res.ManualReviewRequired))

		if *dryRunFlag {
			continue
		}

		err := txm.RunInTx(ctx, func(ctx context.Context) error {
			return repo.UpdateValidation(ctx, rec.ID, res, status, time.Now().UTC())
		})
		if err != nil {
			failed++
			logger.Error("update verdict",
				slog.String("canonical_id", rec.CanonicalID),
				slog.String("error", err.Error()))
		}
	}

	if failed > 0 {
		logger.Error("revalidation completed with errors",
			slog.Int("changed", changed),
			slog.Int("failed", failed))
		os.Exit(1)
	}

	logger.Info("revalidation completed",
		slog.Int("total", len(records)),
		slog.Int("changed", changed),
		slog.Bool("dry_run", *dryRunFlag))
}

// revalidate rebuilds the validator input from the stored document and
// re-runs the check battery. The heuristic-split line count is not stored,
// so the low-confidence deduction is dropped on revalidation; everything
// else is recomputed from the document itself.
func revalidate(rec mele.Record, cfg qualify.Config) domain.ValidationResult {
	sections := rec.Document.SectionList()

	var englishLines int
	for _, s := range sections {
		englishLines += len(s.EnglishLines)
	}

	return qualify.Validate(qualify.Input{
		Tag:             rec.Structure,
		Pattern:         rec.Pattern,
		Sections:        sections,
		Stray:           rec.StrayText,
		EnglishRawLines: englishLines,
	}, cfg)
}
