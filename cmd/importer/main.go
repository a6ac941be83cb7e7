// Command importer processes a directory of archived song pages: it
// extracts the bilingual lyrics, reconstructs and classifies their verse
// structure, scores extraction quality, and upserts the results into
// PostgreSQL. A YAML run report is written next to the invocation.
//
// Flags:
//
//	--source-dir  directory of source pages (default from config)
//	--pattern     glob pattern for source files (default from config)
//	--workers     concurrent workers (default from config)
//	--dry-run     process files without writing to DB
//	--report      report path; empty disables the report
//
// Exit codes: 0 = success, 1 = error or failed documents.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/huapala/mele-archive/internal/adapter/postgres"
	"github.com/huapala/mele-archive/internal/adapter/postgres/mele"
	"github.com/huapala/mele-archive/internal/app"
	"github.com/huapala/mele-archive/internal/batch"
	"github.com/huapala/mele-archive/internal/config"
	"github.com/huapala/mele-archive/internal/domain"
	"github.com/huapala/mele-archive/internal/engine"
)

// repoSink persists processed sources through the mele repository, one
// transaction per document.
type repoSink struct {
	repo *mele.Repo
	txm  *postgres.TxManager
}

func (s *repoSink) Store(ctx context.Context, src *domain.MeleSource) error {
	return s.txm.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.repo.Upsert(ctx, src)
		return err
	})
}

func main() {
	sourceDirFlag := flag.String("source-dir", "", "directory of source pages (default from config)")
	patternFlag := flag.String("pattern", "", "glob pattern for source files (default from config)")
	workersFlag := flag.Int("workers", 0, "concurrent workers (default from config)")
	dryRunFlag := flag.Bool("dry-run", false, "process files without writing to DB")
	reportFlag := flag.String("report", "", "report path (default from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)
	logger.Info("importer starting", slog.String("version", app.BuildVersion()))

	// CLI flags override config.
	if *sourceDirFlag != "" {
		cfg.Import.SourceDir = *sourceDirFlag
	}
	if *patternFlag != "" {
		cfg.Import.Pattern = *patternFlag
	}
	if *workersFlag > 0 {
		cfg.Import.Workers = *workersFlag
	}
	if *reportFlag != "" {
		cfg.Import.ReportPath = *reportFlag
	}

	files, err := filepath.Glob(filepath.Join(cfg.Import.SourceDir, cfg.Import.Pattern))
	if err != nil {
		logger.Error("bad source pattern", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(files) == 0 {
		logger.Error("no source files found",
			slog.String("source_dir", cfg.Import.SourceDir),
			slog.String("pattern", cfg.Import.Pattern))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink batch.Sink = batch.Discard{}
	if !*dryRunFlag {
		if cfg.Database.DSN == "" {
			logger.Error("database DSN is not configured; use --dry-run to process without a database")
			os.Exit(1)
		}

		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		pool, err := postgres.NewPool(connectCtx, cfg.Database)
		cancel()
		if err != nil {
			logger.Error("connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		sink = &repoSink{repo: mele.New(pool), txm: postgres.NewTxManager(pool)}
	} else {
		logger.Info("dry run: nothing will be written to the database")
	}

	eng := engine.New(engine.Config{
		RunOnThreshold:   cfg.Engine.RunOnThreshold,
		HawaiianMarkers:  cfg.Engine.HawaiianMarkers,
		ReviewThreshold:  cfg.Engine.ReviewThreshold,
		LowConfidenceCap: cfg.Engine.LowConfidenceCap,
	}, logger)

	runner := batch.NewRunner(eng, sink, batch.Config{Workers: cfg.Import.Workers}, logger)

	summary, runErr := runner.Run(ctx, files)

	if cfg.Import.ReportPath != "" && summary != nil {
		if err := batch.WriteReport(cfg.Import.ReportPath, summary); err != nil {
			logger.Error("write report", slog.String("error", err.Error()))
		} else {
			logger.Info("report written", slog.String("path", cfg.Import.ReportPath))
		}
	}

	if runErr != nil {
		logger.Error("run aborted", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
	if summary.Failed > 0 {
		logger.Warn("run completed with failed documents", slog.Int("failed", summary.Failed))
		os.Exit(1)
	}

	logger.Info("run completed",
		slog.Int("imported", summary.Imported),
		slog.Int("flagged", summary.Flagged))
}
