// Package batch drives the import pipeline over a set of source files:
// parse, process, persist, summarize. Files are processed concurrently by
// a bounded worker group; one bad file never aborts the run.
package batch

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/huapala/mele-archive/internal/domain"
	"github.com/huapala/mele-archive/internal/engine"
	"github.com/huapala/mele-archive/internal/extract"
)

// Sink consumes processed source documents. Implementations decide where
// they go: a repository for real imports, Discard for dry runs.
type Sink interface {
	Store(ctx context.Context, src *domain.MeleSource) error
}

// Discard is a Sink that drops everything. Used for dry runs.
type Discard struct{}

func (Discard) Store(context.Context, *domain.MeleSource) error { return nil }

// Config tunes the runner.
type Config struct {
	// Workers bounds concurrent file processing. Values below 1 mean 1.
	Workers int
}

// Runner processes source files through the engine and into a sink.
type Runner struct {
	eng     *engine.Engine
	sink    Sink
	workers int
	log     *slog.Logger
}

// NewRunner creates a Runner. log may be nil; progress is then discarded.
func NewRunner(eng *engine.Engine, sink Sink, cfg Config, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		eng:     eng,
		sink:    sink,
		workers: max(cfg.Workers, 1),
		log:     log,
	}
}

// DocResult is the outcome for one source file.
type DocResult struct {
	SourceFile   string  `yaml:"source_file"`
	CanonicalID  string  `yaml:"canonical_id,omitempty"`
	Title        string  `yaml:"title,omitempty"`
	Status       string  `yaml:"status"`
	Structure    string  `yaml:"structure,omitempty"`
	QualityScore float64  `yaml:"quality_score"`
	ManualReview bool     `yaml:"manual_review"`
	Issues       int      `yaml:"issues"`
	IssueTypes   []string `yaml:"issue_types,omitempty"`
	Error        string   `yaml:"error,omitempty"`
}

// Summary aggregates a whole run. Results are ordered by source file.
type Summary struct {
	Processed    int            `yaml:"processed"`
	Imported     int            `yaml:"imported"`
	Flagged      int            `yaml:"flagged"`
	Failed       int            `yaml:"failed"`
	AverageScore float64        `yaml:"average_score"`
	Duration     string         `yaml:"duration"`
	IssueCounts  map[string]int `yaml:"issue_counts,omitempty"`
	Results      []DocResult    `yaml:"results"`
}

// Run processes every file through the pipeline and stores the outcomes in
// the sink. Per-file failures are recorded in the summary, not returned as
// errors. On context cancellation Run stops scheduling new files, waits for
// in-flight ones, and returns the partial summary together with ctx's error.
func (r *Runner) Run(ctx context.Context, files []string) (*Summary, error) {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	results := make([]DocResult, len(files))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processFile(gctx, file)
			return nil
		})
	}

	runErr := g.Wait()

	summary := summarize(results, time.Since(start))
	r.log.Info("batch run finished",
		"processed", summary.Processed,
		"imported", summary.Imported,
		"flagged", summary.Flagged,
		"failed", summary.Failed,
		"duration", summary.Duration)

	return summary, runErr
}

func (r *Runner) processFile(ctx context.Context, file string) DocResult {
	result := DocResult{SourceFile: file, Status: string(domain.StatusFailed)}

	data, err := os.ReadFile(file)
	if err != nil {
		result.Error = err.Error()
		r.log.Warn("read source file", "file", file, "error", err)
		return result
	}

	doc, err := extract.Parse(bytes.NewReader(data))
	if err != nil {
		result.Error = err.Error()
		r.log.Warn("parse source file", "file", file, "error", err)
		return result
	}

	src := r.buildSource(*doc, file)
	result.CanonicalID = src.CanonicalID
	result.Title = src.Title
	result.Structure = string(src.Structure)
	result.QualityScore = src.QualityScore
	result.ManualReview = src.ManualReviewRequired
	result.Issues = len(src.Issues)
	for _, issue := range src.Issues {
		result.IssueTypes = append(result.IssueTypes, string(issue.Type))
	}

	if err := r.sink.Store(ctx, src); err != nil {
		result.Error = err.Error()
		r.log.Warn("store source", "file", file, "canonical_id", src.CanonicalID, "error", err)
		return result
	}

	result.Status = string(src.Status)
	r.log.Debug("processed source",
		"file", file,
		"canonical_id", src.CanonicalID,
		"structure", src.Structure,
		"score", src.QualityScore,
		"manual_review", src.ManualReviewRequired)

	return result
}

// buildSource assembles the persistent aggregate from the parsed page and
// the engine result. A page without a usable title falls back to the file
// name stem so the canonical ID stays deterministic.
func (r *Runner) buildSource(doc extract.Document, file string) *domain.MeleSource {
	title := doc.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	res := r.eng.Process(doc.Lyrics.Hawaiian, doc.Lyrics.English)

	status := domain.StatusImported
	if res.Validation.ManualReviewRequired {
		status = domain.StatusFlagged
	}

	return &domain.MeleSource{
		CanonicalID: domain.CanonicalID(title),
		Title:       title,
		Composer:    doc.Composer,
		Translator:  doc.Translator,
		SourceInfo:  doc.SourceInfo,
		SourceFile:  filepath.Base(file),

		SongType:  domain.DetectSongType(res.Sections),
		Structure: res.Structure,
		Pattern:   res.Pattern,
		Document:  domain.NewSongDocument(res.Sections),

		Status:               status,
		QualityScore:         res.Validation.Score,
		ManualReviewRequired: res.Validation.ManualReviewRequired,
		Issues:               res.Validation.Issues,
		StrayText:            res.Validation.StrayText,

		ProcessedAt: time.Now().UTC(),
	}
}

func summarize(results []DocResult, duration time.Duration) *Summary {
	summary := &Summary{Duration: duration.Round(time.Millisecond).String()}

	var scoreSum float64
	var scored int
	for _, res := range results {
		if res.Status == "" {
			continue // never scheduled before cancellation
		}
		summary.Processed++
		summary.Results = append(summary.Results, res)

		switch domain.ProcessingStatus(res.Status) {
		case domain.StatusImported:
			summary.Imported++
		case domain.StatusFlagged:
			summary.Flagged++
		case domain.StatusFailed:
			summary.Failed++
		}

		for _, issueType := range res.IssueTypes {
			if summary.IssueCounts == nil {
				summary.IssueCounts = make(map[string]int)
			}
			summary.IssueCounts[issueType]++
		}

		if res.Error == "" {
			scoreSum += res.QualityScore
			scored++
		}
	}
	if scored > 0 {
		summary.AverageScore = scoreSum / float64(scored)
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].SourceFile < summary.Results[j].SourceFile
	})

	return summary
}
