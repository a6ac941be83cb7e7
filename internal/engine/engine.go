// Package engine composes the processing stages for one song: line
// reconstruction, structure classification, verse segmentation and
// quality validation.
//
// Process is pure, total and deterministic: for any pair of text inputs,
// including empty ones, it returns a result. Ambiguity degrades into
// issues and a lower score, never into an error.
package engine

import (
	"log/slog"

	"github.com/huapala/mele-archive/internal/domain"
	"github.com/huapala/mele-archive/internal/engine/qualify"
	"github.com/huapala/mele-archive/internal/engine/reconstruct"
	"github.com/huapala/mele-archive/internal/engine/segment"
	"github.com/huapala/mele-archive/internal/engine/structure"
)

// Config tunes the stages. Zero values select stage defaults.
type Config struct {
	RunOnThreshold   int
	HawaiianMarkers  []string
	ReviewThreshold  float64
	LowConfidenceCap float64
}

// Engine runs the song processing pipeline.
type Engine struct {
	splitter *reconstruct.Splitter
	qcfg     qualify.Config
	log      *slog.Logger
}

// New creates an Engine. log may be nil; tracing is then discarded.
func New(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		splitter: reconstruct.New(reconstruct.Config{
			RunOnThreshold:  cfg.RunOnThreshold,
			HawaiianMarkers: cfg.HawaiianMarkers,
		}),
		qcfg: qualify.Config{
			ReviewThreshold:  cfg.ReviewThreshold,
			LowConfidenceCap: cfg.LowConfidenceCap,
		},
		log: log,
	}
}

// Result is the engine's product for one song.
type Result struct {
	Structure  domain.StructureTag
	Pattern    domain.VerseLengthPattern
	Sections   []domain.Section
	Validation domain.ValidationResult
}

// Process runs the full pipeline over one raw text pair. Hawaiian
// structure governs classification; the English side is paired
// positionally and its remainder becomes stray text.
func (e *Engine) Process(hawaiianRaw, englishRaw string) Result {
	hawaiian := e.splitter.Lines(hawaiianRaw, domain.LanguageHawaiian)
	english := e.splitter.Lines(englishRaw, domain.LanguageEnglish)
	e.log.Debug("lines reconstructed",
		slog.Int("hawaiian", len(hawaiian)),
		slog.Int("english", len(english)),
	)

	analysis := structure.Classify(hawaiian)
	e.log.Debug("structure classified",
		slog.String("tag", analysis.Tag.String()),
		slog.Any("pattern", analysis.Pattern),
	)

	englishBlocks := structure.ResolveMarkers(structure.SplitBlocks(english))
	seg := segment.Build(analysis.Tag, analysis.Blocks, englishBlocks)

	validation := qualify.Validate(qualify.Input{
		Tag:             analysis.Tag,
		Pattern:         analysis.Pattern,
		Sections:        seg.Sections,
		Stray:           seg.StrayText,
		InferredLines:   countInferred(hawaiian) + countInferred(english),
		EnglishRawLines: countNonBlank(english),
	}, e.qcfg)
	e.log.Debug("song validated",
		slog.Float64("score", validation.Score),
		slog.Bool("review", validation.ManualReviewRequired),
		slog.Int("issues", len(validation.Issues)),
	)

	return Result{
		Structure:  analysis.Tag,
		Pattern:    analysis.Pattern,
		Sections:   seg.Sections,
		Validation: validation,
	}
}

func countInferred(lines []domain.Line) int {
	n := 0
	for _, l := range lines {
		if l.Inferred {
			n++
		}
	}
	return n
}

func countNonBlank(lines []domain.Line) int {
	n := 0
	for _, l := range lines {
		if !l.IsBlank() {
			n++
		}
	}
	return n
}
