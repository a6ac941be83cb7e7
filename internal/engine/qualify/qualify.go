// Package qualify scores a segmented song and itemizes its defects.
//
// Every check deducts points from a base score of 100; deductions are
// additive and the final score clamps at 0. The validator is read-only
// over the segmentation output and never mutates it.
package qualify

import (
	"fmt"
	"strings"

	"github.com/huapala/mele-archive/internal/domain"
)

// Deduction weights per check. The low-confidence penalty is capped so a
// long heuristically split song is not buried by one systemic cause.
const (
	deductMissingTranslation = 15.0
	deductLineCountMismatch  = 5.0
	deductStrayPerFragment   = 5.0
	deductStrayCap           = 20.0
	deductInconsistent       = 3.0
	deductPerInferredLine    = 2.0

	// strayHighVolume is the character volume past which stray text is
	// graded high instead of medium.
	strayHighVolume = 200
)

// DefaultReviewThreshold is the score below which a song always goes to
// the manual review queue.
const DefaultReviewThreshold = 70.0

// DefaultLowConfidenceCap bounds the total low_confidence_split penalty.
const DefaultLowConfidenceCap = 10.0

// Config tunes the validator. Zero values select the defaults.
type Config struct {
	ReviewThreshold  float64
	LowConfidenceCap float64
}

func (c Config) withDefaults() Config {
	if c.ReviewThreshold <= 0 {
		c.ReviewThreshold = DefaultReviewThreshold
	}
	if c.LowConfidenceCap <= 0 {
		c.LowConfidenceCap = DefaultLowConfidenceCap
	}
	return c
}

// Input is everything the validator inspects for one song.
type Input struct {
	Tag      domain.StructureTag
	Pattern  domain.VerseLengthPattern
	Sections []domain.Section
	Stray    []string

	// InferredLines counts reconstructed lines that carry the heuristic
	// origin flag.
	InferredLines int
	// EnglishRawLines counts English lines before pairing; it lets the
	// validator notice a translation with no Hawaiian source at all.
	EnglishRawLines int
}

// Validate runs the full check battery and produces the ValidationResult.
func Validate(in Input, cfg Config) domain.ValidationResult {
	cfg = cfg.withDefaults()

	res := domain.ValidationResult{
		Score:     100.0,
		StrayText: in.Stray,
	}

	for _, s := range in.Sections {
		res.HawaiianLines += len(s.HawaiianLines)
		res.EnglishLines += len(s.EnglishLines)
		if s.Type == domain.SectionVerse || s.Type == domain.SectionChorus {
			res.HasVerseStructure = true
		}
	}
	res.HasTranslation = res.EnglishLines > 0

	deduct := func(issue domain.ValidationIssue, points float64) {
		res.Issues = append(res.Issues, issue)
		res.Score -= points
	}

	checkMissingTranslation(in, deduct)
	checkLineCounts(in, deduct)
	checkStray(in, deduct)
	checkStructureConsistency(in, deduct)
	checkLowConfidence(in, cfg, deduct)

	if res.Score < 0 {
		res.Score = 0
	}

	res.ManualReviewRequired = res.Score < cfg.ReviewThreshold || res.HasActionableIssue()

	return res
}

type deductFunc func(issue domain.ValidationIssue, points float64)

// checkMissingTranslation flags sections whose Hawaiian lines have no
// paired English lines, and the degenerate case of a translation with no
// Hawaiian source at all.
func checkMissingTranslation(in Input, deduct deductFunc) {
	if len(in.Sections) == 0 {
		if in.EnglishRawLines > 0 {
			deduct(domain.ValidationIssue{
				Type:        domain.IssueMissingTranslation,
				Severity:    domain.SeverityHigh,
				Description: "english text present but no hawaiian source lines",
				Location:    "document",
			}, deductMissingTranslation)
		}
		return
	}

	for _, s := range in.Sections {
		if len(s.HawaiianLines) > 0 && len(s.EnglishLines) == 0 {
			deduct(domain.ValidationIssue{
				Type:        domain.IssueMissingTranslation,
				Severity:    domain.SeverityHigh,
				Description: "section has no paired english translation",
				Location:    s.Label(),
				Sample:      s.HawaiianLines[0],
			}, deductMissingTranslation)
		}
	}
}

// checkLineCounts verifies strophic sections against the pattern constant.
func checkLineCounts(in Input, deduct deductFunc) {
	switch in.Tag {
	case domain.StructureFourLineStrophic, domain.StructureTwoLineStrophic, domain.StructureStrophic:
	default:
		return
	}

	expected, ok := in.Pattern.Constant()
	if !ok {
		expected = majorityLength(in.Pattern)
	}
	if expected == 0 {
		return
	}

	for _, s := range in.Sections {
		if got := len(s.HawaiianLines); got != expected {
			deduct(domain.ValidationIssue{
				Type:        domain.IssueLineCountMismatch,
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("section has %d lines, pattern expects %d", got, expected),
				Location:    s.Label(),
			}, deductLineCountMismatch)
		}
	}
}

// checkStray grades leftover unassigned text, scaling severity with
// volume.
func checkStray(in Input, deduct deductFunc) {
	if len(in.Stray) == 0 {
		return
	}

	points := deductStrayPerFragment * float64(len(in.Stray))
	if points > deductStrayCap {
		points = deductStrayCap
	}

	volume := 0
	for _, s := range in.Stray {
		volume += len(s)
	}
	severity := domain.SeverityMedium
	if volume > strayHighVolume || points >= deductStrayCap {
		severity = domain.SeverityHigh
	}

	deduct(domain.ValidationIssue{
		Type:        domain.IssueStrayText,
		Severity:    severity,
		Description: fmt.Sprintf("%d unassigned text fragments", len(in.Stray)),
		Location:    "document",
		Sample:      truncate(strings.Join(in.Stray, " / "), 120),
	}, points)
}

// checkStructureConsistency flags near-regular songs: a majority of
// sections share one length but at least one deviates, which usually
// means a mis-split rather than a genuinely through-composed form.
func checkStructureConsistency(in Input, deduct deductFunc) {
	if in.Tag != domain.StructureThroughComposed || len(in.Pattern) < 2 {
		return
	}
	if _, ok := in.Pattern.Constant(); ok {
		return
	}
	if majorityLength(in.Pattern) == 0 {
		return
	}

	deduct(domain.ValidationIssue{
		Type:        domain.IssueInconsistentStructure,
		Severity:    domain.SeverityLow,
		Description: fmt.Sprintf("most sections share a length but pattern %v is irregular", in.Pattern),
		Location:    "document",
	}, deductInconsistent)
}

// checkLowConfidence flags heuristic line splits and the single-section
// ambiguity the classifier declines to resolve.
func checkLowConfidence(in Input, cfg Config, deduct deductFunc) {
	if in.InferredLines > 0 {
		points := deductPerInferredLine * float64(in.InferredLines)
		if points > cfg.LowConfidenceCap {
			points = cfg.LowConfidenceCap
		}
		deduct(domain.ValidationIssue{
			Type:        domain.IssueLowConfidenceSplit,
			Severity:    domain.SeverityLow,
			Description: fmt.Sprintf("%d lines reconstructed heuristically from run-on text", in.InferredLines),
			Location:    "document",
		}, points)
	}

	if len(in.Pattern) == 1 && in.Tag == domain.StructureThroughComposed {
		deduct(domain.ValidationIssue{
			Type:        domain.IssueLowConfidenceSplit,
			Severity:    domain.SeverityLow,
			Description: "single section; structural form cannot be established from one sample",
			Location:    "document",
		}, deductPerInferredLine)
	}
}

// majorityLength returns the section length shared by a strict majority
// of sections, or 0 when no length dominates.
func majorityLength(p domain.VerseLengthPattern) int {
	counts := map[int]int{}
	for _, n := range p {
		counts[n]++
	}
	for n, c := range counts {
		if c*2 > len(p) {
			return n
		}
	}
	return 0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
