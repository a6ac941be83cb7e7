// Package structure classifies the poetic form of a reconstructed mele.
//
// Signal computation and the tag decision are kept separate: the blocks
// and marker flags are computed first, then a small decision table maps
// the signal tuple to exactly one StructureTag.
package structure

import (
	"regexp"

	"github.com/huapala/mele-archive/internal/domain"
)

// markerPattern matches a standalone chorus label: "Hui", "Hui:",
// "CHORUS:" and casing variants. The marker must be the whole line;
// "Huihui ʻana" is lyric text, not a label.
var markerPattern = regexp.MustCompile(`(?i)^\s*(hui|chorus)\s*:?\s*$`)

// IsChorusMarker reports whether the line is a standalone hui/chorus label.
func IsChorusMarker(text string) bool {
	return markerPattern.MatchString(text)
}

// Block is one blank-line-delimited group of lyric lines after marker
// resolution. Chorus marks a block introduced by a hui/chorus label.
type Block struct {
	Lines  []domain.Line
	Chorus bool
}

// Analysis is the classifier's full output for one language side.
type Analysis struct {
	Tag     domain.StructureTag
	Pattern domain.VerseLengthPattern
	Blocks  []Block
}

// SplitBlocks groups consecutive non-blank lines, using blank lines as
// section boundaries.
func SplitBlocks(lines []domain.Line) [][]domain.Line {
	var blocks [][]domain.Line
	var cur []domain.Line
	for _, l := range lines {
		if l.IsBlank() {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// ResolveMarkers turns hui/chorus labels into chorus flags. A block that
// is nothing but the label marks the NEXT block as the chorus; a label
// leading a block marks that block, with the label line dropped. Label
// lines never survive as lyric text.
func ResolveMarkers(raw [][]domain.Line) []Block {
	var out []Block
	pendingChorus := false
	for _, b := range raw {
		chorus := pendingChorus
		pendingChorus = false

		if markerOnly(b) {
			pendingChorus = true
			continue
		}
		if IsChorusMarker(b[0].Text) {
			chorus = true
			b = b[1:]
		}

		out = append(out, Block{Lines: b, Chorus: chorus})
	}
	return out
}

func markerOnly(b []domain.Line) bool {
	for _, l := range b {
		if !IsChorusMarker(l.Text) {
			return false
		}
	}
	return len(b) > 0
}

// Signals is the tuple the decision table maps to a StructureTag.
type Signals struct {
	HasChorus bool
	Pattern   domain.VerseLengthPattern
}

// ComputeSignals derives the classification signals from resolved blocks.
func ComputeSignals(blocks []Block) Signals {
	sig := Signals{Pattern: make(domain.VerseLengthPattern, 0, len(blocks))}
	for _, b := range blocks {
		sig.Pattern = append(sig.Pattern, len(b.Lines))
		if b.Chorus {
			sig.HasChorus = true
		}
	}
	return sig
}

// Decide maps a signal tuple to exactly one StructureTag:
//
//	chorus marker present   → verse_chorus
//	under two sections      → through_composed
//	every section 4 lines   → four_line_strophic
//	every section 2 lines   → two_line_strophic
//	every section N lines   → strophic
//	mixed section lengths   → through_composed
//
// A single-section song cannot establish regularity from one sample, so
// it is through_composed; the validator flags the ambiguity rather than
// the classifier guessing.
func Decide(sig Signals) domain.StructureTag {
	if sig.HasChorus {
		return domain.StructureVerseChorus
	}
	if len(sig.Pattern) < 2 {
		return domain.StructureThroughComposed
	}
	n, ok := sig.Pattern.Constant()
	if !ok {
		return domain.StructureThroughComposed
	}
	switch n {
	case 4:
		return domain.StructureFourLineStrophic
	case 2:
		return domain.StructureTwoLineStrophic
	default:
		return domain.StructureStrophic
	}
}

// Classify runs block splitting, marker resolution, signal computation and
// the decision table over the Hawaiian line sequence.
func Classify(lines []domain.Line) Analysis {
	blocks := ResolveMarkers(SplitBlocks(lines))
	sig := ComputeSignals(blocks)
	return Analysis{Tag: Decide(sig), Pattern: sig.Pattern, Blocks: blocks}
}
