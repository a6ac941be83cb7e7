package domain

import (
	"strconv"
	"strings"
)

// LanguageTag identifies which side of a bilingual mele a line belongs to.
type LanguageTag string

const (
	LanguageHawaiian LanguageTag = "hawaiian"
	LanguageEnglish  LanguageTag = "english"
)

func (l LanguageTag) String() string { return string(l) }

func (l LanguageTag) IsValid() bool {
	switch l {
	case LanguageHawaiian, LanguageEnglish:
		return true
	}
	return false
}

// Line is a single reconstructed lyric line. Inferred marks lines produced
// by heuristic splitting of run-on text rather than by explicit delimiters
// in the source; such lines are the main source of mis-segmentation.
type Line struct {
	Text     string
	Language LanguageTag
	Inferred bool
}

// IsBlank reports whether the line holds no visible text.
func (l Line) IsBlank() bool { return strings.TrimSpace(l.Text) == "" }

// RawBlock is the extracted input pair for one song: the Hawaiian and
// English columns of a source document, before any line reconstruction.
// Either side may be empty or fully run-on (no newlines at all).
type RawBlock struct {
	Hawaiian string
	English  string
}

// StructureTag classifies the poetic structure of a mele.
type StructureTag string

const (
	StructureFourLineStrophic StructureTag = "four_line_strophic"
	StructureTwoLineStrophic  StructureTag = "two_line_strophic"
	StructureStrophic         StructureTag = "strophic"
	StructureVerseChorus      StructureTag = "verse_chorus"
	StructureThroughComposed  StructureTag = "through_composed"
)

func (s StructureTag) String() string { return string(s) }

func (s StructureTag) IsValid() bool {
	switch s {
	case StructureFourLineStrophic, StructureTwoLineStrophic, StructureStrophic,
		StructureVerseChorus, StructureThroughComposed:
		return true
	}
	return false
}

// SectionType labels one segmented unit of a song.
type SectionType string

const (
	SectionVerse     SectionType = "verse"
	SectionChorus    SectionType = "chorus"
	SectionUnlabeled SectionType = "unlabeled"
)

func (s SectionType) String() string { return string(s) }

func (s SectionType) IsValid() bool {
	switch s {
	case SectionVerse, SectionChorus, SectionUnlabeled:
		return true
	}
	return false
}

// VerseLengthPattern is the line count of each section in document order.
type VerseLengthPattern []int

// Constant returns the shared line count when every section has the same
// length. ok is false for an empty pattern or mixed lengths.
func (p VerseLengthPattern) Constant() (n int, ok bool) {
	if len(p) == 0 {
		return 0, false
	}
	n = p[0]
	for _, c := range p[1:] {
		if c != n {
			return 0, false
		}
	}
	return n, true
}

// Section is one segmented unit of a mele with positionally paired
// translation lines. Order is 1-based for verses and nil for choruses and
// unlabeled sections. EnglishLines line up with HawaiianLines by position
// but are not guaranteed 1:1.
type Section struct {
	Type          SectionType
	Order         *int
	HawaiianLines []string
	EnglishLines  []string
}

// Label renders a human-readable section pointer ("verse 3", "chorus").
func (s Section) Label() string {
	if s.Type == SectionVerse && s.Order != nil {
		return "verse " + strconv.Itoa(*s.Order)
	}
	return string(s.Type)
}
