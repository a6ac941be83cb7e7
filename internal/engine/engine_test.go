package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/huapala/mele-archive/internal/domain"
)

func TestProcessAlohaOe(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)

	res := e.Process("Aloha ʻoe\nAloha ʻoe", "Farewell to thee\nFarewell to thee")

	if res.Structure != domain.StructureThroughComposed {
		t.Errorf("structure = %v, want through_composed", res.Structure)
	}
	if len(res.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(res.Sections))
	}
	if got := res.Sections[0].HawaiianLines; len(got) != 2 {
		t.Errorf("hawaiian lines = %v, want 2", got)
	}
	if !res.Validation.HasTranslation {
		t.Error("has_english_translation must be true")
	}
	for _, is := range res.Validation.Issues {
		if is.Type == domain.IssueMissingTranslation {
			t.Errorf("missing_translation must not fire with english present: %+v", is)
		}
	}
}

func TestProcessVerseChorus(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)

	hawaiian := strings.Join([]string{
		"He aloha nō", "Ka ua noe", "I ka uka", "O Mānoa",
		"",
		"Hui:",
		"E ō mai", "E kuʻu lei",
		"",
		"Kau mai ka ʻohu", "I nā pali", "He nani ʻiʻo", "Ke ʻike aku",
	}, "\n")
	english := strings.Join([]string{
		"Beloved is", "The misty rain", "In the uplands", "Of Mānoa",
		"",
		"Chorus:",
		"Answer me", "My beloved lei",
		"",
		"The mist settles", "On the cliffs", "Truly beautiful", "To behold",
	}, "\n")

	res := e.Process(hawaiian, english)

	if res.Structure != domain.StructureVerseChorus {
		t.Fatalf("structure = %v, want verse_chorus", res.Structure)
	}
	if len(res.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(res.Sections))
	}

	var choruses, verses []domain.Section
	for _, s := range res.Sections {
		switch s.Type {
		case domain.SectionChorus:
			choruses = append(choruses, s)
		case domain.SectionVerse:
			verses = append(verses, s)
		}
	}
	if len(choruses) != 1 {
		t.Fatalf("got %d chorus sections, want exactly 1", len(choruses))
	}
	if len(verses) != 2 {
		t.Fatalf("got %d verse sections, want 2", len(verses))
	}
	if *verses[0].Order != 1 || *verses[1].Order != 2 {
		t.Errorf("verse numbering = %v, %v; want 1, 2", *verses[0].Order, *verses[1].Order)
	}

	// The chorus pairs with the English chorus block; its marker line is
	// consumed on both sides.
	if !reflect.DeepEqual(choruses[0].EnglishLines, []string{"Answer me", "My beloved lei"}) {
		t.Errorf("chorus english lines = %v", choruses[0].EnglishLines)
	}
}

func TestProcessEmptyHawaiian(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)

	res := e.Process("", "Some translation text\nAnother line")

	if len(res.Sections) != 0 {
		t.Fatalf("got %d sections, want 0", len(res.Sections))
	}
	if res.Validation.HasVerseStructure {
		t.Error("has_verse_structure must be false")
	}
	if !res.Validation.ManualReviewRequired {
		t.Error("manual review must be required")
	}
	if !res.Validation.HasActionableIssue() {
		t.Errorf("want a high severity issue, got %v", res.Validation.Issues)
	}
}

func TestProcessFourLineStrophic(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)

	var b strings.Builder
	for v := range 4 {
		if v > 0 {
			b.WriteString("\n\n")
		}
		for l := range 4 {
			if l > 0 {
				b.WriteString("\n")
			}
			b.WriteString("kaula ")
			b.WriteByte(byte('a' + v))
			b.WriteByte(byte('1' + l))
		}
	}

	res := e.Process(b.String(), "")

	if res.Structure != domain.StructureFourLineStrophic {
		t.Fatalf("structure = %v, want four_line_strophic", res.Structure)
	}
	if !reflect.DeepEqual(res.Pattern, domain.VerseLengthPattern{4, 4, 4, 4}) {
		t.Errorf("pattern = %v, want [4 4 4 4]", res.Pattern)
	}
	for _, is := range res.Validation.Issues {
		if is.Type == domain.IssueLineCountMismatch {
			t.Errorf("unexpected line_count_mismatch: %+v", is)
		}
	}
}

func TestProcessIdempotent(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)

	hawaiian := "He aloha nō ka lua. ʻO ka makani kāʻili aloha ia, E kuʻu lei aloha ē"
	english := "line one\nline two\n\nline three"

	first := e.Process(hawaiian, english)
	second := e.Process(hawaiian, english)

	if !reflect.DeepEqual(first, second) {
		t.Error("process is not deterministic for identical input")
	}
}

func TestProcessEmptyBothSides(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)

	res := e.Process("", "")

	if len(res.Sections) != 0 {
		t.Errorf("sections = %v, want none", res.Sections)
	}
	if res.Validation.HasTranslation {
		t.Error("no translation present")
	}
	// Nothing to validate is still a result, never a panic or error.
	if res.Structure != domain.StructureThroughComposed {
		t.Errorf("structure = %v", res.Structure)
	}
}

func TestProcessRoundTripMultiset(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)

	hawaiian := "h one\nh two\n\nh three\nh four"
	english := "e one\ne two\n\ne three\ne four\n\ne stray"

	res := e.Process(hawaiian, english)

	counts := map[string]int{}
	for _, s := range res.Sections {
		for _, l := range s.HawaiianLines {
			counts[l]++
		}
		for _, l := range s.EnglishLines {
			counts[l]++
		}
	}
	for _, l := range res.Validation.StrayText {
		counts[l]++
	}

	for _, want := range []string{"h one", "h two", "h three", "h four", "e one", "e two", "e three", "e four", "e stray"} {
		if counts[want] != 1 {
			t.Errorf("line %q appears %d times, want exactly once", want, counts[want])
		}
	}
}
