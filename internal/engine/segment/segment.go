// Package segment partitions classified lyric blocks into labeled
// sections with positionally paired translations. It is a pure transform:
// ambiguity degrades into stray text, never into an error.
package segment

import (
	"github.com/huapala/mele-archive/internal/domain"
	"github.com/huapala/mele-archive/internal/engine/structure"
)

// Result is the segmenter's output: the ordered section list plus every
// line that could not be assigned to a section. Stray lines are recorded,
// never dropped.
type Result struct {
	Sections  []domain.Section
	StrayText []string
}

// Build partitions the resolved Hawaiian blocks into sections labeled per
// the structure tag and pairs each with the English block at the same
// position. English blocks beyond the Hawaiian count have nowhere to go
// and land in StrayText.
//
// An empty Hawaiian side yields zero sections; any English text then
// becomes stray and the validator reports the absence, so no error is
// raised here.
func Build(tag domain.StructureTag, hawaiian []structure.Block, english []structure.Block) Result {
	var res Result

	verse := 0
	for i, hb := range hawaiian {
		s := domain.Section{
			Type:          sectionType(tag, hb),
			HawaiianLines: texts(hb.Lines),
		}
		if s.Type == domain.SectionVerse {
			verse++
			n := verse
			s.Order = &n
		}
		if i < len(english) {
			s.EnglishLines = texts(english[i].Lines)
		}
		res.Sections = append(res.Sections, s)
	}

	for _, eb := range english[min(len(hawaiian), len(english)):] {
		res.StrayText = append(res.StrayText, texts(eb.Lines)...)
	}

	return res
}

// sectionType labels one block under the given structure tag. Chorus
// blocks keep their label regardless of tag; through-composed songs get
// unlabeled groups; everything else is a verse.
func sectionType(tag domain.StructureTag, b structure.Block) domain.SectionType {
	switch {
	case b.Chorus:
		return domain.SectionChorus
	case tag == domain.StructureThroughComposed:
		return domain.SectionUnlabeled
	default:
		return domain.SectionVerse
	}
}

func texts(lines []domain.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
