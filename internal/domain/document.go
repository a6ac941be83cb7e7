package domain

// SongDocument is the nested structure stored as the verses_json JSONB
// column. It is the wire shape the static frontend renders directly.
type SongDocument struct {
	SongType SongType          `json:"song_type"`
	Sections []DocumentSection `json:"sections"`
}

// DocumentSection is one section of the stored document.
type DocumentSection struct {
	Type  SectionType    `json:"type"`
	Order *int           `json:"order,omitempty"`
	Lines []DocumentLine `json:"lines"`
}

// DocumentLine pairs one Hawaiian line with its positional translation.
type DocumentLine struct {
	HawaiianText string `json:"hawaiian_text"`
	EnglishText  string `json:"english_text"`
	IsBilingual  bool   `json:"is_bilingual"`
}

// NewSongDocument pairs each section's Hawaiian and English lines row by
// row. The shorter side pads with empty cells so no line is dropped.
func NewSongDocument(sections []Section) SongDocument {
	doc := SongDocument{
		SongType: DetectSongType(sections),
		Sections: make([]DocumentSection, 0, len(sections)),
	}

	for _, s := range sections {
		n := max(len(s.HawaiianLines), len(s.EnglishLines))
		lines := make([]DocumentLine, n)
		for i := range n {
			var dl DocumentLine
			if i < len(s.HawaiianLines) {
				dl.HawaiianText = s.HawaiianLines[i]
			}
			if i < len(s.EnglishLines) {
				dl.EnglishText = s.EnglishLines[i]
			}
			dl.IsBilingual = dl.HawaiianText != "" && dl.EnglishText != ""
			lines[i] = dl
		}

		doc.Sections = append(doc.Sections, DocumentSection{
			Type:  s.Type,
			Order: s.Order,
			Lines: lines,
		})
	}

	return doc
}

// SectionList inverts NewSongDocument. Empty cells introduced by padding
// are skipped; reconstructed lyric lines are never empty, so the round
// trip is lossless.
func (d SongDocument) SectionList() []Section {
	sections := make([]Section, 0, len(d.Sections))
	for _, ds := range d.Sections {
		s := Section{Type: ds.Type, Order: ds.Order}
		for _, l := range ds.Lines {
			if l.HawaiianText != "" {
				s.HawaiianLines = append(s.HawaiianLines, l.HawaiianText)
			}
			if l.EnglishText != "" {
				s.EnglishLines = append(s.EnglishLines, l.EnglishText)
			}
		}
		sections = append(sections, s)
	}
	return sections
}
