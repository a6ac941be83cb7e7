package domain

import "time"

// SongType records which languages actually carry text in a song.
type SongType string

const (
	SongTypeBilingual    SongType = "bilingual"
	SongTypeHawaiianOnly SongType = "hawaiian_only"
	SongTypeHapaHaole    SongType = "hapa_haole"
	SongTypeUnknown      SongType = "unknown"
)

func (s SongType) String() string { return string(s) }

func (s SongType) IsValid() bool {
	switch s {
	case SongTypeBilingual, SongTypeHawaiianOnly, SongTypeHapaHaole, SongTypeUnknown:
		return true
	}
	return false
}

// DetectSongType derives the song type from which sides carry text.
// Hapa haole songs are English-language mele with no Hawaiian lyrics.
func DetectSongType(sections []Section) SongType {
	var hawaiian, english bool
	for _, s := range sections {
		if len(s.HawaiianLines) > 0 {
			hawaiian = true
		}
		if len(s.EnglishLines) > 0 {
			english = true
		}
	}

	switch {
	case hawaiian && english:
		return SongTypeBilingual
	case hawaiian:
		return SongTypeHawaiianOnly
	case english:
		return SongTypeHapaHaole
	default:
		return SongTypeUnknown
	}
}

// ProcessingStatus tracks where a source sits in the import lifecycle.
type ProcessingStatus string

const (
	StatusExtracted ProcessingStatus = "extracted"
	StatusImported  ProcessingStatus = "reviewed_and_imported"
	StatusFlagged   ProcessingStatus = "flagged_for_review"
	StatusFailed    ProcessingStatus = "failed"
)

func (s ProcessingStatus) String() string { return string(s) }

func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusExtracted, StatusImported, StatusFlagged, StatusFailed:
		return true
	}
	return false
}

// MeleSource is one processed source document for a canonical song.
// Reprocessing the same source supersedes the stored row and its issues.
type MeleSource struct {
	CanonicalID string
	Title       string
	Composer    string
	Translator  string
	SourceInfo  string
	SourceFile  string

	SongType  SongType
	Structure StructureTag
	Pattern   VerseLengthPattern
	Document  SongDocument

	Status               ProcessingStatus
	QualityScore         float64
	ManualReviewRequired bool
	Issues               []ValidationIssue
	StrayText            []string

	ProcessedAt time.Time
}
