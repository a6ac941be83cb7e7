package domain

// IssueType classifies a single validation finding.
type IssueType string

const (
	IssueMissingTranslation     IssueType = "missing_translation"
	IssueLineCountMismatch      IssueType = "line_count_mismatch"
	IssueStrayText              IssueType = "stray_text"
	IssueInconsistentStructure  IssueType = "inconsistent_structure"
	IssueLowConfidenceSplit     IssueType = "low_confidence_split"
	IssueOther                  IssueType = "other"
)

func (t IssueType) String() string { return string(t) }

func (t IssueType) IsValid() bool {
	switch t {
	case IssueMissingTranslation, IssueLineCountMismatch, IssueStrayText,
		IssueInconsistentStructure, IssueLowConfidenceSplit, IssueOther:
		return true
	}
	return false
}

// IssueSeverity grades how much a finding endangers the extraction.
type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

func (s IssueSeverity) String() string { return string(s) }

func (s IssueSeverity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Actionable reports whether the severity alone forces manual review.
func (s IssueSeverity) Actionable() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// ValidationIssue is one typed finding produced by the quality validator.
// Immutable once created; persisted 1:N from a ValidationResult.
type ValidationIssue struct {
	Type        IssueType
	Severity    IssueSeverity
	Description string
	// Location is a human-readable pointer into the song ("verse 3").
	Location string
	// Sample optionally carries the offending raw content.
	Sample string
}

// ValidationResult aggregates quality findings for one song. It is
// computed fresh on every processing run and supersedes, never mutates,
// the previous run's result.
type ValidationResult struct {
	// Score is the data quality score in [0, 100].
	Score                float64
	ManualReviewRequired bool

	HawaiianLines int
	EnglishLines  int

	// HasVerseStructure is true when at least one section is a verse or
	// chorus (as opposed to an unlabeled through-composed group).
	HasVerseStructure bool
	// HasTranslation is true when any paired English line exists.
	HasTranslation bool

	Issues    []ValidationIssue
	StrayText []string
}

// HasActionableIssue reports whether any issue is high or critical.
func (r ValidationResult) HasActionableIssue() bool {
	for _, is := range r.Issues {
		if is.Severity.Actionable() {
			return true
		}
	}
	return false
}
