package reconstruct

import (
	"strings"
	"unicode/utf8"

	"github.com/huapala/mele-archive/internal/domain"
)

// DefaultRunOnThreshold is the rune length below which undelimited text is
// taken as a single line without attempting any heuristic break.
const DefaultRunOnThreshold = 50

// Config tunes the splitter. Zero values select the defaults.
type Config struct {
	RunOnThreshold  int
	HawaiianMarkers []string
}

// Splitter reconstructs lyric lines for both languages of a song.
type Splitter struct {
	threshold int
	hawaiian  []Rule
	english   []Rule
}

// New creates a Splitter with the given configuration.
func New(cfg Config) *Splitter {
	threshold := cfg.RunOnThreshold
	if threshold <= 0 {
		threshold = DefaultRunOnThreshold
	}
	return &Splitter{
		threshold: threshold,
		hawaiian:  HawaiianRules(cfg.HawaiianMarkers),
		english:   EnglishRules(),
	}
}

var newlineNorm = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Lines splits raw text into lyric lines.
//
// Text containing any delimiter splits on delimiters only: the result
// holds exactly one more line than the text holds delimiters, blank lines
// included, and heuristics are never consulted. Undelimited text below
// the run-on threshold is a single line. Undelimited text at or above it
// goes through the rule table, and any split it produces marks every
// resulting line Inferred.
//
// Empty or whitespace-only input yields nil, not an error.
func (s *Splitter) Lines(text string, lang domain.LanguageTag) []domain.Line {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if strings.ContainsAny(text, "\r\n") {
		parts := strings.Split(newlineNorm.Replace(text), "\n")
		lines := make([]domain.Line, len(parts))
		for i, p := range parts {
			lines[i] = domain.Line{Text: domain.CollapseSpaces(p), Language: lang}
		}
		return lines
	}

	collapsed := domain.CollapseSpaces(text)
	if utf8.RuneCountInString(collapsed) < s.threshold {
		return []domain.Line{{Text: collapsed, Language: lang}}
	}

	broken := collapsed
	for _, r := range s.rules(lang) {
		broken = r.Apply(broken)
	}

	parts := strings.Split(broken, "\n")
	inferred := len(parts) > 1
	lines := make([]domain.Line, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lines = append(lines, domain.Line{Text: p, Language: lang, Inferred: inferred})
	}
	return lines
}

func (s *Splitter) rules(lang domain.LanguageTag) []Rule {
	if lang == domain.LanguageEnglish {
		return s.english
	}
	return s.hawaiian
}
