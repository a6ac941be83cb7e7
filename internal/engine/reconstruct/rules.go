// Package reconstruct rebuilds lyric lines from raw extracted text.
//
// Text carrying explicit delimiters (\r\n, \n, \r) splits on them exactly.
// Run-on text, the artifact of legacy <br> stripping, goes through an
// ordered table of language-specific break rules instead, and every line
// produced that way carries the Inferred flag.
package reconstruct

import (
	"regexp"
	"strings"
)

// Rule is one heuristic break rule. Pattern matches are rewritten with
// Replace, which inserts "\n" at the break point. Rules apply in table
// order; ordering is load-bearing because later rules see the text the
// earlier rules already rewrote.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
}

// Apply rewrites all matches in the text.
func (r Rule) Apply(text string) string {
	return r.Pattern.ReplaceAllString(text, r.Replace)
}

// DefaultHawaiianMarkers is the closed set of particles that conventionally
// open a lyric line in Hawaiian verse: vocative e, object marker iā,
// locatives ma and i, possessive-linking ʻo/o/no, and the common
// determiners. The set was tuned against the Huapala corpus and is
// configuration, not settled grammar.
var DefaultHawaiianMarkers = []string{
	"E", "Iā", "I", "ʻO", "O", "Ma", "Me", "Mai", "No", "Ke", "Ka", "He", "Ua",
}

// HawaiianRules builds the break table for Hawaiian text. markers is the
// set of line-opening particles; an empty slice selects
// DefaultHawaiianMarkers. Breaks are only inserted after sentence or
// clause punctuation, never before arbitrary capitalized words, which in
// mele are usually proper nouns continuing the line.
func HawaiianRules(markers []string) []Rule {
	if len(markers) == 0 {
		markers = DefaultHawaiianMarkers
	}
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	alternation := strings.Join(quoted, "|")

	return []Rule{
		{
			Name:    "sentence-final capital",
			Pattern: regexp.MustCompile(`([.!?])[ \t]+([A-ZĀĒĪŌŪʻ])`),
			Replace: "$1\n$2",
		},
		{
			Name:    "clause-final marker particle",
			Pattern: regexp.MustCompile(`([,;:])[ \t]+((?:` + alternation + `)[ \t])`),
			Replace: "$1\n$2",
		},
	}
}

// EnglishRules builds the break table for English translation text.
func EnglishRules() []Rule {
	return []Rule{
		{
			Name:    "sentence start",
			Pattern: regexp.MustCompile(`([a-z][.!?])[ \t]+([A-Z])`),
			Replace: "$1\n$2",
		},
		{
			Name:    "opening quotation",
			Pattern: regexp.MustCompile(`[ \t]+(["“][A-Za-z])`),
			Replace: "\n$1",
		},
		{
			Name:    "line-initial To",
			Pattern: regexp.MustCompile(`([a-z],)[ \t]+(To[ \t])`),
			Replace: "$1\n$2",
		},
	}
}
