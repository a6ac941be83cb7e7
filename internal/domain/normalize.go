package domain

import (
	"regexp"
	"strings"
)

// diacriticFolds maps kahakō vowels to their base letters and removes the
// ʻokina along with the ASCII apostrophe variants legacy files use for it.
var diacriticFolds = strings.NewReplacer(
	"ā", "a", "ē", "e", "ī", "i", "ō", "o", "ū", "u",
	"Ā", "a", "Ē", "e", "Ī", "i", "Ō", "o", "Ū", "u",
	"ʻ", "", "'", "", "`", "", "’", "", "‘", "",
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// CanonicalID derives the canonical mele identifier from a song title.
// Diacritics fold to plain ASCII, every remaining run of non-alphanumerics
// becomes a single underscore, and the canonical suffix is appended.
//
//	"Ka Makani Kāʻili Aloha" → "ka_makani_kaili_aloha_canonical"
//
// Returns "" for a title with no usable characters.
func CanonicalID(title string) string {
	s := diacriticFolds.Replace(strings.TrimSpace(title))
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return ""
	}
	return s + "_canonical"
}

// CollapseSpaces trims the string and squeezes internal whitespace runs
// into single spaces. Diacritics are preserved verbatim.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
