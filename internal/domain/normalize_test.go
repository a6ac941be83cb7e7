package domain

import "testing"

func TestCanonicalID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain ascii title", input: "Aloha Oe", want: "aloha_oe_canonical"},
		{name: "kahako folded", input: "Kāne ʻOhe", want: "kane_ohe_canonical"},
		{name: "okina removed", input: "Ke Aloha O Ka Haku", want: "ke_aloha_o_ka_haku_canonical"},
		{name: "full diacritics", input: "Ka Makani Kāʻili Aloha", want: "ka_makani_kaili_aloha_canonical"},
		{name: "ascii apostrophe as okina", input: "Pu'u Wa'awa'a", want: "puu_waawaa_canonical"},
		{name: "curly apostrophe", input: "Nā Ali’i", want: "na_alii_canonical"},
		{name: "punctuation runs collapse", input: "Hilo -- March!", want: "hilo_march_canonical"},
		{name: "leading and trailing junk", input: "  (Aloha)  ", want: "aloha_canonical"},
		{name: "uppercase macrons", input: "ĀINA", want: "aina_canonical"},
		{name: "empty string", input: "", want: ""},
		{name: "only punctuation", input: "!!!", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CanonicalID(tt.input); got != tt.want {
				t.Errorf("CanonicalID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCollapseSpaces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim", input: "  aloha  ", want: "aloha"},
		{name: "internal runs", input: "aloha   nui  loa", want: "aloha nui loa"},
		{name: "tabs", input: "aloha\t\tnui", want: "aloha nui"},
		{name: "diacritics untouched", input: "  Kāʻili  aloha ", want: "Kāʻili aloha"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \t ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CollapseSpaces(tt.input); got != tt.want {
				t.Errorf("CollapseSpaces(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
