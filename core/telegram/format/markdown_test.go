package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := map[string]string{
		"plain":   "plain",
		"An*na_":  `An\*na\_`,
		"a`b[c]":  "a\\`b\\[c]",
		"Zoë 🎲": "Zoë 🎲",
	}
	for in, want := range cases {
		if got := EscapeMarkdown(in); got != want {
			t.Errorf("EscapeMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}
