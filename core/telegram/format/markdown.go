// Package format holds Telegram text formatting helpers.
package format

import "strings"

const mdSpecials = "_*`["

// EscapeMarkdown escapes Telegram Markdown (V1) special characters so
// user-provided names render literally inside formatted messages.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 128 && strings.ContainsRune(mdSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
