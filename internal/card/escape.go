package card

import "strings"

// escaper applies the markup escape table. The & pair is listed first;
// Replacer substitutes in a single pass, so the entities it emits are
// never re-escaped.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape HTML-escapes free-text metadata (artist, album, title) for
// embedding in SVG or HTML output.
//
// Escape is not idempotent: escaping an already-escaped string
// double-encodes &. Callers escape exactly once, at composition time,
// never on storage.
func Escape(s string) string {
	return escaper.Replace(s)
}
