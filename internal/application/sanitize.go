package application

import (
	"html"
	"strings"
)

// textEscaper escapes the characters that are unsafe in HTML text and attributes.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	"\\", "&#x5C;",
	"`", "&#96;",
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func unescapeText(s string) string {
	return html.UnescapeString(s)
}
