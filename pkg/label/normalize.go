package label

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Line is one non-blank line of OCR text.
type Line struct {
	// Index counts kept lines only; proximity search uses it.
	Index int
	// Text is trimmed with whitespace collapsed; case is preserved.
	Text string
	// Match is Text lowercased with diacritics removed, for label matching.
	Match string
	// Compact is Match without spaces.
	Compact string
}

// StripDiacritics removes combining marks: "Ôty" -> "Oty", "åty" -> "aty".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize splits text into lines, drops blanks and builds the matching views.
func Normalize(text string) []Line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		t := strings.Join(strings.Fields(raw), " ")
		if t == "" {
			continue
		}
		m := strings.ToLower(StripDiacritics(t))
		lines = append(lines, Line{
			Index:   len(lines),
			Text:    t,
			Match:   m,
			Compact: strings.ReplaceAll(m, " ", ""),
		})
	}
	return lines
}

// AfterColon returns the trimmed text following the first colon, or "".
func (l Line) AfterColon() string {
	if i := strings.IndexByte(l.Text, ':'); i >= 0 {
		return strings.TrimSpace(l.Text[i+1:])
	}
	return ""
}

// LabelKey is the compact text before the first colon, or the whole compact
// line when there is none.
func (l Line) LabelKey() string {
	if i := strings.IndexByte(l.Compact, ':'); i >= 0 {
		return l.Compact[:i]
	}
	return l.Compact
}

// Tokens splits the line into value-like tokens.
func (l Line) Tokens() []string { return tokenize(l.Text) }

func tokenize(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(":;|()[]{}\"'", r)
	})
	out := parts[:0]
	for _, p := range parts {
		p = strings.Trim(p, ".,-_")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
