// Package segment splits a localisation string into translatable text and
// protected game-engine markup ($VAR$ references, [bracket] expressions,
// #tag# expressions, \n escapes, line breaks and hyphens) so that only
// natural-language text is ever sent to a translation backend.
package segment

import (
	"regexp"
	"strings"

	"github.com/valpere/pdxtran/internal/textcase"
)

// Kind identifies what a span was recognised as.
type Kind int

const (
	Text Kind = iota
	Variable
	Bracket
	Tag
	Escape
	LineBreak
	Hyphen
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Bracket:
		return "bracket"
	case Tag:
		return "tag"
	case Escape:
		return "escape"
	case LineBreak:
		return "linebreak"
	case Hyphen:
		return "hyphen"
	default:
		return "text"
	}
}

// Span is a contiguous piece of the original string.
type Span struct {
	Text          string
	Kind          Kind
	Protected     bool
	LeadingSpace  bool
	TrailingSpace bool
	Casing        textcase.Style
}

var (
	// first pass: $var$, [bracket], #tag#, the two-character \n escape, hyphen
	reFirstPass = regexp.MustCompile(`\$[^$]*\$|\[[^\]]*\]|#[^#]*#|\\n|-`)

	// second pass over leftover text: $var$, [bracket], #tag#, line break
	reSecondPass = regexp.MustCompile(`\$[^$]*\$|\[[^\]]*\]|#[^#]*#|\n`)
)

// protectedPrefixes mark a span as protected no matter how it was split.
var protectedPrefixes = []string{`\`, "#", "$", "[", "-"}

type piece struct {
	text    string
	matched bool
}

// Segment splits text into ordered spans. Concatenating the span texts
// reproduces text exactly; empty input yields no spans.
func Segment(text string) []Span {
	if text == "" {
		return nil
	}

	var pieces []piece
	for _, p := range split(reFirstPass, text) {
		if p.matched || keepWhole(p.text) {
			pieces = append(pieces, p)
			continue
		}
		pieces = append(pieces, split(reSecondPass, p.text)...)
	}

	spans := make([]Span, 0, len(pieces))
	for _, p := range pieces {
		if p.text == "" {
			continue
		}
		spans = append(spans, newSpan(p))
	}
	return spans
}

// Join concatenates span texts in order.
func Join(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// keepWhole reports whether unmatched first-pass text skips the second pass.
// First-pass matches always skip it.
func keepWhole(s string) bool {
	return s == "\n" ||
		strings.HasPrefix(s, "$") ||
		strings.HasPrefix(s, "[") ||
		strings.HasPrefix(s, "#")
}

// split cuts s around every match of re, keeping the matches as their own
// pieces. Leading, trailing and in-between text pieces may be empty.
func split(re *regexp.Regexp, s string) []piece {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []piece{{text: s}}
	}

	out := make([]piece, 0, 2*len(locs)+1)
	prev := 0
	for _, loc := range locs {
		out = append(out, piece{text: s[prev:loc[0]]})
		out = append(out, piece{text: s[loc[0]:loc[1]], matched: true})
		prev = loc[1]
	}
	return append(out, piece{text: s[prev:]})
}

func newSpan(p piece) Span {
	sp := Span{
		Text:          p.text,
		LeadingSpace:  strings.HasPrefix(p.text, " "),
		TrailingSpace: strings.HasSuffix(p.text, " "),
	}
	if p.matched || p.text == "\n" {
		sp.Kind = kindOf(p.text)
	}
	sp.Protected = p.matched || p.text == "\n" || hasProtectedPrefix(p.text)
	if !sp.Protected {
		sp.Casing = textcase.Classify(p.text)
	}
	return sp
}

func kindOf(s string) Kind {
	switch {
	case s == `\n`:
		return Escape
	case s == "\n":
		return LineBreak
	case s == "-":
		return Hyphen
	case strings.HasPrefix(s, "$"):
		return Variable
	case strings.HasPrefix(s, "["):
		return Bracket
	case strings.HasPrefix(s, "#"):
		return Tag
	default:
		return Text
	}
}

func hasProtectedPrefix(s string) bool {
	for _, p := range protectedPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
