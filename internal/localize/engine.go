// Package localize translates localisation strings span by span, sending
// only natural-language text to the backend and keeping game markup intact.
package localize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/pdxtran/internal/chunker"
	"github.com/valpere/pdxtran/internal/segment"
	"github.com/valpere/pdxtran/internal/textcase"
	"github.com/valpere/pdxtran/internal/translator"
)

// ErrUntranslated is returned by TranslateText when the string had text to
// translate but every backend call for it failed. The returned string is
// the original text in that case.
var ErrUntranslated = errors.New("no span could be translated")

// Checker inspects a finished translation. A non-nil error is logged as a
// warning; the translation is kept.
type Checker interface {
	Check(translated, targetLang string) error
}

type Engine struct {
	svc        translator.Service
	sourceLang string
	targetLang string
	checker    Checker
	maxChars   int
	log        zerolog.Logger
}

func New(svc translator.Service, sourceLang, targetLang string, log zerolog.Logger) *Engine {
	e := &Engine{
		svc:        svc,
		sourceLang: sourceLang,
		targetLang: targetLang,
		log:        log.With().Str("component", "localize").Str("service", svc.Name()).Logger(),
	}
	if l, ok := svc.(translator.Limiter); ok {
		e.maxChars = l.MaxChars()
	}
	return e
}

// WithChecker makes TranslateText pass every translated string to c.
func (e *Engine) WithChecker(c Checker) *Engine {
	e.checker = c
	return e
}

// TranslateSpan returns the translation of one span. Protected and blank
// spans come back unchanged without a backend call. A failed or empty
// backend answer also yields the span's own text; only a rate limit is
// reported as an error.
func (e *Engine) TranslateSpan(ctx context.Context, span segment.Span) (string, error) {
	out, _, err := e.translateSpan(ctx, span)
	return out, err
}

// TranslateText segments text, translates every span and reassembles the
// result. It stops at the first rate-limited span.
func (e *Engine) TranslateText(ctx context.Context, text string) (string, error) {
	spans := segment.Segment(text)
	outputs := make([]string, 0, len(spans))

	attempted, translated := 0, 0
	for _, span := range spans {
		out, state, err := e.translateSpan(ctx, span)
		if err != nil {
			return "", err
		}
		switch state {
		case translatedSpan:
			attempted++
			translated++
		case fallbackSpan:
			attempted++
		}
		outputs = append(outputs, out)
	}

	result := Reassemble(text, outputs)
	if attempted > 0 && translated == 0 {
		return text, fmt.Errorf("%q: %w", text, ErrUntranslated)
	}
	if e.checker != nil && translated > 0 {
		if err := e.checker.Check(result, e.targetLang); err != nil {
			e.log.Warn().Err(err).Str("original", text).Str("translation", result).Msg("suspicious translation")
		}
	}
	return result, nil
}

type outcome int

const (
	passedSpan outcome = iota
	translatedSpan
	fallbackSpan
)

func (e *Engine) translateSpan(ctx context.Context, span segment.Span) (string, outcome, error) {
	if span.Protected || strings.TrimSpace(span.Text) == "" {
		return span.Text, passedSpan, nil
	}

	answer, err := e.call(ctx, span.Text)
	if errors.Is(err, translator.ErrRateLimited) {
		return "", fallbackSpan, err
	}
	if err != nil {
		e.log.Warn().Err(err).Str("span", span.Text).Msg("span translation failed, keeping source text")
		return span.Text, fallbackSpan, nil
	}

	out := strings.TrimSpace(answer)
	if out == "" {
		e.log.Warn().Str("span", span.Text).Msg("empty translation, keeping source text")
		return span.Text, fallbackSpan, nil
	}
	if span.LeadingSpace {
		out = " " + out
	}
	if span.TrailingSpace {
		out += " "
	}
	return textcase.Apply(span.Casing, out), translatedSpan, nil
}

// call sends text to the backend, in pieces when it is longer than the
// backend accepts. Whitespace around each piece is kept as it was.
func (e *Engine) call(ctx context.Context, text string) (string, error) {
	pieces := chunker.Split(text, e.maxChars)
	if len(pieces) == 1 {
		return e.request(ctx, text)
	}

	var sb strings.Builder
	for _, piece := range pieces {
		core := strings.TrimSpace(piece)
		if core == "" {
			sb.WriteString(piece)
			continue
		}
		answer, err := e.request(ctx, core)
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return "", nil
		}
		lead := piece[:strings.Index(piece, core)]
		sb.WriteString(lead + answer + piece[len(lead)+len(core):])
	}
	return sb.String(), nil
}

func (e *Engine) request(ctx context.Context, text string) (string, error) {
	res, err := e.svc.Translate(ctx, translator.TranslateRequest{
		Text:       text,
		SourceLang: e.sourceLang,
		TargetLang: e.targetLang,
	})
	if err != nil {
		return "", err
	}
	return res.TranslatedText, nil
}

// Reassemble concatenates span outputs in order. When nothing is left the
// original string is returned so that an empty value never replaces real
// content.
func Reassemble(original string, outputs []string) string {
	var sb strings.Builder
	for _, out := range outputs {
		sb.WriteString(out)
	}
	if sb.Len() == 0 {
		return original
	}
	return sb.String()
}
