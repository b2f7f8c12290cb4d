// Package detector guesses the language of localisation strings so that a
// translation run started with --source auto can name its source language.
package detector

import (
	"strings"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/pdxtran/internal/segment"
)

// minLetters is the shortest sample worth voting with.
const minLetters = 6

// GameLanguages are the languages Paradox titles ship localisation for.
var GameLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Russian,
	lingua.Polish,
	lingua.Turkish,
	lingua.Korean,
	lingua.Japanese,
	lingua.Chinese,
	lingua.Ukrainian,
}

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector restricted to languages, or to GameLanguages when
// none are given.
func New(languages ...lingua.Language) *Detector {
	if len(languages) == 0 {
		languages = GameLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()

	return &Detector{detector: detector}
}

// Detect ignores game markup and answers only for samples with enough
// letters to be meaningful.
func (d *Detector) Detect(text string) (lingua.Language, bool) {
	sample := plainText(text)
	if countLetters(sample) < minLetters {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(sample)
}

// DetectISO returns the lower-case ISO 639-1 code of text.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// DetectMajority detects every sample and returns the most frequent code.
// Ties go to the code seen first.
func (d *Detector) DetectMajority(samples []string) (string, bool) {
	votes := make(map[string]int)
	var order []string
	for _, s := range samples {
		code, ok := d.DetectISO(s)
		if !ok {
			continue
		}
		if votes[code] == 0 {
			order = append(order, code)
		}
		votes[code]++
	}

	best := ""
	for _, code := range order {
		if votes[code] > votes[best] {
			best = code
		}
	}
	return best, best != ""
}

func plainText(text string) string {
	var sb strings.Builder
	for _, span := range segment.Segment(text) {
		if !span.Protected {
			sb.WriteString(span.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
