// Package validator flags translations that do not look like the target
// language, which is how a confused LLM backend usually fails.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/pdxtran/internal/detector"
)

// ErrWrongLanguage is wrapped by Check when the detected language differs
// from the target.
var ErrWrongLanguage = errors.New("translation is not in the target language")

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

type Validator struct {
	det *detector.Detector
}

// New wraps det, or a detector for the game languages when det is nil. The
// detector is expensive to build; share it.
func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// Check returns nil when translated plausibly is in targetLang. Region
// subtags are ignored, so pt-BR accepts Portuguese. Short texts, texts whose
// language cannot be determined and unparsable targets pass.
func (v *Validator) Check(translated, targetLang string) error {
	tag, err := language.Parse(strings.TrimSpace(targetLang))
	if err != nil {
		return nil
	}
	want, _ := tag.Base()

	text := strings.TrimSpace(translated)
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}
	if detected != want.String() {
		return fmt.Errorf("expected %s but detected %s: %w", want, detected, ErrWrongLanguage)
	}
	return nil
}
