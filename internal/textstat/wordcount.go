package textstat

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

// Count returns the word count of text. Chinese prose carries no whitespace
// between words, so counting splits on rune class: every Han character counts
// as one word, and the remaining text counts by whitespace-separated fields.
// Fields with no letter or digit (bare punctuation) don't count.
func Count(text string) int {
	if text == "" {
		return 0
	}

	han := 0
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			han++
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}

	words := 0
	for _, f := range strings.Fields(b.String()) {
		if hasWordRune(f) {
			words++
		}
	}
	return han + words
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// Detector identifies the dominant language of article text. The underlying
// models load lazily on first use and are safe for concurrent callers.
type Detector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewDetector creates a Detector for the languages the harvester encounters.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the lowercase ISO 639-1 code of the dominant language of
// text ("zh", "en"), or "" when detection is inconclusive.
func (d *Detector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Chinese, lingua.English).
			Build()
	})

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
