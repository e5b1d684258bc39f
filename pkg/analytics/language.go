package analytics

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// supportedLanguages maps detector output to stopword set names.
var supportedLanguages = map[lingua.Language]string{
	lingua.Russian: "russian",
	lingua.English: "english",
}

// Detector picks a stopword language for review text. The underlying
// lingua detector is built on first use since loading its models is slow.
type Detector struct {
	fallback string

	once     sync.Once
	detector lingua.LanguageDetector
}

func NewDetector(fallback string) *Detector {
	return &Detector{fallback: fallback}
}

func (d *Detector) build() {
	languages := make([]lingua.Language, 0, len(supportedLanguages))
	for lang := range supportedLanguages {
		languages = append(languages, lang)
	}
	d.detector = lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
}

// Detect returns the stopword language name for text.
func (d *Detector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return d.fallback
	}
	d.once.Do(d.build)

	language, exists := d.detector.DetectLanguageOf(text)
	if !exists {
		return d.fallback
	}
	if name, ok := supportedLanguages[language]; ok {
		return name
	}
	return d.fallback
}
