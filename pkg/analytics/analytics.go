// Package analytics implements per-review text analytics: keyword
// extraction against a language stopword set and sentiment scoring.
package analytics

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LanguageAuto selects the stopword set per text using language detection.
const LanguageAuto = "auto"

const minKeywordRunes = 4

// wordRun matches maximal runs of word characters in any script.
var wordRun = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Analytics bundles the text collaborators used for one run.
type Analytics struct {
	scorer   Scorer
	detector *Detector
	lang     string
}

// New returns an Analytics that filters keywords with the stopwords of lang
// and scores sentiment with scorer. With lang "auto", each text's language
// is detected and falls back to Russian when detection is inconclusive.
func New(lang string, scorer Scorer) *Analytics {
	a := &Analytics{scorer: scorer, lang: lang}
	if strings.EqualFold(lang, LanguageAuto) {
		a.detector = NewDetector("russian")
	}
	return a
}

// Language returns the stopword language used for text.
func (a *Analytics) Language(text string) string {
	if a.detector != nil {
		return a.detector.Detect(text)
	}
	return a.lang
}

// Keywords extracts the keyword set of text. Empty text yields nil.
func (a *Analytics) Keywords(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return ExtractKeywords(text, a.Language(text))
}

// Sentiment scores text in [-1, 1]. Empty text scores 0 without
// consulting the model.
func (a *Analytics) Sentiment(text string) float64 {
	return ScoreSentiment(a.scorer, text)
}

// ExtractKeywords lower-cases text, splits it into word runs of at least
// four characters and drops purely numeric tokens and stopwords of lang.
// The result is deduplicated and sorted.
func ExtractKeywords(text, lang string) []string {
	stop := Stopwords(lang)
	seen := make(map[string]struct{})

	for _, word := range wordRun.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(word) < minKeywordRunes {
			continue
		}
		if isNumeric(word) {
			continue
		}
		if _, exists := stop[word]; exists {
			continue
		}
		seen[word] = struct{}{}
	}

	if len(seen) == 0 {
		return nil
	}
	keywords := make([]string, 0, len(seen))
	for word := range seen {
		keywords = append(keywords, word)
	}
	sort.Strings(keywords)
	return keywords
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
