package adapter

import (
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/pemistahl/lingua-go"
)

var detector = lingua.NewLanguageDetectorBuilder().
	FromLanguages(lingua.English, lingua.Serbian).
	Build()

// DetectLanguage tags extracted content with one of the supported
// languages. The second return is false when detection is inconclusive;
// callers fall back to the source's default.
func DetectLanguage(text string) (domain.Language, bool) {
	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return domain.DefaultLanguage, false
	}

	switch lang {
	case lingua.English:
		return domain.LanguageEnglish, true
	case lingua.Serbian:
		return domain.LanguageSerbian, true
	default:
		return domain.DefaultLanguage, false
	}
}
