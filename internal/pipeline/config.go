package pipeline

import (
	"os"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
)

// Config toggles individual stages and sets the two cycle intervals.
// Disabled stages are skipped; the cycles still run.
type Config struct {
	CrawlEnabled     bool
	ValidateEnabled  bool
	TranslateEnabled bool
	DigestEnabled    bool
	PostEnabled      bool

	SummaryInterval time.Duration
	DigestInterval  time.Duration

	// Languages the digest composer covers; TargetLanguages are the
	// translation targets.
	Languages       []domain.Language
	TargetLanguages []domain.Language
}

func LoadConfigFromEnv() *Config {
	cfg := &Config{
		CrawlEnabled:     envFlag("STAGE_CRAWL", true),
		ValidateEnabled:  envFlag("STAGE_VALIDATE", true),
		TranslateEnabled: envFlag("STAGE_TRANSLATE", true),
		DigestEnabled:    envFlag("STAGE_DIGEST", true),
		PostEnabled:      envFlag("STAGE_POST", true),
		SummaryInterval:  envDuration("SUMMARY_INTERVAL", 30*time.Minute),
		DigestInterval:   envDuration("DIGEST_INTERVAL", time.Hour),
		Languages:        envLanguages("DIGEST_LANGUAGES", []domain.Language{domain.DefaultLanguage}),
		TargetLanguages:  envLanguages("TRANSLATE_LANGUAGES", nil),
	}
	return cfg
}

func envFlag(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true"
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}

func envLanguages(key string, def []domain.Language) []domain.Language {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	var langs []domain.Language
	for _, part := range strings.Split(v, ",") {
		lang := domain.Language(strings.TrimSpace(part))
		if domain.SupportedLanguages[lang] {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		return def
	}
	return langs
}
