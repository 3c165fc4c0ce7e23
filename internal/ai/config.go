package ai

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL   string
	APIKey    string
	FastModel string
	DeepModel string
	RPM       int
	MaxWait   time.Duration
}

func LoadConfigFromEnv() (*Config, error) {
	baseUrl := os.Getenv("AI_BASE_URL")
	if baseUrl == "" {
		return nil, errors.New("AI_BASE_URL environment variable not set")
	}

	fast := os.Getenv("AI_MODEL_FAST")
	if fast == "" {
		return nil, errors.New("AI_MODEL_FAST environment variable not set")
	}

	deep := os.Getenv("AI_MODEL_DEEP")
	if deep == "" {
		deep = fast
	}

	rpm := 30
	if v := os.Getenv("AI_RPM"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err == nil && parsed > 0 {
			rpm = parsed
		}
	}

	maxWait := 30 * time.Second
	if v := os.Getenv("AI_MAX_WAIT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err == nil {
			maxWait = parsed
		}
	}

	return &Config{
		BaseURL:   baseUrl,
		APIKey:    os.Getenv("AI_API_KEY"),
		FastModel: fast,
		DeepModel: deep,
		RPM:       rpm,
		MaxWait:   maxWait,
	}, nil
}

func (c *Config) Models() map[Tier]string {
	return map[Tier]string{
		TierFast: c.FastModel,
		TierDeep: c.DeepModel,
	}
}
