package pipeline

import (
	"context"
	"errors"
	"fmt"
)

type Runner interface {
	Run(ctx context.Context) error
}

// SummaryJob chains crawl, validate and translate. A failing stage is
// recorded but never blocks the stages after it.
func SummaryJob(cfg *Config, crawl Runner, validator *Validator, translator *Translator) Job {
	return func(ctx context.Context) error {
		var errs []error

		if cfg.CrawlEnabled {
			if err := crawl.Run(ctx); err != nil {
				errs = append(errs, fmt.Errorf("crawl: %w", err))
			}
		}
		if cfg.ValidateEnabled {
			if err := validator.Run(ctx); err != nil {
				errs = append(errs, fmt.Errorf("validate: %w", err))
			}
		}
		if cfg.TranslateEnabled {
			for _, target := range cfg.TargetLanguages {
				if err := translator.Run(ctx, target); err != nil {
					errs = append(errs, fmt.Errorf("translate %s: %w", target, err))
				}
			}
		}

		return errors.Join(errs...)
	}
}

// DigestJob chains digest composition and posting per language.
func DigestJob(cfg *Config, composer *Composer, post *PostStage) Job {
	return func(ctx context.Context) error {
		var errs []error

		if cfg.DigestEnabled {
			for _, lang := range cfg.Languages {
				if err := composer.Run(ctx, lang); err != nil {
					errs = append(errs, fmt.Errorf("digest %s: %w", lang, err))
				}
			}
		}
		if cfg.PostEnabled {
			if err := post.Run(ctx); err != nil {
				errs = append(errs, fmt.Errorf("post: %w", err))
			}
		}

		return errors.Join(errs...)
	}
}
