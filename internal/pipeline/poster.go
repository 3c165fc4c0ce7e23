package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
)

// Poster publishes a composed digest to an outside channel. The concrete
// social mechanics live outside this process.
type Poster interface {
	Post(ctx context.Context, digest domain.Digest) error
}

// LogPoster is the default no-op target used when no channel is wired.
type LogPoster struct{}

func (LogPoster) Post(_ context.Context, digest domain.Digest) error {
	slog.Info("digest ready for posting", "digest", digest.ID, "title", digest.Title)
	return nil
}

type PosterDigests interface {
	ListByState(ctx context.Context, state domain.DigestState, limit int) ([]domain.Digest, error)
	SetState(ctx context.Context, id uuid.UUID, state domain.DigestState) error
}

// PostStage pushes every still-unposted digest through the Poster.
type PostStage struct {
	digests PosterDigests
	poster  Poster
}

func NewPostStage(digests PosterDigests, poster Poster) *PostStage {
	return &PostStage{digests: digests, poster: poster}
}

func (p *PostStage) Run(ctx context.Context) error {
	pending, err := p.digests.ListByState(ctx, domain.DigestStateCreated, 20)
	if err != nil {
		return fmt.Errorf("failed to list unposted digests: %w", err)
	}

	for _, digest := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := p.poster.Post(ctx, digest); err != nil {
			slog.Error("digest posting failed", "digest", digest.ID, "error", err)
			continue
		}
		if err := p.digests.SetState(ctx, digest.ID, domain.DigestStatePosted); err != nil {
			slog.Error("failed to mark digest posted", "digest", digest.ID, "error", err)
		}
	}
	return nil
}
