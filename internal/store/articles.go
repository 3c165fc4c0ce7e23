package store

import (
	"context"
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ArticleStore struct {
	db *pgxpool.Pool
}

func NewArticleStore(pool *ConnectionPool) *ArticleStore {
	return &ArticleStore{db: pool.conn}
}

func (s *ArticleStore) Save(ctx context.Context, article domain.Article) (uuid.UUID, error) {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if article.CollectedAt.IsZero() {
		article.CollectedAt = time.Now().UTC()
	}

	cmd := `
		INSERT INTO articles (id, source_id, url, title, published_at, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`
	var id uuid.UUID
	err := s.db.QueryRow(
		ctx,
		cmd,
		article.ID,
		article.SourceID,
		article.URL,
		article.Title,
		article.PublishedAt,
		article.CollectedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert article: %w", err)
	}

	return id, nil
}

func (s *ArticleStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url = $1);`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article url: %w", err)
	}
	return exists, nil
}

func (s *ArticleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	var a domain.Article
	err := s.db.QueryRow(ctx, `
		SELECT id, source_id, url, title, published_at, collected_at
		FROM articles
		WHERE id = $1;
	`, id).Scan(&a.ID, &a.SourceID, &a.URL, &a.Title, &a.PublishedAt, &a.CollectedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get article %s: %w", id, err)
	}
	return &a, nil
}
