package store

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryStore struct {
	db *pgxpool.Pool
}

func NewCategoryStore(pool *ConnectionPool) *CategoryStore {
	return &CategoryStore{db: pool.conn}
}

func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Ensure inserts any taxonomy names that are not present yet and returns
// the full list. Called once at startup from the configured taxonomy.
func (s *CategoryStore) Ensure(ctx context.Context, names []string) ([]domain.Category, error) {
	for _, name := range names {
		_, err := s.db.Exec(ctx, `
			INSERT INTO categories (id, name)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING;
		`, uuid.New(), name)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure category %q: %w", name, err)
		}
	}
	return s.List(ctx)
}
