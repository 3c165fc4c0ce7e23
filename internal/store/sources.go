package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SourceStore struct {
	db *pgxpool.Pool
}

func NewSourceStore(pool *ConnectionPool) *SourceStore {
	return &SourceStore{db: pool.conn}
}

func (s *SourceStore) ListActive(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, domain, name, adapter_key, options, active, last_crawled_at
		FROM sources
		WHERE active = true
		ORDER BY name;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

// Upsert seeds or updates one source by domain, used at startup when the
// configured source list changes.
func (s *SourceStore) Upsert(ctx context.Context, src domain.Source) error {
	if src.ID == uuid.Nil {
		src.ID = uuid.New()
	}

	optionsJSON, err := json.Marshal(src.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal source options: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO sources (id, domain, name, adapter_key, options, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (domain) DO UPDATE
		SET name = EXCLUDED.name,
		    adapter_key = EXCLUDED.adapter_key,
		    options = EXCLUDED.options,
		    active = EXCLUDED.active;
	`, src.ID, src.Domain, src.Name, src.AdapterKey, optionsJSON, src.Active)
	if err != nil {
		return fmt.Errorf("failed to upsert source %s: %w", src.Domain, err)
	}
	return nil
}

func (s *SourceStore) MarkCrawled(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE sources SET last_crawled_at = $2 WHERE id = $1;`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark source crawled: %w", err)
	}
	return nil
}

func scanSource(row rowScanner) (*domain.Source, error) {
	var src domain.Source
	var optionsJSON []byte
	err := row.Scan(&src.ID, &src.Domain, &src.Name, &src.AdapterKey, &optionsJSON, &src.Active, &src.LastCrawledAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan source: %w", err)
	}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &src.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source options: %w", err)
		}
	}
	return &src, nil
}
