package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DigestStore struct {
	db *pgxpool.Pool
}

func NewDigestStore(pool *ConnectionPool) *DigestStore {
	return &DigestStore{db: pool.conn}
}

// Latest returns the most recent digest for a language, or nil when the
// language has none yet.
func (s *DigestStore) Latest(ctx context.Context, lang domain.Language) (*domain.Digest, error) {
	var d domain.Digest
	err := s.db.QueryRow(ctx, `
		SELECT id, title, content, language, period_start, period_end, generated_at, state
		FROM digests
		WHERE language = $1
		ORDER BY generated_at DESC
		LIMIT 1;
	`, lang).Scan(&d.ID, &d.Title, &d.Content, &d.Language, &d.PeriodStart, &d.PeriodEnd, &d.GeneratedAt, &d.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest digest: %w", err)
	}
	return &d, nil
}

// Save persists the digest and its references in one transaction.
func (s *DigestStore) Save(ctx context.Context, digest domain.Digest, refs []domain.DigestRef) (uuid.UUID, error) {
	if digest.ID == uuid.Nil {
		digest.ID = uuid.New()
	}
	if digest.GeneratedAt.IsZero() {
		digest.GeneratedAt = time.Now().UTC()
	}
	if digest.State == "" {
		digest.State = domain.DigestStateCreated
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO digests (id, title, content, language, period_start, period_end, generated_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, digest.ID, digest.Title, digest.Content, digest.Language,
		digest.PeriodStart, digest.PeriodEnd, digest.GeneratedAt, digest.State)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert digest: %w", err)
	}

	for i, ref := range refs {
		_, err = tx.Exec(ctx, `
			INSERT INTO digest_refs (digest_id, summary_id, title, url, reason, pos)
			VALUES ($1, $2, $3, $4, $5, $6);
		`, digest.ID, ref.SummaryID, ref.Title, ref.URL, ref.Reason, i)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert digest ref: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit digest: %w", err)
	}
	return digest.ID, nil
}

func (s *DigestStore) ListByState(ctx context.Context, state domain.DigestState, limit int) ([]domain.Digest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, content, language, period_start, period_end, generated_at, state
		FROM digests
		WHERE state = $1
		ORDER BY generated_at ASC
		LIMIT $2;
	`, state, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list digests: %w", err)
	}
	defer rows.Close()

	var out []domain.Digest
	for rows.Next() {
		var d domain.Digest
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.Language, &d.PeriodStart, &d.PeriodEnd, &d.GeneratedAt, &d.State); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *DigestStore) SetState(ctx context.Context, id uuid.UUID, state domain.DigestState) error {
	_, err := s.db.Exec(ctx, `UPDATE digests SET state = $2 WHERE id = $1;`, id, state)
	if err != nil {
		return fmt.Errorf("failed to set digest state: %w", err)
	}
	return nil
}
