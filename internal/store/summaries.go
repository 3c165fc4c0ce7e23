package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const summaryColumns = "id, article_id, title, body, category_id, language, state, reason, generated_at"

type SummaryStore struct {
	db *pgxpool.Pool
}

func NewSummaryStore(pool *ConnectionPool) *SummaryStore {
	return &SummaryStore{db: pool.conn}
}

// SummaryContext is a summary joined with the display fields the cache
// projection needs. Joins are explicit; there is no lazy navigation.
type SummaryContext struct {
	Summary      domain.Summary
	ArticleURL   string
	SourceID     uuid.UUID
	SourceName   string
	CategoryName string
}

func (s *SummaryStore) Save(ctx context.Context, sum domain.Summary) (uuid.UUID, error) {
	if sum.ID == uuid.Nil {
		sum.ID = uuid.New()
	}
	if sum.GeneratedAt.IsZero() {
		sum.GeneratedAt = time.Now().UTC()
	}
	if sum.State == "" {
		sum.State = domain.SummaryStateCreated
	}

	cmd := `
		INSERT INTO summaries (id, article_id, title, body, category_id, language, state, reason, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;
	`
	var id uuid.UUID
	err := s.db.QueryRow(ctx, cmd,
		sum.ID, sum.ArticleID, sum.Title, sum.Body, sum.CategoryID,
		sum.Language, sum.State, sum.Reason, sum.GeneratedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert summary: %w", err)
	}
	return id, nil
}

func (s *SummaryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Summary, error) {
	row := s.db.QueryRow(ctx, `SELECT `+summaryColumns+` FROM summaries WHERE id = $1;`, id)
	sum, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get summary %s: %w", id, err)
	}
	return sum, nil
}

func (s *SummaryStore) SetState(ctx context.Context, id uuid.UUID, state domain.SummaryState, reason string) error {
	_, err := s.db.Exec(ctx, `UPDATE summaries SET state = $2, reason = $3 WHERE id = $1;`, id, state, reason)
	if err != nil {
		return fmt.Errorf("failed to set summary state: %w", err)
	}
	return nil
}

// SetCategory remaps a summary's category without touching its state.
func (s *SummaryStore) SetCategory(ctx context.Context, id uuid.UUID, categoryID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE summaries SET category_id = $2 WHERE id = $1;`, id, categoryID)
	if err != nil {
		return fmt.Errorf("failed to set summary category: %w", err)
	}
	return nil
}

func (s *SummaryStore) ListByState(ctx context.Context, state domain.SummaryState, limit int) ([]domain.Summary, error) {
	query, args, err := psql.
		Select(summaryColumns).
		From("summaries").
		Where(sq.Eq{"state": state}).
		OrderBy("generated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querySummaries(ctx, query, args...)
}

// ListJudgeableSince returns validated/digested summaries generated at or
// after the given timestamp, for maintenance re-validation.
func (s *SummaryStore) ListJudgeableSince(ctx context.Context, since time.Time, limit int) ([]domain.Summary, error) {
	query, args, err := psql.
		Select(summaryColumns).
		From("summaries").
		Where(sq.Eq{"state": []domain.SummaryState{domain.SummaryStateValidated, domain.SummaryStateDigested}}).
		Where(sq.GtOrEq{"generated_at": since}).
		OrderBy("generated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querySummaries(ctx, query, args...)
}

// ListMissingTranslation returns validated/digested summaries whose article
// has no sibling summary in the target language yet.
func (s *SummaryStore) ListMissingTranslation(ctx context.Context, target domain.Language, limit int) ([]domain.Summary, error) {
	query, args, err := psql.
		Select("s.id, s.article_id, s.title, s.body, s.category_id, s.language, s.state, s.reason, s.generated_at").
		From("summaries s").
		Where(sq.Eq{"s.state": []domain.SummaryState{domain.SummaryStateValidated, domain.SummaryStateDigested}}).
		Where(sq.NotEq{"s.language": target}).
		Where(sq.Expr(
			"NOT EXISTS (SELECT 1 FROM summaries t WHERE t.article_id = s.article_id AND t.language = ?)",
			target,
		)).
		OrderBy("s.generated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querySummaries(ctx, query, args...)
}

func (s *SummaryStore) ExistsSibling(ctx context.Context, articleID uuid.UUID, lang domain.Language) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM summaries WHERE article_id = $1 AND language = $2);`,
		articleID, lang,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sibling summary: %w", err)
	}
	return exists, nil
}

// ListCandidates returns the most recent same-language, same-category
// summaries at or before the pivot timestamp, excluding the pivot itself.
func (s *SummaryStore) ListCandidates(ctx context.Context, lang domain.Language, categoryID uuid.UUID, before time.Time, exclude uuid.UUID, limit int) ([]domain.Summary, error) {
	query, args, err := psql.
		Select(summaryColumns).
		From("summaries").
		Where(sq.Eq{"language": lang, "category_id": categoryID}).
		Where(sq.Eq{"state": []domain.SummaryState{
			domain.SummaryStateCreated,
			domain.SummaryStateValidated,
			domain.SummaryStateDigested,
		}}).
		Where(sq.LtOrEq{"generated_at": before}).
		Where(sq.NotEq{"id": exclude}).
		OrderBy("generated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querySummaries(ctx, query, args...)
}

func (s *SummaryStore) ListValidatedInWindow(ctx context.Context, lang domain.Language, start, end time.Time) ([]domain.Summary, error) {
	query, args, err := psql.
		Select(summaryColumns).
		From("summaries").
		Where(sq.Eq{"language": lang, "state": domain.SummaryStateValidated}).
		Where(sq.GtOrEq{"generated_at": start}).
		Where(sq.Lt{"generated_at": end}).
		OrderBy("generated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querySummaries(ctx, query, args...)
}

// ListValidatedContextsInWindow returns the digest corpus: validated
// summaries of one language inside the window, time-ordered, joined with
// their article URL and display names.
func (s *SummaryStore) ListValidatedContextsInWindow(ctx context.Context, lang domain.Language, start, end time.Time) ([]SummaryContext, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.article_id, s.title, s.body, s.category_id, s.language, s.state, s.reason, s.generated_at,
		       a.url, src.id, src.name, c.name
		FROM summaries s
		JOIN articles a ON a.id = s.article_id
		JOIN sources src ON src.id = a.source_id
		JOIN categories c ON c.id = s.category_id
		WHERE s.language = $1 AND s.state = $2
		  AND s.generated_at >= $3 AND s.generated_at < $4
		ORDER BY s.generated_at ASC;
	`, lang, domain.SummaryStateValidated, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list window contexts: %w", err)
	}
	defer rows.Close()

	var out []SummaryContext
	for rows.Next() {
		var sc SummaryContext
		if err := rows.Scan(
			&sc.Summary.ID, &sc.Summary.ArticleID, &sc.Summary.Title, &sc.Summary.Body,
			&sc.Summary.CategoryID, &sc.Summary.Language, &sc.Summary.State, &sc.Summary.Reason,
			&sc.Summary.GeneratedAt,
			&sc.ArticleURL, &sc.SourceID, &sc.SourceName, &sc.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan window context: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SummaryStore) MarkDigested(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`UPDATE summaries SET state = $2 WHERE id = ANY($1);`,
		ids, domain.SummaryStateDigested,
	)
	if err != nil {
		return fmt.Errorf("failed to mark summaries digested: %w", err)
	}
	return nil
}

// GetContext loads a summary joined with its article, source and category
// display fields in one explicit query.
func (s *SummaryStore) GetContext(ctx context.Context, id uuid.UUID) (*SummaryContext, error) {
	var sc SummaryContext
	err := s.db.QueryRow(ctx, `
		SELECT s.id, s.article_id, s.title, s.body, s.category_id, s.language, s.state, s.reason, s.generated_at,
		       a.url, src.id, src.name, c.name
		FROM summaries s
		JOIN articles a ON a.id = s.article_id
		JOIN sources src ON src.id = a.source_id
		JOIN categories c ON c.id = s.category_id
		WHERE s.id = $1;
	`, id).Scan(
		&sc.Summary.ID, &sc.Summary.ArticleID, &sc.Summary.Title, &sc.Summary.Body,
		&sc.Summary.CategoryID, &sc.Summary.Language, &sc.Summary.State, &sc.Summary.Reason,
		&sc.Summary.GeneratedAt,
		&sc.ArticleURL, &sc.SourceID, &sc.SourceName, &sc.CategoryName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary context %s: %w", id, err)
	}
	return &sc, nil
}

// ListContexts pages through every non-discarded summary of one language,
// oldest first, for cache rebuilds.
func (s *SummaryStore) ListContexts(ctx context.Context, lang domain.Language, offset, limit int) ([]SummaryContext, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.article_id, s.title, s.body, s.category_id, s.language, s.state, s.reason, s.generated_at,
		       a.url, src.id, src.name, c.name
		FROM summaries s
		JOIN articles a ON a.id = s.article_id
		JOIN sources src ON src.id = a.source_id
		JOIN categories c ON c.id = s.category_id
		WHERE s.language = $1 AND s.state != $2
		ORDER BY s.generated_at ASC
		OFFSET $3 LIMIT $4;
	`, lang, domain.SummaryStateDiscarded, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summary contexts: %w", err)
	}
	defer rows.Close()

	var out []SummaryContext
	for rows.Next() {
		var sc SummaryContext
		if err := rows.Scan(
			&sc.Summary.ID, &sc.Summary.ArticleID, &sc.Summary.Title, &sc.Summary.Body,
			&sc.Summary.CategoryID, &sc.Summary.Language, &sc.Summary.State, &sc.Summary.Reason,
			&sc.Summary.GeneratedAt,
			&sc.ArticleURL, &sc.SourceID, &sc.SourceName, &sc.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary context: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SummaryStore) querySummaries(ctx context.Context, query string, args ...any) ([]domain.Summary, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, *sum)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*domain.Summary, error) {
	var sum domain.Summary
	err := row.Scan(
		&sum.ID, &sum.ArticleID, &sum.Title, &sum.Body, &sum.CategoryID,
		&sum.Language, &sum.State, &sum.Reason, &sum.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}
