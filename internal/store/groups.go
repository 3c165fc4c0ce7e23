package store

import (
	"context"
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GroupStore struct {
	db *pgxpool.Pool
}

func NewGroupStore(pool *ConnectionPool) *GroupStore {
	return &GroupStore{db: pool.conn}
}

// GroupsFor returns every group the summary is referenced by.
func (s *GroupStore) GroupsFor(ctx context.Context, summaryID uuid.UUID) ([]domain.Group, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.title, g.language, g.created_at
		FROM groups g
		JOIN group_refs r ON r.group_id = g.id
		WHERE r.summary_id = $1
		ORDER BY g.created_at DESC;
	`, summaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for summary: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Language, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GroupTitlesFor bulk-loads the titles of every group each of the given
// summaries already belongs to.
func (s *GroupStore) GroupTitlesFor(ctx context.Context, summaryIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	if len(summaryIDs) == 0 {
		return map[uuid.UUID][]string{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT r.summary_id, g.title
		FROM group_refs r
		JOIN groups g ON g.id = r.group_id
		WHERE r.summary_id = ANY($1)
		ORDER BY r.created_at;
	`, summaryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query group titles: %w", err)
	}
	defer rows.Close()

	titles := make(map[uuid.UUID][]string)
	for rows.Next() {
		var id uuid.UUID
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("failed to scan group title: %w", err)
		}
		titles[id] = append(titles[id], title)
	}
	return titles, rows.Err()
}

// Create persists a new group together with its seed references.
func (s *GroupStore) Create(ctx context.Context, group domain.Group, refs []domain.GroupRef) (uuid.UUID, error) {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, title, language, created_at) VALUES ($1, $2, $3, $4);`,
		group.ID, group.Title, group.Language, group.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert group: %w", err)
	}

	for _, ref := range refs {
		createdAt := ref.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO group_refs (group_id, summary_id, reason, created_at) VALUES ($1, $2, $3, $4);`,
			group.ID, ref.SummaryID, ref.Reason, createdAt,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert group ref: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit group: %w", err)
	}
	return group.ID, nil
}

func (s *GroupStore) AddRef(ctx context.Context, ref domain.GroupRef) error {
	createdAt := ref.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO group_refs (group_id, summary_id, reason, created_at) VALUES ($1, $2, $3, $4);`,
		ref.GroupID, ref.SummaryID, ref.Reason, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group ref: %w", err)
	}
	return nil
}

// RelatedSummary is one cross-linked summary on the read path: the group
// reference joined with the referenced summary's title.
type RelatedSummary struct {
	GroupID   uuid.UUID `json:"groupId"`
	SummaryID uuid.UUID `json:"summaryId"`
	Title     string    `json:"title"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RelatedWithTitles pages through the summaries sharing a group with the
// given one, newest reference first, excluding the summary itself.
func (s *GroupStore) RelatedWithTitles(ctx context.Context, summaryID uuid.UUID, offset, limit int) ([]RelatedSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.group_id, r.summary_id, sm.title, r.reason, r.created_at
		FROM group_refs r
		JOIN summaries sm ON sm.id = r.summary_id
		WHERE r.group_id IN (SELECT group_id FROM group_refs WHERE summary_id = $1)
		  AND r.summary_id != $1
		ORDER BY r.created_at DESC
		OFFSET $2 LIMIT $3;
	`, summaryID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query related summaries: %w", err)
	}
	defer rows.Close()

	var related []RelatedSummary
	for rows.Next() {
		var r RelatedSummary
		if err := rows.Scan(&r.GroupID, &r.SummaryID, &r.Title, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan related summary: %w", err)
		}
		related = append(related, r)
	}
	return related, rows.Err()
}

