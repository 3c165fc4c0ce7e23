package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group clusters summaries judged to cover the same event.
// Membership is best-effort unique per summary: enforced by an existence
// check before insert, not by a database constraint.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupRef links one summary into one group, with the adjudicator's
// short reason when there is one.
type GroupRef struct {
	GroupID   uuid.UUID `json:"groupId"`
	SummaryID uuid.UUID `json:"summaryId"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
