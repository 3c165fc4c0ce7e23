package domain

import (
	"time"

	"github.com/google/uuid"
)

type DigestState string

const (
	DigestStateCreated DigestState = "created"
	DigestStatePosted  DigestState = "posted"
)

// Digest is a periodic AI synthesis of the validated summaries that fell
// into one time window, per language.
type Digest struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Language    Language    `json:"language"`
	PeriodStart time.Time   `json:"periodStart"`
	PeriodEnd   time.Time   `json:"periodEnd"`
	GeneratedAt time.Time   `json:"generatedAt"`
	State       DigestState `json:"state"`
}

// DigestRef points from a digest back at one of the summaries it cites.
// References are read-only once written; summaries they point at must not
// be deleted.
type DigestRef struct {
	DigestID  uuid.UUID `json:"digestId"`
	SummaryID uuid.UUID `json:"summaryId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Reason    string    `json:"reason,omitempty"`
	Pos       int       `json:"pos"`
}
