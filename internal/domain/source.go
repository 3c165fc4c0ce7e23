package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source is an admin-managed news site the crawler visits.
// AdapterKey selects the adapter implementation able to read it.
type Source struct {
	ID            uuid.UUID         `json:"id"`
	Domain        string            `json:"domain"`
	Name          string            `json:"name"`
	AdapterKey    string            `json:"adapterKey"`
	Options       map[string]string `json:"options,omitempty"`
	Active        bool              `json:"active"`
	LastCrawledAt *time.Time        `json:"lastCrawledAt,omitempty"`
}
