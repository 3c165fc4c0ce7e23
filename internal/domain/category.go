package domain

import "github.com/google/uuid"

// Category is one entry of the configured taxonomy the summarizer and
// validator classify against.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
