package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_LinearThenCapped(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first retry", attempt: 1, want: 500 * time.Millisecond},
		{name: "second retry", attempt: 2, want: time.Second},
		{name: "tenth retry", attempt: 10, want: 5 * time.Second},
		{name: "at the cap", attempt: 20, want: 10 * time.Second},
		{name: "beyond the cap", attempt: 100, want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoff(tt.attempt))
		})
	}
}

func TestBackoff_WorstCaseStaysBounded(t *testing.T) {
	var total time.Duration
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		total += backoff(attempt)
	}
	// the ceiling keeps a dead broker from blocking a publisher forever
	assert.LessOrEqual(t, total, 20*time.Minute)
}
