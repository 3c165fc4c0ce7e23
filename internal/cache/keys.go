package cache

import (
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
)

// Key layout. Timelines are language-scoped; index sets are keyed by the
// filtered entity's id.
func summaryKey(id uuid.UUID) string {
	return "summary:" + id.String()
}

func timelineKey(lang domain.Language) string {
	return "latest:summaries:" + string(lang)
}

func categoryIndexKey(id uuid.UUID) string {
	return "summaries:by:category:" + id.String()
}

func sourceIndexKey(id uuid.UUID) string {
	return "summaries:by:source:" + id.String()
}

func digestKey(id uuid.UUID) string {
	return "digest:" + id.String()
}

func digestTimelineKey(lang domain.Language) string {
	return "latest:digests:" + string(lang)
}

func lockKey(name string) string {
	return "lock:" + name
}
