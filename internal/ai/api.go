package ai

import "context"

// Tier selects the backing model class. Cheap classification-style calls
// go to the fast tier; composition goes to the deep tier.
type Tier string

const (
	TierFast Tier = "fast"
	TierDeep Tier = "deep"
)

// Client is the single abstraction over the AI collaborator: a pure call
// with latency and occasional malformed output, nothing more.
type Client interface {
	Complete(ctx context.Context, tier Tier, system, user string) (string, error)
}
