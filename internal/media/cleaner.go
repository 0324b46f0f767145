package media

import (
	"context"
	"time"
)

// CleanupRequest lists references whose objects are no longer owned by any
// record.
type CleanupRequest struct {
	Refs        []string  `json:"refs"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// Cleaner removes orphaned media, either inline or through a queue.
type Cleaner interface {
	Schedule(ctx context.Context, req CleanupRequest) error
}

// DirectCleaner removes objects synchronously through the policy's store.
type DirectCleaner struct {
	policy *Policy
}

func NewDirectCleaner(policy *Policy) *DirectCleaner {
	return &DirectCleaner{policy: policy}
}

func (c *DirectCleaner) Schedule(ctx context.Context, req CleanupRequest) error {
	return c.policy.Remove(ctx, req.Refs...)
}
