// Package mappingstore persists the link between a GitHub entity and the chat
// message that represents it. The mapping is what makes in-place edits,
// deletions, and thread resolution possible across webhook deliveries.
package mappingstore

import (
	"context"
	"time"
)

// EntityType classifies the GitHub entity behind a mapping.
type EntityType string

const (
	EntityPullRequest   EntityType = "pr"
	EntityIssue         EntityType = "issue"
	EntityComment       EntityType = "comment"
	EntityReview        EntityType = "review"
	EntityReviewComment EntityType = "review_comment"
)

// DefaultLifetimeDays is the sliding expiry applied when the caller does not
// override it. Mappings older than this stop resolving threads and are reaped.
const DefaultLifetimeDays = 30

// Key is the five-part identity of a mapping. At most one live (non-expired)
// mapping exists per key; the create path upserts rather than duplicating.
type Key struct {
	ScopeID      string
	ChannelID    string
	RepoFullName string
	EntityType   EntityType
	EntityID     string
}

// Record holds the mutable attributes stored under a Key.
type Record struct {
	// ParentType/ParentNumber point at the anchor entity (PR or issue) this
	// entity replies to. Nil for anchors themselves.
	ParentType   *EntityType
	ParentNumber *int

	// ChatMessageID identifies the delivered chat message for later edits,
	// deletions, and thread targeting.
	ChatMessageID string

	// GitHubUpdatedAt is the entity's updated_at as reported by GitHub, the
	// sole ordering oracle for stale-update rejection.
	GitHubUpdatedAt *time.Time
}

// Mapping is a stored row: identity, record, and lifecycle timestamps.
type Mapping struct {
	Key
	Record
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is the entity mapping persistence contract. Every lookup hits the
// backing store fresh; webhook handlers scale horizontally, so rows must never
// be cached in-process across requests.
type Store interface {
	// Get returns the live mapping for key, or nil if none exists. Expiry is
	// checked against the current time at read time, not left to the sweep.
	Get(ctx context.Context, key Key) (*Mapping, error)

	// Upsert inserts or replaces the mapping for key and recomputes the
	// expiry from now (sliding expiry). lifetimeDays <= 0 means
	// DefaultLifetimeDays.
	Upsert(ctx context.Context, key Key, rec Record, lifetimeDays int) error

	// Delete removes the mapping for key unconditionally.
	Delete(ctx context.Context, key Key) error

	// SweepExpired deletes all rows whose expiry has passed and returns the
	// number removed.
	SweepExpired(ctx context.Context) (int64, error)
}
