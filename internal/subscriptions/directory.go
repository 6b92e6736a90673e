// Package subscriptions exposes the read-only directory of channel
// subscriptions. Subscription management (slash commands, installation
// bookkeeping) lives elsewhere; this service only asks who cares about a repo.
package subscriptions

import (
	"context"
	"strings"
)

// DeliveryMode describes how a repo's events reach the system.
type DeliveryMode string

const (
	ModeWebhook DeliveryMode = "webhook"
	ModePolling DeliveryMode = "polling"
)

// Subscription is one channel's interest in a repository.
type Subscription struct {
	ScopeID      string
	ChannelID    string
	RepoFullName string

	// EventTypes is the set of subscribed event-type tags ("pr", "issues",
	// "commits", "ci", "comments", "reviews", "review_comments", "branches",
	// "forks", "stars", "releases").
	EventTypes map[string]bool

	// BranchFilter is nil for default-branch-only, "all" for every branch,
	// or a comma-separated list of exact names / glob patterns.
	BranchFilter *string
}

// SubscribesTo reports whether the subscription covers any of the given tags.
func (s Subscription) SubscribesTo(tags ...string) bool {
	for _, tag := range tags {
		if s.EventTypes[tag] {
			return true
		}
	}
	return false
}

// Directory answers which channels are interested in a repository's events
// for a given delivery mode. Implementations are read-only from this
// service's perspective.
type Directory interface {
	InterestedChannels(ctx context.Context, repoFullName string, mode DeliveryMode) ([]Subscription, error)
}

// ParseEventTypes converts a comma-separated tag list into a set.
func ParseEventTypes(csv string) map[string]bool {
	set := make(map[string]bool)
	for _, tag := range strings.Split(csv, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			set[tag] = true
		}
	}
	return set
}
