package subscriptions

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresDirectory reads subscriptions from the shared subscriptions table.
// The table is owned and written by the subscription-management surface; this
// directory only selects from it.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a directory backed by the given database.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// InterestedChannels returns every subscription for the repo under the given
// delivery mode.
func (d *PostgresDirectory) InterestedChannels(ctx context.Context, repoFullName string, mode DeliveryMode) ([]Subscription, error) {
	query := `
		SELECT scope_id, channel_id, repo_full_name, event_types, branch_filter
		FROM subscriptions
		WHERE repo_full_name = $1 AND delivery_mode = $2
	`

	rows, err := d.db.QueryContext(ctx, query, repoFullName, string(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]Subscription, 0)
	for rows.Next() {
		var sub Subscription
		var eventTypes string
		var branchFilter sql.NullString
		if err := rows.Scan(&sub.ScopeID, &sub.ChannelID, &sub.RepoFullName, &eventTypes, &branchFilter); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.EventTypes = ParseEventTypes(eventTypes)
		if branchFilter.Valid {
			f := branchFilter.String
			sub.BranchFilter = &f
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}
