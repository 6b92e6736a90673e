package mappingstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Schema is the table backing the Postgres store. The composite primary key
// enforces the one-live-mapping-per-identity invariant; the expires_at index
// keeps the periodic sweep cheap.
const Schema = `
CREATE TABLE IF NOT EXISTS entity_mappings (
	scope_id          TEXT        NOT NULL,
	channel_id        TEXT        NOT NULL,
	repo_full_name    TEXT        NOT NULL,
	entity_type       TEXT        NOT NULL,
	entity_id         TEXT        NOT NULL,
	parent_type       TEXT,
	parent_number     INTEGER,
	chat_message_id   TEXT        NOT NULL,
	github_updated_at TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at        TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (scope_id, channel_id, repo_full_name, entity_type, entity_id)
);
CREATE INDEX IF NOT EXISTS idx_entity_mappings_expires_at ON entity_mappings (expires_at);
`

// PostgresStore implements Store on a relational table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed mapping store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the entity_mappings table and its expiry index if they
// do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure entity_mappings schema: %w", err)
	}
	return nil
}

// Get returns the live mapping for key, or nil when absent or expired.
func (s *PostgresStore) Get(ctx context.Context, key Key) (*Mapping, error) {
	query := `
		SELECT parent_type, parent_number, chat_message_id, github_updated_at, created_at, expires_at
		FROM entity_mappings
		WHERE scope_id = $1 AND channel_id = $2 AND repo_full_name = $3
		  AND entity_type = $4 AND entity_id = $5
		  AND expires_at > NOW()
	`

	m := &Mapping{Key: key}
	var parentType sql.NullString
	var parentNumber sql.NullInt64
	var updatedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query,
		key.ScopeID, key.ChannelID, key.RepoFullName, string(key.EntityType), key.EntityID,
	).Scan(&parentType, &parentNumber, &m.ChatMessageID, &updatedAt, &m.CreatedAt, &m.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entity mapping: %w", err)
	}

	if parentType.Valid {
		pt := EntityType(parentType.String)
		m.ParentType = &pt
	}
	if parentNumber.Valid {
		pn := int(parentNumber.Int64)
		m.ParentNumber = &pn
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		m.GitHubUpdatedAt = &t
	}

	return m, nil
}

// Upsert inserts or replaces the mapping keyed by the five-part identity.
// The expiry slides forward from now on every call.
func (s *PostgresStore) Upsert(ctx context.Context, key Key, rec Record, lifetimeDays int) error {
	if lifetimeDays <= 0 {
		lifetimeDays = DefaultLifetimeDays
	}
	expiresAt := time.Now().Add(time.Duration(lifetimeDays) * 24 * time.Hour)

	query := `
		INSERT INTO entity_mappings (
			scope_id, channel_id, repo_full_name, entity_type, entity_id,
			parent_type, parent_number, chat_message_id, github_updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (scope_id, channel_id, repo_full_name, entity_type, entity_id)
		DO UPDATE SET
			parent_type       = EXCLUDED.parent_type,
			parent_number     = EXCLUDED.parent_number,
			chat_message_id   = EXCLUDED.chat_message_id,
			github_updated_at = EXCLUDED.github_updated_at,
			expires_at        = EXCLUDED.expires_at
	`

	var parentType interface{}
	if rec.ParentType != nil {
		parentType = string(*rec.ParentType)
	}
	var parentNumber interface{}
	if rec.ParentNumber != nil {
		parentNumber = *rec.ParentNumber
	}
	var updatedAt interface{}
	if rec.GitHubUpdatedAt != nil {
		updatedAt = *rec.GitHubUpdatedAt
	}

	_, err := s.db.ExecContext(ctx, query,
		key.ScopeID, key.ChannelID, key.RepoFullName, string(key.EntityType), key.EntityID,
		parentType, parentNumber, rec.ChatMessageID, updatedAt, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity mapping: %w", err)
	}

	return nil
}

// Delete removes the mapping for key. Deleting an absent row is not an error.
func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	query := `
		DELETE FROM entity_mappings
		WHERE scope_id = $1 AND channel_id = $2 AND repo_full_name = $3
		  AND entity_type = $4 AND entity_id = $5
	`

	_, err := s.db.ExecContext(ctx, query,
		key.ScopeID, key.ChannelID, key.RepoFullName, string(key.EntityType), key.EntityID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entity mapping: %w", err)
	}

	return nil
}

// SweepExpired deletes all expired rows and returns the count removed.
func (s *PostgresStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entity_mappings WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired entity mappings: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept entity mappings: %w", err)
	}

	return count, nil
}
