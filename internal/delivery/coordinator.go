// Package delivery implements the single authority over chat message
// lifecycle for GitHub-sourced content: create/edit/delete decisions, thread
// resolution, and the entity mapping bookkeeping behind them.
package delivery

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gitnotify/internal/chat"
	"github.com/gitnotify/internal/mappingstore"
)

// Action is the requested chat-side operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Threading describes where a delivery sits in a conversation thread. An
// anchor starts a thread (PR/issue opened); a follower replies into its
// anchor's thread.
type Threading struct {
	Anchor       bool
	ParentType   mappingstore.EntityType
	ParentNumber int
}

// Entity identifies the GitHub entity behind a delivery, used for mapping
// lookups and upserts. UpdatedAt, when present, drives stale-update rejection.
type Entity struct {
	Type         mappingstore.EntityType
	ID           string
	ParentType   *mappingstore.EntityType
	ParentNumber *int
	UpdatedAt    *time.Time
}

// Formatter renders the message text. threadReply is true when the message
// will land inside a resolved thread; an empty result means the action
// produces no visible message.
type Formatter func(threadReply bool) string

// Request is one delivery to one channel.
type Request struct {
	ScopeID      string
	ChannelID    string
	RepoFullName string
	Action       Action
	Threading    *Threading
	Entity       *Entity
	Format       Formatter
}

// Coordinator executes delivery requests against the chat boundary and the
// entity mapping store. It never retries: recovery relies on the source event
// being redelivered, made safe by create-path idempotency.
type Coordinator struct {
	store        mappingstore.Store
	chat         chat.Boundary
	lifetimeDays int
}

// NewCoordinator creates a delivery coordinator. lifetimeDays <= 0 falls back
// to the store default.
func NewCoordinator(store mappingstore.Store, boundary chat.Boundary, lifetimeDays int) *Coordinator {
	return &Coordinator{
		store:        store,
		chat:         boundary,
		lifetimeDays: lifetimeDays,
	}
}

// Deliver executes one request. Ordering across out-of-order webhook
// deliveries is enforced solely by the stored github_updated_at timestamp
// (last writer wins). Creates are idempotent per entity identity: a
// redelivered create finds the live mapping and refreshes the existing
// message instead of posting a second one.
//
// Note the deliberate asymmetry on the edit path: an edit for an anchor
// entity with no existing mapping becomes a retroactive create, so a thread
// anchor is established even when the "opened" event was missed or filtered
// out. Edits are therefore not idempotent-on-absence for anchors.
func (c *Coordinator) Deliver(ctx context.Context, req Request) error {
	switch req.Action {
	case ActionCreate:
		return c.create(ctx, req)
	case ActionEdit:
		return c.edit(ctx, req)
	case ActionDelete:
		return c.delete(ctx, req)
	default:
		return fmt.Errorf("unknown delivery action %q", req.Action)
	}
}

func (c *Coordinator) create(ctx context.Context, req Request) error {
	if req.Entity != nil {
		existing, err := c.store.Get(ctx, c.entityKey(req))
		if err != nil {
			return err
		}
		if existing != nil {
			// Redelivered create for a live identity. A second send would
			// duplicate the visible message, so refresh the existing one
			// through the edit path (which no-ops on equal timestamps).
			log.Printf("[INFO] Mapping exists for %s in channel %s, treating redelivered create as edit",
				describeEntity(req.Entity), req.ChannelID)
			return c.edit(ctx, req)
		}
	}

	threadID, err := c.resolveThread(ctx, req)
	if err != nil {
		return err
	}

	text := req.Format(threadID != "")
	if text == "" {
		log.Printf("[DEBUG] Empty message for %s in %s/%s, nothing to send",
			describeEntity(req.Entity), req.ScopeID, req.ChannelID)
		return nil
	}

	messageID, err := c.chat.Send(ctx, req.ChannelID, text, threadID)
	if err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", req.ChannelID, err)
	}

	if req.Entity != nil {
		if err := c.store.Upsert(ctx, c.entityKey(req), mappingstore.Record{
			ParentType:      req.Entity.ParentType,
			ParentNumber:    req.Entity.ParentNumber,
			ChatMessageID:   messageID,
			GitHubUpdatedAt: req.Entity.UpdatedAt,
		}, c.lifetimeDays); err != nil {
			return err
		}
	}

	log.Printf("[INFO] Delivered %s to channel %s (message=%s, threaded=%t)",
		describeEntity(req.Entity), req.ChannelID, messageID, threadID != "")
	return nil
}

func (c *Coordinator) edit(ctx context.Context, req Request) error {
	if req.Entity == nil {
		return fmt.Errorf("edit delivery requires entity context")
	}

	mapping, err := c.store.Get(ctx, c.entityKey(req))
	if err != nil {
		return err
	}

	if mapping == nil {
		if req.Threading != nil && req.Threading.Anchor {
			// Retroactive create: the anchor's opened event was missed or
			// filtered out (e.g. a base-branch change made the PR match a
			// filter it previously didn't). Establish the anchor now.
			log.Printf("[INFO] No mapping for anchor %s in channel %s, creating retroactively",
				describeEntity(req.Entity), req.ChannelID)
			return c.create(ctx, req)
		}
		log.Printf("[DEBUG] No mapping for %s in channel %s, nothing to edit",
			describeEntity(req.Entity), req.ChannelID)
		return nil
	}

	if isStale(req.Entity.UpdatedAt, mapping.GitHubUpdatedAt) {
		log.Printf("[INFO] Skipping stale edit for %s in channel %s (incoming %v, stored %v)",
			describeEntity(req.Entity), req.ChannelID, req.Entity.UpdatedAt, mapping.GitHubUpdatedAt)
		return nil
	}

	threadID, err := c.resolveThread(ctx, req)
	if err != nil {
		return err
	}

	text := req.Format(threadID != "")
	if text == "" {
		return nil
	}

	if err := c.chat.Edit(ctx, req.ChannelID, mapping.ChatMessageID, text); err != nil {
		return fmt.Errorf("failed to edit message %s in channel %s: %w", mapping.ChatMessageID, req.ChannelID, err)
	}

	if err := c.store.Upsert(ctx, c.entityKey(req), mappingstore.Record{
		ParentType:      req.Entity.ParentType,
		ParentNumber:    req.Entity.ParentNumber,
		ChatMessageID:   mapping.ChatMessageID,
		GitHubUpdatedAt: req.Entity.UpdatedAt,
	}, c.lifetimeDays); err != nil {
		return err
	}

	log.Printf("[INFO] Edited %s in channel %s (message=%s)",
		describeEntity(req.Entity), req.ChannelID, mapping.ChatMessageID)
	return nil
}

func (c *Coordinator) delete(ctx context.Context, req Request) error {
	if req.Entity == nil {
		return fmt.Errorf("delete delivery requires entity context")
	}

	mapping, err := c.store.Get(ctx, c.entityKey(req))
	if err != nil {
		return err
	}
	if mapping == nil {
		// Already gone or never delivered.
		return nil
	}

	if err := c.chat.Remove(ctx, req.ChannelID, mapping.ChatMessageID); err != nil {
		return fmt.Errorf("failed to remove message %s from channel %s: %w", mapping.ChatMessageID, req.ChannelID, err)
	}

	if err := c.store.Delete(ctx, c.entityKey(req)); err != nil {
		return err
	}

	log.Printf("[INFO] Removed %s from channel %s (message=%s)",
		describeEntity(req.Entity), req.ChannelID, mapping.ChatMessageID)
	return nil
}

// resolveThread returns the chat message id to thread under, or "" for a
// top-level message. Followers whose anchor mapping is absent or expired fall
// back to top-level delivery rather than being dropped.
func (c *Coordinator) resolveThread(ctx context.Context, req Request) (string, error) {
	if req.Threading == nil || req.Threading.Anchor {
		return "", nil
	}

	parent, err := c.store.Get(ctx, mappingstore.Key{
		ScopeID:      req.ScopeID,
		ChannelID:    req.ChannelID,
		RepoFullName: req.RepoFullName,
		EntityType:   req.Threading.ParentType,
		EntityID:     strconv.Itoa(req.Threading.ParentNumber),
	})
	if err != nil {
		return "", err
	}
	if parent == nil {
		log.Printf("[DEBUG] Anchor %s #%d not mapped in channel %s, delivering top-level",
			req.Threading.ParentType, req.Threading.ParentNumber, req.ChannelID)
		return "", nil
	}

	return parent.ChatMessageID, nil
}

func (c *Coordinator) entityKey(req Request) mappingstore.Key {
	return mappingstore.Key{
		ScopeID:      req.ScopeID,
		ChannelID:    req.ChannelID,
		RepoFullName: req.RepoFullName,
		EntityType:   req.Entity.Type,
		EntityID:     req.Entity.ID,
	}
}

// isStale reports whether an incoming update is not strictly newer than the
// stored one. Missing timestamps on either side never block the edit.
func isStale(incoming, stored *time.Time) bool {
	if incoming == nil || stored == nil {
		return false
	}
	return !incoming.After(*stored)
}

func describeEntity(e *Entity) string {
	if e == nil {
		return "event"
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
