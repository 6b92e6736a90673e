// Package router turns one parsed webhook event into zero or more delivery
// requests: it matches subscriptions, applies branch filters, decides the
// chat action per event action, and fans out across interested channels.
package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gitnotify/internal/branchfilter"
	"github.com/gitnotify/internal/delivery"
	"github.com/gitnotify/internal/events"
	"github.com/gitnotify/internal/format"
	"github.com/gitnotify/internal/mappingstore"
	"github.com/gitnotify/internal/subscriptions"
)

// ErrMissingBranch signals a branch-filterable event arrived without a branch
// to filter on. That is a payload handling bug, not a routable condition.
var ErrMissingBranch = errors.New("branch-filterable event has no branch")

// DefaultAnchorRefreshActions are the pull_request/issues actions that refresh
// the anchor message in place.
var DefaultAnchorRefreshActions = []string{
	"edited", "closed", "reopened", "ready_for_review", "converted_to_draft",
}

// Deliverer executes one delivery request against one channel.
type Deliverer interface {
	Deliver(ctx context.Context, req delivery.Request) error
}

// Router matches events against the subscription directory and fans out
// deliveries. Channel failures are isolated: one channel's error never blocks
// another's delivery and never fails the route.
type Router struct {
	directory  subscriptions.Directory
	deliverer  Deliverer
	refreshSet map[string]bool
}

// New creates a router. anchorRefreshActions may be nil to use
// DefaultAnchorRefreshActions.
func New(directory subscriptions.Directory, deliverer Deliverer, anchorRefreshActions []string) *Router {
	if anchorRefreshActions == nil {
		anchorRefreshActions = DefaultAnchorRefreshActions
	}
	refreshSet := make(map[string]bool, len(anchorRefreshActions))
	for _, action := range anchorRefreshActions {
		refreshSet[strings.TrimSpace(action)] = true
	}
	return &Router{
		directory:  directory,
		deliverer:  deliverer,
		refreshSet: refreshSet,
	}
}

// plan is the routing decision for one event: which subscription tags it
// falls under, the branch to filter on (nil for kinds branch filters don't
// apply to), and how to build the per-channel request.
type plan struct {
	tags      []string
	branch    *string
	action    delivery.Action
	threading *delivery.Threading
	entity    *delivery.Entity
	format    delivery.Formatter
}

// Route dispatches one event. It returns an error only for conditions the
// webhook layer should surface (payload handling bugs, directory failures);
// per-channel delivery errors are logged and swallowed.
func (r *Router) Route(ctx context.Context, ev events.Event, mode subscriptions.DeliveryMode) error {
	p, err := r.planFor(ev)
	if err != nil {
		return err
	}
	if p == nil {
		log.Printf("[DEBUG] No deliverable action for %s event on %s", ev.Kind(), ev.Repo().FullName)
		return nil
	}

	subs, err := r.directory.InterestedChannels(ctx, ev.Repo().FullName, mode)
	if err != nil {
		return fmt.Errorf("failed to look up subscriptions for %s: %w", ev.Repo().FullName, err)
	}

	var matched []subscriptions.Subscription
	for _, sub := range subs {
		if !sub.SubscribesTo(p.tags...) {
			continue
		}
		if p.branch != nil && !branchfilter.Matches(*p.branch, sub.BranchFilter, ev.Repo().DefaultBranch) {
			continue
		}
		matched = append(matched, sub)
	}

	if len(matched) == 0 {
		log.Printf("[INFO] No interested channels for %s event on %s", ev.Kind(), ev.Repo().FullName)
		return nil
	}

	var wg sync.WaitGroup
	for _, sub := range matched {
		wg.Add(1)
		go func(sub subscriptions.Subscription) {
			defer wg.Done()
			req := delivery.Request{
				ScopeID:      sub.ScopeID,
				ChannelID:    sub.ChannelID,
				RepoFullName: sub.RepoFullName,
				Action:       p.action,
				Threading:    p.threading,
				Entity:       p.entity,
				Format:       p.format,
			}
			if err := r.deliverer.Deliver(ctx, req); err != nil {
				log.Printf("[ERROR] Delivery to channel %s failed for %s event on %s: %v",
					sub.ChannelID, ev.Kind(), ev.Repo().FullName, err)
			}
		}(sub)
	}
	wg.Wait()

	log.Printf("[INFO] Routed %s event on %s to %d channel(s)", ev.Kind(), ev.Repo().FullName, len(matched))
	return nil
}

// planFor maps one typed event to a routing plan. A nil plan with nil error
// means the event's action is recognized but produces no delivery.
func (r *Router) planFor(ev events.Event) (*plan, error) {
	switch e := ev.(type) {
	case *events.PullRequestEvent:
		return r.planPullRequest(e)
	case *events.IssuesEvent:
		return r.planIssues(e)
	case *events.PushEvent:
		return planPush(e)
	case *events.ReleaseEvent:
		return planRelease(e)
	case *events.WorkflowRunEvent:
		return planWorkflowRun(e)
	case *events.IssueCommentEvent:
		return planIssueComment(e)
	case *events.PullRequestReviewEvent:
		return planReview(e)
	case *events.PullRequestReviewCommentEvent:
		return planReviewComment(e)
	case *events.CreateEvent:
		return planCreate(e)
	case *events.DeleteEvent:
		return planDelete(e)
	case *events.ForkEvent:
		return planFork(e)
	case *events.WatchEvent:
		return planWatch(e)
	default:
		return nil, fmt.Errorf("unroutable event kind %q", ev.Kind())
	}
}

func (r *Router) planPullRequest(e *events.PullRequestEvent) (*plan, error) {
	var action delivery.Action
	switch {
	case e.Action == "opened":
		action = delivery.ActionCreate
	case r.refreshSet[e.Action]:
		action = delivery.ActionEdit
	default:
		return nil, nil
	}

	base := e.PullRequest.Base.Ref
	if base == "" {
		return nil, fmt.Errorf("%w: pull_request %s", ErrMissingBranch, e.Repository.FullName)
	}

	return &plan{
		tags:      []string{"pr"},
		branch:    &base,
		action:    action,
		threading: &delivery.Threading{Anchor: true},
		entity: &delivery.Entity{
			Type:      mappingstore.EntityPullRequest,
			ID:        strconv.Itoa(e.PullRequest.Number),
			UpdatedAt: parseTime(e.PullRequest.UpdatedAt),
		},
		format: func(threadReply bool) string { return format.PullRequestAnchor(e, threadReply) },
	}, nil
}

func (r *Router) planIssues(e *events.IssuesEvent) (*plan, error) {
	var action delivery.Action
	switch {
	case e.Action == "opened":
		action = delivery.ActionCreate
	case e.Action == "deleted":
		action = delivery.ActionDelete
	case r.refreshSet[e.Action]:
		action = delivery.ActionEdit
	default:
		return nil, nil
	}

	return &plan{
		tags:      []string{"issues"},
		action:    action,
		threading: &delivery.Threading{Anchor: true},
		entity: &delivery.Entity{
			Type:      mappingstore.EntityIssue,
			ID:        strconv.Itoa(e.Issue.Number),
			UpdatedAt: parseTime(e.Issue.UpdatedAt),
		},
		format: func(threadReply bool) string { return format.IssueAnchor(e, threadReply) },
	}, nil
}

func planPush(e *events.PushEvent) (*plan, error) {
	// Tag pushes are not branch activity.
	if strings.HasPrefix(e.Ref, "refs/tags/") {
		return nil, nil
	}
	branch := strings.TrimPrefix(e.Ref, "refs/heads/")
	if branch == "" || branch == e.Ref {
		return nil, fmt.Errorf("%w: push ref %q", ErrMissingBranch, e.Ref)
	}

	return &plan{
		tags:   []string{"commits"},
		branch: &branch,
		action: delivery.ActionCreate,
		format: func(threadReply bool) string { return format.Push(e, threadReply) },
	}, nil
}

func planRelease(e *events.ReleaseEvent) (*plan, error) {
	if e.Action != "published" {
		return nil, nil
	}
	return &plan{
		tags:   []string{"releases"},
		action: delivery.ActionCreate,
		format: func(threadReply bool) string { return format.Release(e, threadReply) },
	}, nil
}

func planWorkflowRun(e *events.WorkflowRunEvent) (*plan, error) {
	if e.Action != "completed" {
		return nil, nil
	}
	branch := e.WorkflowRun.HeadBranch
	if branch == "" {
		return nil, fmt.Errorf("%w: workflow_run %q", ErrMissingBranch, e.WorkflowRun.Name)
	}
	return &plan{
		tags:   []string{"ci"},
		branch: &branch,
		action: delivery.ActionCreate,
		format: func(threadReply bool) string { return format.WorkflowRun(e, threadReply) },
	}, nil
}

func planIssueComment(e *events.IssueCommentEvent) (*plan, error) {
	var action delivery.Action
	switch e.Action {
	case "created":
		action = delivery.ActionCreate
	case "edited":
		action = delivery.ActionEdit
	case "deleted":
		action = delivery.ActionDelete
	default:
		return nil, nil
	}

	// Comments on a PR's conversation reach both plain comment subscribers
	// and review-focused subscribers.
	tags := []string{"comments"}
	parentType := mappingstore.EntityIssue
	if e.IsOnPullRequest() {
		tags = append(tags, "review_comments")
		parentType = mappingstore.EntityPullRequest
	}
	parentNumber := e.Issue.Number

	return &plan{
		tags:   tags,
		action: action,
		threading: &delivery.Threading{
			ParentType:   parentType,
			ParentNumber: parentNumber,
		},
		entity: &delivery.Entity{
			Type:         mappingstore.EntityComment,
			ID:           strconv.FormatInt(e.Comment.ID, 10),
			ParentType:   &parentType,
			ParentNumber: &parentNumber,
			UpdatedAt:    parseTime(e.Comment.UpdatedAt),
		},
		format: func(threadReply bool) string { return format.IssueComment(e, threadReply) },
	}, nil
}

func planReview(e *events.PullRequestReviewEvent) (*plan, error) {
	var action delivery.Action
	switch e.Action {
	case "submitted":
		action = delivery.ActionCreate
	case "edited":
		action = delivery.ActionEdit
	default:
		return nil, nil
	}

	parentType := mappingstore.EntityPullRequest
	parentNumber := e.PullRequest.Number

	return &plan{
		tags:   []string{"reviews"},
		action: action,
		threading: &delivery.Threading{
			ParentType:   parentType,
			ParentNumber: parentNumber,
		},
		entity: &delivery.Entity{
			Type:         mappingstore.EntityReview,
			ID:           strconv.FormatInt(e.Review.ID, 10),
			ParentType:   &parentType,
			ParentNumber: &parentNumber,
			UpdatedAt:    parseTime(e.Review.SubmittedAt),
		},
		format: func(threadReply bool) string { return format.Review(e, threadReply) },
	}, nil
}

func planReviewComment(e *events.PullRequestReviewCommentEvent) (*plan, error) {
	var action delivery.Action
	switch e.Action {
	case "created":
		action = delivery.ActionCreate
	case "edited":
		action = delivery.ActionEdit
	case "deleted":
		action = delivery.ActionDelete
	default:
		return nil, nil
	}

	parentType := mappingstore.EntityPullRequest
	parentNumber := e.PullRequest.Number

	return &plan{
		tags:   []string{"review_comments"},
		action: action,
		threading: &delivery.Threading{
			ParentType:   parentType,
			ParentNumber: parentNumber,
		},
		entity: &delivery.Entity{
			Type:         mappingstore.EntityReviewComment,
			ID:           strconv.FormatInt(e.Comment.ID, 10),
			ParentType:   &parentType,
			ParentNumber: &parentNumber,
			UpdatedAt:    parseTime(e.Comment.UpdatedAt),
		},
		format: func(threadReply bool) string { return format.ReviewComment(e, threadReply) },
	}, nil
}

func planCreate(e *events.CreateEvent) (*plan, error) {
	if e.RefType != "branch" {
		return nil, nil
	}
	branch := e.Ref
	return &plan{
		tags:   []string{"branches"},
		branch: &branch,
		action: delivery.ActionCreate,
		format: func(threadReply bool) string { return format.BranchCreated(e, threadReply) },
	}, nil
}

func planDelete(e *events.DeleteEvent) (*plan, error) {
	if e.RefType != "branch" {
		return nil, nil
	}
	branch := e.Ref
	return &plan{
		tags:   []string{"branches"},
		branch: &branch,
		action: delivery.ActionCreate,
		format: func(threadReply bool) string { return format.BranchDeleted(e, threadReply) },
	}, nil
}

func planFork(e *events.ForkEvent) (*plan, error) {
	return &plan{
		tags:   []string{"forks"},
		action: delivery.ActionCreate,
		format: func(threadReply bool) string { return format.Fork(e, threadReply) },
	}, nil
}

func planWatch(e *events.WatchEvent) (*plan, error) {
	if e.Action != "started" {
		return nil, nil
	}
	return &plan{
		tags:   []string{"stars"},
		action: delivery.ActionCreate,
		format: func(threadReply bool) string { return format.Star(e, threadReply) },
	}, nil
}

// parseTime converts a GitHub RFC3339 timestamp into *time.Time. Empty or
// malformed values become nil, which disables stale-update rejection for that
// delivery rather than dropping it.
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("[WARN] Unparseable timestamp %q, treating as absent", value)
		return nil
	}
	return &t
}
