package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gitnotify/internal/webhookutils"
)

// ErrUnknownEvent is returned for event kinds this service does not handle.
// Callers treat it as "ignore", not as a failure.
var ErrUnknownEvent = errors.New("unknown event kind")

// Parse unmarshals a GitHub webhook body into its typed variant, keyed on the
// X-GitHub-Event header. The body is assumed verified upstream (signature
// checking is not this layer's job).
func Parse(headers map[string]string, body []byte) (Event, error) {
	kind := webhookutils.EventKind(headers)
	if kind == "" {
		return nil, fmt.Errorf("missing X-GitHub-Event header: %w", ErrUnknownEvent)
	}

	var ev Event
	switch Kind(kind) {
	case KindPullRequest:
		ev = &PullRequestEvent{}
	case KindIssues:
		ev = &IssuesEvent{}
	case KindPush:
		ev = &PushEvent{}
	case KindRelease:
		ev = &ReleaseEvent{}
	case KindWorkflowRun:
		ev = &WorkflowRunEvent{}
	case KindIssueComment:
		ev = &IssueCommentEvent{}
	case KindPullRequestReview:
		ev = &PullRequestReviewEvent{}
	case KindPullRequestReviewComment:
		ev = &PullRequestReviewCommentEvent{}
	case KindCreate:
		ev = &CreateEvent{}
	case KindDelete:
		ev = &DeleteEvent{}
	case KindFork:
		ev = &ForkEvent{}
	case KindWatch:
		ev = &WatchEvent{}
	default:
		return nil, fmt.Errorf("event kind %q: %w", kind, ErrUnknownEvent)
	}

	if err := json.Unmarshal(body, ev); err != nil {
		return nil, fmt.Errorf("failed to parse %s webhook: %w", kind, err)
	}

	return ev, nil
}
