package events

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headersFor(kind string) map[string]string {
	return map[string]string{
		"X-Github-Event":    kind, // canonicalized the way net/http delivers it
		"X-Github-Delivery": "d2f6af7a-0001-4c52-a6a1-7e0a2c8b1234",
	}
}

func TestParsePullRequest(t *testing.T) {
	body := []byte(`{
		"action": "opened",
		"number": 42,
		"pull_request": {
			"id": 1001,
			"number": 42,
			"title": "Add login flow",
			"state": "open",
			"html_url": "https://github.com/acme/app/pull/42",
			"updated_at": "2024-06-01T10:00:00Z",
			"head": {"ref": "feature/login", "sha": "abc123"},
			"base": {"ref": "main", "sha": "def456"},
			"user": {"id": 7, "login": "alice"}
		},
		"repository": {
			"id": 5,
			"name": "app",
			"full_name": "acme/app",
			"default_branch": "main"
		},
		"sender": {"id": 7, "login": "alice"}
	}`)

	ev, err := Parse(headersFor("pull_request"), body)
	require.NoError(t, err)

	pr, ok := ev.(*PullRequestEvent)
	require.True(t, ok, "expected *PullRequestEvent, got %T", ev)

	want := &PullRequestEvent{
		Action: "opened",
		Number: 42,
		PullRequest: PullRequest{
			ID:        1001,
			Number:    42,
			Title:     "Add login flow",
			State:     "open",
			HTMLURL:   "https://github.com/acme/app/pull/42",
			UpdatedAt: "2024-06-01T10:00:00Z",
			Head:      Branch{Ref: "feature/login", SHA: "abc123"},
			Base:      Branch{Ref: "main", SHA: "def456"},
			User:      User{ID: 7, Login: "alice"},
		},
		Repository: Repository{ID: 5, Name: "app", FullName: "acme/app", DefaultBranch: "main"},
		Sender:     User{ID: 7, Login: "alice"},
	}
	if diff := cmp.Diff(want, pr); diff != "" {
		t.Errorf("parsed event mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIssueCommentPRLinkage(t *testing.T) {
	prComment := []byte(`{
		"action": "created",
		"issue": {
			"number": 42,
			"title": "Add login flow",
			"pull_request": {"url": "https://api.github.com/repos/acme/app/pulls/42"}
		},
		"comment": {"id": 9001, "body": "LGTM", "user": {"login": "bob"}},
		"repository": {"full_name": "acme/app", "default_branch": "main"}
	}`)

	ev, err := Parse(headersFor("issue_comment"), prComment)
	require.NoError(t, err)
	ic := ev.(*IssueCommentEvent)
	assert.True(t, ic.IsOnPullRequest())

	issueComment := []byte(`{
		"action": "created",
		"issue": {"number": 7, "title": "Crash on startup"},
		"comment": {"id": 9002, "body": "Repro steps attached", "user": {"login": "carol"}},
		"repository": {"full_name": "acme/app", "default_branch": "main"}
	}`)

	ev, err = Parse(headersFor("issue_comment"), issueComment)
	require.NoError(t, err)
	ic = ev.(*IssueCommentEvent)
	assert.False(t, ic.IsOnPullRequest())
}

func TestParsePush(t *testing.T) {
	body := []byte(`{
		"ref": "refs/heads/main",
		"after": "abc123",
		"commits": [
			{"id": "abc123", "message": "Fix typo", "author": {"name": "Alice", "username": "alice"}}
		],
		"repository": {"full_name": "acme/app", "default_branch": "main"},
		"pusher": {"name": "alice"}
	}`)

	ev, err := Parse(headersFor("push"), body)
	require.NoError(t, err)
	push := ev.(*PushEvent)
	assert.Equal(t, "refs/heads/main", push.Ref)
	require.Len(t, push.Commits, 1)
	assert.Equal(t, "Fix typo", push.Commits[0].Message)
}

func TestParseUnknownKind(t *testing.T) {
	_, err := Parse(headersFor("deployment_status"), []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownEvent))

	_, err = Parse(map[string]string{}, []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownEvent), "missing header should behave like an unknown kind")
}

func TestParseMalformedBody(t *testing.T) {
	_, err := Parse(headersFor("issues"), []byte(`{"action":`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownEvent))
}

func TestEveryKindRoundTrips(t *testing.T) {
	kinds := []Kind{
		KindPullRequest, KindIssues, KindPush, KindRelease, KindWorkflowRun,
		KindIssueComment, KindPullRequestReview, KindPullRequestReviewComment,
		KindCreate, KindDelete, KindFork, KindWatch,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			ev, err := Parse(headersFor(string(kind)), []byte(`{"repository": {"full_name": "acme/app"}}`))
			require.NoError(t, err)
			assert.Equal(t, kind, ev.Kind())
			assert.Equal(t, "acme/app", ev.Repo().FullName)
		})
	}
}
