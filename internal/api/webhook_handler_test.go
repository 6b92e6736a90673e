package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitnotify/internal/events"
	"github.com/gitnotify/internal/subscriptions"
)

type fakeRouter struct {
	mu     sync.Mutex
	routed []events.Event
	done   chan struct{}
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{done: make(chan struct{}, 8)}
}

func (f *fakeRouter) Route(ctx context.Context, ev events.Event, mode subscriptions.DeliveryMode) error {
	f.mu.Lock()
	f.routed = append(f.routed, ev)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeRouter) waitForRoute(t *testing.T) events.Event {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async routing")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routed[len(f.routed)-1]
}

func postWebhook(server *Server, eventKind, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if eventKind != "" {
		req.Header.Set("X-GitHub-Event", eventKind)
		req.Header.Set("X-GitHub-Delivery", "delivery-123")
	}
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandlerAcceptsAndRoutesAsync(t *testing.T) {
	router := newFakeRouter()
	server := NewServer(0, router)

	body := `{
		"action": "opened",
		"pull_request": {"number": 42, "title": "Add login", "base": {"ref": "main"}},
		"repository": {"full_name": "acme/app", "default_branch": "main"}
	}`
	rec := postWebhook(server, "pull_request", body)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "delivery-123", resp["trace_id"])

	ev := router.waitForRoute(t)
	prEvent, ok := ev.(*events.PullRequestEvent)
	require.True(t, ok)
	assert.Equal(t, 42, prEvent.PullRequest.Number)
}

func TestWebhookHandlerIgnoresUnknownKinds(t *testing.T) {
	router := newFakeRouter()
	server := NewServer(0, router)

	rec := postWebhook(server, "deployment_status", `{"repository": {"full_name": "acme/app"}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ignored", resp["status"])
	assert.Empty(t, router.routed)
}

func TestWebhookHandlerRejectsMalformedBody(t *testing.T) {
	router := newFakeRouter()
	server := NewServer(0, router)

	rec := postWebhook(server, "push", `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, router.routed)
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer(0, newFakeRouter())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
