package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gitnotify/internal/events"
	"github.com/gitnotify/internal/subscriptions"
	"github.com/gitnotify/internal/webhookutils"
)

// routeTimeout bounds one event's full fan-out, including chat rate-limit
// waits across every interested channel.
const routeTimeout = 2 * time.Minute

// GitHubWebhookHandler handles incoming GitHub webhook events. It parses and
// acknowledges synchronously, then routes asynchronously; GitHub times out
// slow webhook responses and counts them as delivery failures.
func (s *Server) GitHubWebhookHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Printf("[ERROR] Failed to read webhook body: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to read request body",
		})
	}

	headers := flattenHeaders(c.Request().Header)
	traceID := webhookutils.DeliveryID(headers)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	ev, err := events.Parse(headers, body)
	if err != nil {
		if errors.Is(err, events.ErrUnknownEvent) {
			// Unknown kinds are expected; the webhook may be configured
			// broader than what we handle. Acknowledge and move on.
			log.Printf("[INFO] Ignoring webhook %s: %v", traceID, err)
			return c.JSON(http.StatusOK, map[string]string{
				"status": "ignored",
			})
		}
		log.Printf("[ERROR] Failed to parse webhook %s: %v", traceID, err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid webhook payload",
		})
	}

	log.Printf("[INFO] Received GitHub webhook %s: kind=%s repo=%s", traceID, ev.Kind(), ev.Repo().FullName)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
		defer cancel()

		if err := s.router.Route(ctx, ev, subscriptions.ModeWebhook); err != nil {
			log.Printf("[ERROR] Failed to route webhook %s (kind=%s repo=%s): %v",
				traceID, ev.Kind(), ev.Repo().FullName, err)
		}
	}()

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "accepted",
		"trace_id": traceID,
	})
}

// flattenHeaders keeps the first value per header key. GitHub never sends
// multi-valued headers we care about.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
