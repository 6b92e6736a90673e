// Package api exposes the HTTP surface: the GitHub webhook receiver and a
// health endpoint.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gitnotify/internal/events"
	"github.com/gitnotify/internal/subscriptions"
)

// eventRouter is the routing surface the webhook handler needs.
type eventRouter interface {
	Route(ctx context.Context, ev events.Event, mode subscriptions.DeliveryMode) error
}

// Server represents the API server
type Server struct {
	echo   *echo.Echo
	router eventRouter
	port   int
}

// NewServer creates a new API server
func NewServer(port int, router eventRouter) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	server := &Server{
		echo:   e,
		router: router,
		port:   port,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	s.echo.POST("/webhooks/github", s.GitHubWebhookHandler)
}

// Start begins the API server and blocks until an interrupt arrives.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
