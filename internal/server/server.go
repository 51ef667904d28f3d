// Package server exposes the bounty board over a JSON API. Every mutating
// route reads the acting wallet from the X-Wallet header; signature
// verification sits in front of this service, not inside it.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/token"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Engine    *lifecycle.Engine
	BoardAddr string
	Port      int
	Out       io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Engine == nil {
		return fmt.Errorf("server: engine is required")
	}
	if opts.BoardAddr == "" {
		return fmt.Errorf("server: board address is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router := NewRouter(opts.Engine, opts.BoardAddr)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Bounty board API listening on :%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router serving one board.
func NewRouter(engine *lifecycle.Engine, boardAddr string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, engine, boardAddr)
	return router
}

// wallet reads the acting wallet from the X-Wallet header.
func wallet(c *gin.Context) (string, bool) {
	w := c.GetHeader("X-Wallet")
	if w == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Wallet header is required"})
		return "", false
	}
	return w, true
}

// fail translates a lifecycle error into an HTTP status and JSON body.
func fail(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrPermissionDenied),
		errors.Is(err, lifecycle.ErrNotAuthorizedToRejectSubmission):
		status = http.StatusForbidden
	case errors.Is(err, lifecycle.ErrInvalidStateForTransition),
		errors.Is(err, lifecycle.ErrIdentityMismatch),
		errors.Is(err, lifecycle.ErrRequestChangeLimitReached),
		errors.Is(err, lifecycle.ErrNonBlankSubmission),
		errors.Is(err, lifecycle.ErrTiersAlreadyConfigured):
		status = http.StatusConflict
	case errors.Is(err, lifecycle.ErrSubmissionNotStale):
		status = http.StatusPreconditionFailed
	case errors.Is(err, lifecycle.ErrInsufficientVaultFunds),
		errors.Is(err, token.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, lifecycle.ErrTierNotConfigured),
		errors.Is(err, lifecycle.ErrTierRequirementNotMet):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
