// Package devserver is a self-contained in-memory backend implementing the
// task and chat API. It exists for local development and integration tests,
// so the client can be exercised without a real deployment.
package devserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	"taskdeck/pkg/log"
	"taskdeck/pkg/ollama"
)

// Server holds all dependencies for the dev server.
type Server struct {
	gin  *gin.Engine
	l    log.Logger
	port int
	mode string

	store       *Store
	ai          ollama.IOllama
	limiter     *rateLimiter
	idempotency *idempotencyCache
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger log.Logger
	Port   int
	Mode   string

	// AI is optional; without it generation falls back to canned suggestions.
	AI ollama.IOllama

	RateLimitPerMin int
}

// New creates a dev server instance.
func New(cfg Config) (*Server, error) {
	gin.SetMode(cfg.Mode)

	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 120
	}

	srv := &Server{
		l:           cfg.Logger,
		gin:         gin.New(),
		port:        cfg.Port,
		mode:        cfg.Mode,
		store:       NewStore(),
		ai:          cfg.AI,
		limiter:     newRateLimiter(cfg.RateLimitPerMin),
		idempotency: newIdempotencyCache(),
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	srv.mapHandlers()
	return srv, nil
}

func (srv *Server) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	return nil
}
