package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type sessionCoordinator interface {
	CreateSession(ctx context.Context, name string) (usecase.Admission, error)
	JoinSession(ctx context.Context, code, name string) (usecase.Admission, error)
	StartSession(ctx context.Context, code, participantID string) (usecase.StartResult, error)
	SubmitMove(ctx context.Context, code, participantID string, cell int) (entity.Snapshot, error)
	ResetSession(ctx context.Context, code string) error
	GetSnapshot(ctx context.Context, code string) (entity.Snapshot, error)
	RemoveSession(ctx context.Context, code string)
	SessionCount() int
}

type snapshotMirror interface {
	Latest(ctx context.Context, code string) (entity.Snapshot, error)
}

type Server struct {
	logger      *slog.Logger
	coordinator sessionCoordinator
	mirror      snapshotMirror
	router      *gin.Engine
}

type Option func(*Server)

// WithMirror - serves GET /sessions/:code/mirror from the Redis mirror.
func WithMirror(mirror snapshotMirror) Option {
	return func(that *Server) {
		that.mirror = mirror
	}
}

func New(logger *slog.Logger, coordinator sessionCoordinator, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		logger:      logger.With("component", "rest"),
		coordinator: coordinator,
		router:      gin.New(),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.router.Use(gin.Recovery(), server.requestLogger())
	server.routes()

	return server
}

func (that *Server) routes() {
	that.router.GET("/ping", that.ping)
	that.router.GET("/health", that.health)

	sessions := that.router.Group("/sessions")
	sessions.POST("", that.createSession)
	sessions.GET("/:code", that.getSnapshot)
	sessions.DELETE("/:code", that.removeSession)
	sessions.POST("/:code/join", that.joinSession)
	sessions.POST("/:code/start", that.startSession)
	sessions.POST("/:code/moves", that.submitMove)
	sessions.POST("/:code/reset", that.resetSession)

	if that.mirror != nil {
		sessions.GET("/:code/mirror", that.getMirrored)
	}
}

// Handler - exposes the router, mostly for tests.
func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - serves HTTP on port until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		that.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
