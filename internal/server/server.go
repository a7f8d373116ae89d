package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alkime/captions/internal/config"
	"github.com/alkime/captions/internal/content"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Transcriber turns uploaded audio into text.
type Transcriber interface {
	TranscribeFile(ctx context.Context, audioFile io.Reader, filename string) (string, error)
}

// Captioner turns a description into a Reuters caption.
type Captioner interface {
	GenerateCaption(ctx context.Context, transcription string) (*content.Caption, error)
}

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	logger      *slog.Logger
	router      *gin.Engine
	transcriber Transcriber
	captioner   Captioner
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, transcriber Transcriber, captioner Captioner) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config:      cfg,
		logger:      logger,
		router:      router,
		transcriber: transcriber,
		captioner:   captioner,
	}

	setupSecurityMiddleware(router, cfg, logger)
	setupCORSMiddleware(router, cfg, logger)
	setupBodyLimit(router, cfg.MaxUploadBytes)
	setupStatic(router, cfg.PublicDir, logger)
	server.setupRoutes()

	return server
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server listening", "port", s.config.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/transcribe", s.handleTranscribe)
		api.POST("/upload-audio", s.handleUploadAudio)
		api.POST("/generate-caption", s.handleGenerateCaption)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
