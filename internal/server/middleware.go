package server

import (
	"log/slog"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/alkime/captions/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// setupSecurityMiddleware configures and applies security middleware to the router
func setupSecurityMiddleware(router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	// HSTS only makes sense behind TLS in production
	stsSeconds := int64(0)
	if cfg.Env == config.EnvProduction {
		stsSeconds = int64(cfg.HSTSMaxAge)
	}

	secureMiddleware := secure.New(secure.Config{
		STSSeconds:            stsSeconds,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: config.BuildCSP(cfg.CSPMode),
	})
	router.Use(secureMiddleware)

	logger.Debug("Configured security middleware",
		"hsts_enabled", cfg.Env == config.EnvProduction,
		"csp_mode", cfg.CSPMode,
	)
}

func setupCORSMiddleware(router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	corsConfig := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}

	router.Use(cors.New(corsConfig))

	logger.Debug("Configured CORS middleware", "origins", cfg.AllowedOrigins)
}

// setupBodyLimit caps request bodies; handlers turn the resulting read
// error into 413.
func setupBodyLimit(router *gin.Engine, limit int64) {
	router.Use(func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": errTooLarge})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	})
}

// setupStatic serves the web frontend from dir when it exists.
func setupStatic(router *gin.Engine, dir string, logger *slog.Logger) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Debug("No public directory, static files disabled", "dir", dir)
		return
	}

	router.Use(static.Serve("/", static.LocalFile(dir, false)))
	logger.Debug("Serving static files", "dir", dir)
}
