// Package health exposes the process connection status and the in-memory
// call logs as a small read-only HTTP surface.
package health

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	statex "github.com/tanpawarit/cloud-pricing-assistant/agent/state"
)

type Config struct {
	Addr         string   `envconfig:"ADDR" default:":8089"`
	AllowOrigins []string `envconfig:"ALLOW_ORIGINS" split_words:"true"`
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func New(cfg Config, rec *statex.Recorder) *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery(), requestLogger())
	if len(cfg.AllowOrigins) > 0 {
		g.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet},
			MaxAge:       12 * time.Hour,
		}))
	}
	attachRoutes(g, rec)
	return g
}

func attachRoutes(g *gin.Engine, rec *statex.Recorder) {
	g.GET("/healthz", func(c *gin.Context) {
		snap := rec.Status().Snapshot()
		code := http.StatusOK
		if !snap.MCPConnected || !snap.CopilotConnected {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, snap)
	})

	debug := g.Group("/debug")
	debug.GET("/tool-calls", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"entries": rec.Calls()})
	})
	debug.GET("/mcp-results", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"entries": rec.Results()})
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("status request")
	}
}

// Serve runs the surface until ctx is done, then shuts it down.
func Serve(ctx context.Context, cfg Config, rec *statex.Recorder) error {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = ":8089"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           New(cfg, rec),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("status surface listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
