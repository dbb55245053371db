// Package api provides the REST API server for autokalimba
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/autokalimba/pkg/kalimba"
)

// @title autokalimba API
// @version 1.0
// @description Play the autokalimba over HTTP: pointer, key and steno events plus target state
// @host localhost:8080
// @BasePath /api/v1

// MinPointerID is the lowest pointer id accepted over HTTP. Lower ids belong
// to the steno keyboard.
const MinPointerID = 32

// Player is the part of kalimba.Player the API drives
type Player interface {
	PointerDown(ctx context.Context, id int, target string) (bool, error)
	PointerUp(ctx context.Context, id int) error
	KeyDown(ctx context.Context, ev kalimba.KeyEvent) (bool, error)
	KeyUp(ctx context.Context, ev kalimba.KeyEvent) error
	StenoReport(ctx context.Context, bits uint32) error
	ReleaseAll(ctx context.Context) error
	Target(ctx context.Context, name string) (kalimba.TargetState, bool, error)
	Targets(ctx context.Context) ([]kalimba.TargetState, error)
	Settings(ctx context.Context) (kalimba.Settings, error)
	UpdateSettings(ctx context.Context, fn func(*kalimba.Settings)) (kalimba.Settings, error)
}

type handlers struct {
	player Player
	logger *slog.Logger
}

// NewRouter builds the gin engine serving player
func NewRouter(player Player, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{player: player, logger: logger}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(requestID(logger))
	r.Use(corsMiddleware())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/targets", h.listTargets)
		v1.GET("/targets/:name", h.getTarget)
		v1.POST("/pointer/down", h.pointerDown)
		v1.POST("/pointer/up", h.pointerUp)
		v1.POST("/key/down", h.keyDown)
		v1.POST("/key/up", h.keyUp)
		v1.POST("/steno", h.steno)
		v1.POST("/release", h.release)
		v1.GET("/settings", h.getSettings)
		v1.PUT("/settings", h.putSettings)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer serves the API on port until ctx is done
func StartServer(ctx context.Context, port int, player Player, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(player, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestID tags each request with an id and logs it once handled
func requestID(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		start := time.Now()

		c.Next()

		logger.Debug("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// respondErr maps player errors to a status code
func (h *handlers) respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, kalimba.ErrStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	h.logger.Warn("request failed", "path", c.FullPath(), "err", err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "autokalimba",
	})
}
