package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"tourbook/internal/infra/config"
	"tourbook/internal/infra/obs"
)

type CancellationHTTP interface {
	Raise(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	ListPending(c *gin.Context)
}

type FeeTierHTTP interface {
	Get(c *gin.Context)
	Upsert(c *gin.Context)
}

type Handlers struct {
	Cancellation CancellationHTTP
	FeeTier      FeeTierHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Cancellation != nil {
		api.POST("/bookings/:id/cancellations", h.Cancellation.Raise)
		api.POST("/bookings/:id/cancellations/approve", h.Cancellation.Approve)
		api.POST("/bookings/:id/cancellations/:recordId/reject", h.Cancellation.Reject)
		api.GET("/cancellations/pending", h.Cancellation.ListPending)
	}
	if h.FeeTier != nil {
		api.GET("/fee-tiers", h.FeeTier.Get)
		api.PUT("/fee-tiers", h.FeeTier.Upsert)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
