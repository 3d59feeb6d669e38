package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"worry_solver/internal/config"
	"worry_solver/internal/http/controller"
	"worry_solver/internal/http/middleware"
	"worry_solver/internal/metrics"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.ZapLogger(logger),
		middleware.ZapRecovery(logger),
		middleware.Metrics(m),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	worries := router.Group("/worries")
	worries.POST("", handler.SubmitWorry)
	worries.DELETE("", handler.Reset)
	worries.GET("/current", handler.CurrentCode)
	worries.GET("/:code", handler.GetWorry)
	worries.HEAD("/:code", handler.HeadWorry)
	worries.POST("/:code/replies", handler.AddReply)
	worries.POST("/:code/replies/publish", handler.PublishReply)

	router.GET("/sse/:code", handler.SSE)

	return router
}
