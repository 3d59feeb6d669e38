package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"worry_solver/internal/metrics"
)

// Metrics observes request latency by route template, not raw path, so
// access codes never become label values.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m.RequestDuration.
			WithLabelValues(c.Request.Method, routeOf(c), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
