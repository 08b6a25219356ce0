package middleware

import (
	"strconv"
	"time"

	"github.com/capy-market/capybara-backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics HTTP 指标采集中间件
// 路径维度使用路由模板（/api/products/:id），避免基数爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
		).Observe(time.Since(start).Seconds())
	}
}
