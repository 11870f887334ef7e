package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/pkg/metrics"
)

// Metrics HTTP请求指标中间件
// 记录请求总数、耗时分布与并发数
// path使用路由模板(c.FullPath)而非原始URL,避免指标基数爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncGauge(metrics.HTTPRequestsInProgress)

		c.Next()

		metrics.DecGauge(metrics.HTTPRequestsInProgress)

		path := c.FullPath()
		if path == "" {
			path = "unmatched" // 404等未命中路由
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		metrics.IncCounterVec(metrics.HTTPRequestsTotal, method, path, status)
		metrics.ObserveHistogramVec(metrics.HTTPRequestDuration,
			map[string]string{"method": method, "path": path},
			time.Since(start).Seconds())
	}
}
