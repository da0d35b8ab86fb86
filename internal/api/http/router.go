package http

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"compass/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler       *Handler
	middleware    *middleware.Middleware
	enableMetrics bool
}

// NewRouter 创建 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{handler: handler, middleware: mw, enableMetrics: true}
}

// SetMetricsEnabled 是否暴露 /metrics
func (r *Router) SetMetricsEnabled(enable bool) { r.enableMetrics = enable }

// Build 创建 Hertz 实例并注册路由；server.Default 自带 Recovery
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(opts...)
	h.Use(r.middleware.AccessLog(), r.middleware.CORS())

	if r.enableMetrics {
		h.GET("/metrics", r.handler.Metrics)
	}

	api := h.Group("/api")
	api.GET("/health", r.handler.HealthCheck)
	api.OPTIONS("/*path", func(ctx context.Context, c *app.RequestContext) {})

	protected := api.Group("", r.middleware.Auth(), r.middleware.RateLimit())
	protected.POST("/query", r.handler.Query)
	protected.GET("/tools", r.handler.ListTools)
	protected.GET("/dashboard", r.handler.Dashboard)
	protected.POST("/feedback", r.handler.Feedback)
	return h
}
