// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/jwt"
	"golang.org/x/time/rate"

	"compass/pkg/config"
)

const identityKey = "sub"

// Middleware 中间件管理器
type Middleware struct {
	cfg          config.APIConfig
	jwt          *jwt.HertzJWTMiddleware
	allowOrigins map[string]bool
}

// NewMiddleware 根据 API 配置创建中间件；启用 auth 时必须配置 jwt_key
func NewMiddleware(cfg config.APIConfig) (*Middleware, error) {
	m := &Middleware{cfg: cfg, allowOrigins: make(map[string]bool)}
	for _, o := range cfg.CORS.AllowOrigins {
		m.allowOrigins[o] = true
	}
	if cfg.Middleware.Auth {
		if cfg.Middleware.JWTKey == "" {
			return nil, fmt.Errorf("api.middleware.jwt_key 未配置")
		}
		mw, err := jwt.New(&jwt.HertzJWTMiddleware{
			Realm:       "compass",
			Key:         []byte(cfg.Middleware.JWTKey),
			Timeout:     parseDuration(cfg.Middleware.JWTTimeout, time.Hour),
			MaxRefresh:  parseDuration(cfg.Middleware.JWTMaxRefresh, time.Hour),
			IdentityKey: identityKey,
			TokenLookup: "header: Authorization",
			Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
				c.JSON(code, map[string]string{"error": message})
			},
		})
		if err != nil {
			return nil, fmt.Errorf("初始化 JWT 中间件失败: %w", err)
		}
		m.jwt = mw
	}
	return m, nil
}

// CORS 跨域中间件；未配置 allow_origins 时允许任意来源
func (m *Middleware) CORS() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if !m.cfg.CORS.Enable {
			c.Next(ctx)
			return
		}
		origin := string(c.GetHeader("Origin"))
		allow := "*"
		if len(m.allowOrigins) > 0 {
			if !m.allowOrigins[origin] {
				allow = ""
			} else {
				allow = origin
			}
		}
		if allow != "" {
			c.Header("Access-Control-Allow-Origin", allow)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if string(c.Method()) == consts.MethodOptions {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}

// Auth JWT 认证；未启用时直接放行
func (m *Middleware) Auth() app.HandlerFunc {
	if m.jwt == nil {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	return m.jwt.MiddlewareFunc()
}

// JWT 返回底层 JWT 中间件，未启用 auth 时为 nil
func (m *Middleware) JWT() *jwt.HertzJWTMiddleware { return m.jwt }

// RateLimit 进程级令牌桶限流；rate_limit_rps <= 0 时不限流
func (m *Middleware) RateLimit() app.HandlerFunc {
	rps := m.cfg.Middleware.RateLimitRPS
	if !m.cfg.Middleware.RateLimit || rps <= 0 {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	return func(ctx context.Context, c *app.RequestContext) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(consts.StatusTooManyRequests, map[string]string{
				"error": "请求过于频繁，请稍后再试",
			})
			return
		}
		c.Next(ctx)
	}
}

// AccessLog 请求日志
func (m *Middleware) AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		path := string(c.Path())
		if strings.HasPrefix(path, "/metrics") {
			return
		}
		hlog.CtxInfof(ctx, "%s %s status=%d latency=%s ip=%s",
			c.Method(), path, c.Response.StatusCode(), time.Since(start), c.ClientIP())
	}
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
