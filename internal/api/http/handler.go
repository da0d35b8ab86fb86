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

package http

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"compass/internal/pipeline/query"
	"compass/internal/provenance"
	"compass/internal/router"
	"compass/internal/telemetry"
	"compass/internal/tool/registry"
	"compass/pkg/errors"
	"compass/pkg/metrics"
)

// QueryService 查询入口
type QueryService interface {
	RunQuery(ctx context.Context, q, domain, source string) (*query.Result, error)
}

// Handler HTTP 处理器
type Handler struct {
	queries      QueryService
	tools        *registry.Registry
	feedback     *telemetry.FeedbackLog
	queryLogPath string
	cutoff       float64
}

// NewHandler 创建 HTTP 处理器；queries/tools 可为 nil（对应接口返回 503）
func NewHandler(queries QueryService, tools *registry.Registry) *Handler {
	return &Handler{queries: queries, tools: tools, cutoff: provenance.DefaultThreshold}
}

// SetFeedbackLog 设置反馈写入端
func (h *Handler) SetFeedbackLog(f *telemetry.FeedbackLog) { h.feedback = f }

// SetQueryLogPath 设置看板读取的 JSONL 查询日志路径
func (h *Handler) SetQueryLogPath(path string) { h.queryLogPath = path }

// SetHighlightCutoff 设置答案高亮的相似度下限
func (h *Handler) SetHighlightCutoff(cutoff float64) {
	if cutoff > 0 {
		h.cutoff = cutoff
	}
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "compass-api",
	})
}

type queryRequest struct {
	Query     string `json:"query"`
	Domain    string `json:"domain"`
	Source    string `json:"source"`
	Highlight bool   `json:"highlight"`
}

type queryResponse struct {
	*query.Result
	HighlightedAnswer string `json:"highlighted_answer,omitempty"`
}

// Query 回答一个问题
// POST /api/query
func (h *Handler) Query(ctx context.Context, c *app.RequestContext) {
	if h.queries == nil {
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "query service not configured"})
		return
	}
	var req queryRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	if req.Source == "" {
		req.Source = router.SourceAll
	}

	res, err := h.queries.RunQuery(ctx, req.Query, req.Domain, req.Source)
	if err != nil {
		status := consts.StatusInternalServerError
		if errors.Is(err, errors.ErrInvalidArg) {
			status = consts.StatusBadRequest
		}
		hlog.CtxErrorf(ctx, "run query failed: %v", err)
		c.JSON(status, map[string]string{"error": err.Error()})
		return
	}

	resp := queryResponse{Result: res}
	if req.Highlight && len(res.SourceHighlights) > 0 {
		hs := make([]provenance.Highlight, 0, len(res.SourceHighlights))
		for _, sh := range res.SourceHighlights {
			hs = append(hs, provenance.Highlight{Text: sh.Text, Source: sh.Source})
		}
		resp.HighlightedAnswer = provenance.ApplyHighlights(res.Answer, hs, h.cutoff)
	}
	c.JSON(consts.StatusOK, resp)
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListTools 列出已注册工具
// GET /api/tools
func (h *Handler) ListTools(ctx context.Context, c *app.RequestContext) {
	out := []toolInfo{}
	if h.tools != nil {
		for _, t := range h.tools.List() {
			out = append(out, toolInfo{Name: t.Name(), Description: t.Description()})
		}
	}
	c.JSON(consts.StatusOK, map[string]interface{}{"tools": out})
}

// Dashboard 查询日志汇总
// GET /api/dashboard
func (h *Handler) Dashboard(ctx context.Context, c *app.RequestContext) {
	if h.queryLogPath == "" {
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "file telemetry sink not configured"})
		return
	}
	records, skipped, err := telemetry.LoadRecords(h.queryLogPath)
	if err != nil {
		hlog.CtxErrorf(ctx, "load query log %s: %v", h.queryLogPath, err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, telemetry.Summarize(records, skipped))
}

type feedbackRequest struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
	Rating int    `json:"rating"`
}

// Feedback 记录用户反馈
// POST /api/feedback
func (h *Handler) Feedback(ctx context.Context, c *app.RequestContext) {
	if h.feedback == nil {
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "feedback log not configured"})
		return
	}
	var req feedbackRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	fb, err := h.feedback.Record(ctx, req.Query, req.Answer, req.Rating)
	if err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, fb)
}

// Metrics Prometheus 文本格式指标
// GET /metrics
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	c.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
