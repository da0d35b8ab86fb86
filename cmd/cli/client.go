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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("COMPASS_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient(baseURL string) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Minute).
		SetHeader("Content-Type", "application/json")
	if token := os.Getenv("COMPASS_API_TOKEN"); token != "" {
		c.SetAuthToken(token)
	}
	return c
}

type askRequest struct {
	Query     string `json:"query"`
	Domain    string `json:"domain,omitempty"`
	Source    string `json:"source,omitempty"`
	Highlight bool   `json:"highlight,omitempty"`
}

type highlight struct {
	Text          string `json:"text"`
	Source        string `json:"source"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

type askResponse struct {
	Answer            string         `json:"answer"`
	SourceHighlights  []highlight    `json:"source_highlights"`
	Degraded          bool           `json:"degraded"`
	ToolUsage         map[string]int `json:"tool_usage"`
	ResponseTime      float64        `json:"response_time"`
	HighlightedAnswer string         `json:"highlighted_answer,omitempty"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func ask(c *resty.Client, req askRequest) (*askResponse, error) {
	var out askResponse
	resp, err := c.R().
		SetBody(req).
		SetResult(&out).
		Post("/api/query")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/query: %s", resp.String())
	}
	return &out, nil
}

func listTools(c *resty.Client) ([]toolInfo, error) {
	var out struct {
		Tools []toolInfo `json:"tools"`
	}
	resp, err := c.R().
		SetResult(&out).
		Get("/api/tools")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/tools: %s", resp.String())
	}
	return out.Tools, nil
}

func getDashboard(c *resty.Client) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := c.R().
		SetResult(&out).
		Get("/api/dashboard")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/dashboard: %s", resp.String())
	}
	return out, nil
}

func sendFeedback(c *resty.Client, query, answer string, rating int) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := c.R().
		SetBody(map[string]interface{}{"query": query, "answer": answer, "rating": rating}).
		SetResult(&out).
		Post("/api/feedback")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/feedback: %s", resp.String())
	}
	return out, nil
}

func health(c *resty.Client) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := c.R().
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return out, nil
}

func prettyJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
