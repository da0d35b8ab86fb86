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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig             `mapstructure:"api"`
	Agent      AgentConfig           `mapstructure:"agent"`
	Model      ModelConfig           `mapstructure:"model"`
	Backends   BackendsConfig        `mapstructure:"backends"`
	Tools      map[string]ToolConfig `mapstructure:"tools"`
	Telemetry  TelemetryConfig       `mapstructure:"telemetry"`
	Secrets    SecretsConfig         `mapstructure:"secrets"`
	Log        LogConfig             `mapstructure:"log"`
	Monitoring MonitoringConfig      `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port       int              `mapstructure:"port"`
	Host       string           `mapstructure:"host"`
	Timeout    string           `mapstructure:"timeout"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	Auth          bool   `mapstructure:"auth"`
	RateLimit     bool   `mapstructure:"rate_limit"`
	RateLimitRPS  int    `mapstructure:"rate_limit_rps"`
	JWTKey        string `mapstructure:"jwt_key"`
	JWTTimeout    string `mapstructure:"jwt_timeout"` // 如 "1h"
	JWTMaxRefresh string `mapstructure:"jwt_max_refresh"`
}

// AgentConfig 推理循环配置
type AgentConfig struct {
	MaxSteps   int              `mapstructure:"max_steps"`  // 步数上限，<=0 使用默认 15
	UsageMode  string           `mapstructure:"usage_mode"` // accumulate | first
	Provenance ProvenanceConfig `mapstructure:"provenance"`
}

// ProvenanceConfig 出处匹配配置
type ProvenanceConfig struct {
	Threshold     float64 `mapstructure:"threshold"`      // 低置信阈值，<=0 使用默认 0.4
	LowConfidence string  `mapstructure:"low_confidence"` // flag | suppress | pass
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
}

// LLMConfig LLM 模型配置
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// EmbeddingConfig Embedding 模型配置
type EmbeddingConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	APIKey  string               `mapstructure:"api_key"`
	BaseURL string               `mapstructure:"base_url"`
	Models  map[string]ModelInfo `mapstructure:"models"`
}

// ModelInfo 模型信息
type ModelInfo struct {
	Name        string  `mapstructure:"name"`
	Temperature float64 `mapstructure:"temperature"`
	Dimension   int     `mapstructure:"dimension"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DefaultsConfig 默认模型，格式 provider.model_key
type DefaultsConfig struct {
	LLM       string `mapstructure:"llm"`
	Embedding string `mapstructure:"embedding"`
}

// BackendsConfig 三类检索后端
type BackendsConfig struct {
	Records   RecordsConfig   `mapstructure:"records"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Graph     GraphConfig     `mapstructure:"graph"`
}

// RecordsConfig 结构化记录库（Postgres）
type RecordsConfig struct {
	DSN     string   `mapstructure:"dsn"`
	Tables  []string `mapstructure:"tables"`   // 允许查询的表，空则取 public schema 全部
	MaxRows int      `mapstructure:"max_rows"` // 单次结果行数上限
}

// VectorConfig 向量检索配置（redis 使用 eino-ext retriever）
type VectorConfig struct {
	Type      string  `mapstructure:"type"` // redis | memory | 留空关闭
	Addr      string  `mapstructure:"addr"`
	DB        string  `mapstructure:"db"`
	Index     string  `mapstructure:"index"`
	Password  string  `mapstructure:"password"`
	TopK      int     `mapstructure:"top_k"`
	ChunkSize int     `mapstructure:"chunk_size"` // memory：每块词数
	Threshold float64 `mapstructure:"threshold"`  // memory：最低相似度
}

// DocumentsConfig 已解析文档来源
type DocumentsConfig struct {
	Type string `mapstructure:"type"` // jsonl | postgres
	Path string `mapstructure:"path"` // jsonl 文件路径
	DSN  string `mapstructure:"dsn"`
}

// GraphConfig Neo4j 图数据库
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// ToolConfig 单个工具的超时与限流
type ToolConfig struct {
	Timeout string  `mapstructure:"timeout"`
	QPS     float64 `mapstructure:"qps"`
	Burst   int     `mapstructure:"burst"`
}

// TelemetryConfig 查询日志与反馈
type TelemetryConfig struct {
	Sinks        []string `mapstructure:"sinks"` // file | postgres | redis
	File         string   `mapstructure:"file"`
	DSN          string   `mapstructure:"dsn"`
	RedisAddr    string   `mapstructure:"redis_addr"`
	Stream       string   `mapstructure:"stream"`
	FeedbackFile string   `mapstructure:"feedback_file"`
	// Redact 写入前脱敏的 LogRecord 字段
	Redact []RedactConfig `mapstructure:"redact"`
}

// RedactConfig 单个字段的脱敏规则
type RedactConfig struct {
	Field string `mapstructure:"field"` // 如 query、final_answer
	Mode  string `mapstructure:"mode"`  // redact | hash | remove
	Salt  string `mapstructure:"salt"`
}

// SecretsConfig secret 来源
type SecretsConfig struct {
	Provider   string `mapstructure:"provider"` // env | vault
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// LoadAPIConfig 加载 API 配置（configs/api.yaml，可由 COMPASS_CONFIG 覆盖）
func LoadAPIConfig() (*Config, error) {
	path := "configs/api.yaml"
	if p := os.Getenv("COMPASS_CONFIG"); p != "" {
		path = p
	}
	return LoadConfig(path)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("agent.max_steps", 15)
	v.SetDefault("agent.usage_mode", "accumulate")
	v.SetDefault("agent.provenance.threshold", 0.4)
	v.SetDefault("agent.provenance.low_confidence", "flag")
	v.SetDefault("backends.vector.top_k", 3)
	v.SetDefault("backends.vector.chunk_size", 200)
	v.SetDefault("backends.documents.type", "jsonl")
	v.SetDefault("backends.documents.path", "data/unstructured/parsed.jsonl")
	v.SetDefault("backends.records.max_rows", 50)
	v.SetDefault("telemetry.sinks", []string{"file"})
	v.SetDefault("telemetry.file", "logs/agent_calls.jsonl")
	v.SetDefault("telemetry.stream", "compass:queries")
	v.SetDefault("telemetry.feedback_file", "logs/feedback.jsonl")
	v.SetDefault("secrets.provider", "env")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// replaceEnvVars 将 ${VAR} 形式的值替换为环境变量；未设置的保持原样，交由 secrets 解析
func replaceEnvVars(config *Config) {
	for name, pc := range config.Model.LLM.Providers {
		pc.APIKey = expandEnv(pc.APIKey)
		config.Model.LLM.Providers[name] = pc
	}
	for name, pc := range config.Model.Embedding.Providers {
		pc.APIKey = expandEnv(pc.APIKey)
		config.Model.Embedding.Providers[name] = pc
	}
	config.Backends.Records.DSN = expandEnv(config.Backends.Records.DSN)
	config.Backends.Graph.Password = expandEnv(config.Backends.Graph.Password)
	config.Backends.Vector.Password = expandEnv(config.Backends.Vector.Password)
	config.Telemetry.DSN = expandEnv(config.Telemetry.DSN)
	config.API.Middleware.JWTKey = expandEnv(config.API.Middleware.JWTKey)
}

func expandEnv(s string) string {
	name, ok := Placeholder(s)
	if !ok {
		return s
	}
	if val := os.Getenv(name); val != "" {
		return val
	}
	return s
}

// Placeholder 解析 "${NAME}" 形式的占位符，返回 NAME
func Placeholder(s string) (string, bool) {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
	return name, name != ""
}

// ParseDefaultKey 拆分 "provider.model_key"
func ParseDefaultKey(key string) (provider, modelKey string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("default key 格式应为 provider.model_key，如 openai.gpt_4o_mini，当前: %q", key)
	}
	return parts[0], parts[1], nil
}
