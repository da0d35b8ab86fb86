package llm

import (
	"context"
	"fmt"
)

// Client LLM 客户端接口
type Client interface {
	// Generate 单轮生成
	Generate(ctx context.Context, prompt string, options GenerateOptions) (string, error)
	// Chat 多轮对话
	Chat(ctx context.Context, messages []Message, options GenerateOptions) (string, error)
	// Model 返回模型名称
	Model() string
	// Provider 返回提供商名称
	Provider() string
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Message 聊天消息
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Generator 仅需 prompt -> text 的调用方使用的窄接口
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type clientGenerator struct {
	client  Client
	options GenerateOptions
}

// AsGenerator 以固定选项把 Client 适配为 Generator
func AsGenerator(c Client, options GenerateOptions) Generator {
	return &clientGenerator{client: c, options: options}
}

func (g *clientGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.client.Generate(ctx, prompt, g.options)
}

// NewClient 创建 LLM 客户端；provider 为 openai 兼容端点（openai / qwen / deepseek 等），baseURL 为空时使用默认
func NewClient(provider, model, apiKey, baseURL string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("LLM provider %q api_key 未配置", provider)
	}
	c, err := NewOpenAIClient(model, apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	if provider != "" {
		c.provider = provider
	}
	return c, nil
}
