package app

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"compass/internal/model/embedding"
	"compass/internal/model/llm"
	"compass/pkg/config"
	"compass/pkg/secrets"
)

// resolvedModel defaults 指向的 provider 与模型，api_key 已经 secrets 解析
type resolvedModel struct {
	provider string
	apiKey   string
	baseURL  string
	info     config.ModelInfo
}

func resolveModel(ctx context.Context, providers map[string]config.ProviderConfig, key, kind string, store secrets.Store) (*resolvedModel, error) {
	provider, modelKey, err := config.ParseDefaultKey(key)
	if err != nil {
		return nil, err
	}
	pc, ok := providers[provider]
	if !ok {
		return nil, fmt.Errorf("%s provider %q 未配置", kind, provider)
	}
	mi, ok := pc.Models[modelKey]
	if !ok {
		return nil, fmt.Errorf("%s model %q 未在 provider %q 中配置", kind, modelKey, provider)
	}
	apiKey, err := secrets.Resolve(ctx, store, pc.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%s provider %q api_key: %w", kind, provider, err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s provider %q 的 api_key 未配置", kind, provider)
	}
	return &resolvedModel{provider: provider, apiKey: apiKey, baseURL: pc.BaseURL, info: mi}, nil
}

// NewLLMClientFromConfig 根据 defaults.llm 创建工具内部使用的 LLM 客户端（如 "openai.gpt_4o_mini"）
func NewLLMClientFromConfig(ctx context.Context, cfg *config.Config, store secrets.Store) (llm.Client, error) {
	if cfg == nil || cfg.Model.Defaults.LLM == "" {
		return nil, fmt.Errorf("model.defaults.llm 未配置")
	}
	m, err := resolveModel(ctx, cfg.Model.LLM.Providers, cfg.Model.Defaults.LLM, "LLM", store)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(m.provider, m.info.Name, m.apiKey, m.baseURL)
}

// NewChatModelFromConfig 创建推理循环使用的 Eino ChatModel，与 LLM 客户端共用 defaults.llm
func NewChatModelFromConfig(ctx context.Context, cfg *config.Config, store secrets.Store) (model.BaseChatModel, error) {
	if cfg == nil || cfg.Model.Defaults.LLM == "" {
		return nil, fmt.Errorf("model.defaults.llm 未配置")
	}
	m, err := resolveModel(ctx, cfg.Model.LLM.Providers, cfg.Model.Defaults.LLM, "LLM", store)
	if err != nil {
		return nil, err
	}
	temperature := float32(m.info.Temperature)
	mc := &openai.ChatModelConfig{
		Model:       m.info.Name,
		APIKey:      m.apiKey,
		BaseURL:     m.baseURL,
		Temperature: &temperature,
	}
	if m.info.MaxTokens > 0 {
		maxTokens := m.info.MaxTokens
		mc.MaxTokens = &maxTokens
	}
	return openai.NewChatModel(ctx, mc)
}

// NewEmbedderFromConfig 根据 defaults.embedding 创建 Embedder；未配置时返回 nil, nil
func NewEmbedderFromConfig(ctx context.Context, cfg *config.Config, store secrets.Store) (*embedding.OpenAIEmbedder, error) {
	if cfg == nil || cfg.Model.Defaults.Embedding == "" {
		return nil, nil
	}
	m, err := resolveModel(ctx, cfg.Model.Embedding.Providers, cfg.Model.Defaults.Embedding, "Embedding", store)
	if err != nil {
		return nil, err
	}
	dimension := m.info.Dimension
	if dimension <= 0 {
		dimension = 1536
	}
	return embedding.NewOpenAIEmbedder(m.apiKey, m.info.Name, m.baseURL, dimension), nil
}
