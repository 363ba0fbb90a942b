// Package llm 管理模型提供商客户端
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"game-gen-ai-api/internal/config"
)

// EinoFactory 按提供商名称惰性创建并缓存 ChatModel
type EinoFactory struct {
	config config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg config.LLMConfig) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，名称为空时使用默认提供商
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	name = f.Resolve(name)
	if name == "" {
		return nil, fmt.Errorf("no llm provider configured")
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}
	if strings.TrimSpace(providerCfg.APIKey) == "" {
		return nil, fmt.Errorf("provider %s has no api key", name)
	}

	cfg := &openai.ChatModelConfig{
		APIKey:  providerCfg.APIKey,
		BaseURL: providerCfg.BaseURL,
		Model:   providerCfg.Model,
		Timeout: providerCfg.Timeout,
	}
	if providerCfg.MaxTokens > 0 {
		maxTokens := providerCfg.MaxTokens
		cfg.MaxTokens = &maxTokens
	}
	if providerCfg.Temperature > 0 {
		temperature := float32(providerCfg.Temperature)
		cfg.Temperature = &temperature
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// Resolve 返回实际使用的提供商名称
func (f *EinoFactory) Resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = f.config.DefaultProvider
	}
	return name
}

// ModelName 提供商配置的模型名
func (f *EinoFactory) ModelName(name string) string {
	return f.config.Providers[f.Resolve(name)].Model
}

// Providers 已配置 api key 的提供商，按名称排序
func (f *EinoFactory) Providers() []string {
	names := make([]string, 0, len(f.config.Providers))
	for name, p := range f.config.Providers {
		if strings.TrimSpace(p.APIKey) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
