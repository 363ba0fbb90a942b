package service

import "context"

// LLMUsageInput 一次活动生成的模型用量
type LLMUsageInput struct {
	ActivityID string

	Workflow string
	Provider string
	Model    string

	PromptTokens     int
	CompletionTokens int
	DurationMs       int
}

// LLMUsageRecorder 记录模型用量；实现应为 best-effort，不阻塞生成流程
type LLMUsageRecorder interface {
	Record(ctx context.Context, in LLMUsageInput) error
}
