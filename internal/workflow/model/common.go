package model

import "time"

// LLMUsageMeta 一次调用的提供商与用量
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
	GeneratedAt      time.Time
}
