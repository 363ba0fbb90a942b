package service

import (
	"context"
	"time"
)

// ActivityGeneratedEvent 一个活动通过校验后发出的事件
type ActivityGeneratedEvent struct {
	ActivityID       string    `json:"activity_id"`
	Type             string    `json:"type"`
	Category         string    `json:"category,omitempty"`
	Title            string    `json:"title"`
	Strategy         string    `json:"strategy"`
	Warnings         int       `json:"warnings"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Stored           bool      `json:"stored"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// ActivityEventPublisher 活动事件发布者
type ActivityEventPublisher interface {
	PublishActivityGenerated(ctx context.Context, evt *ActivityGeneratedEvent) error
}
