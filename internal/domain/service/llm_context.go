package service

import (
	"context"
	"strings"
)

const unknownLabel = "unknown"

// LLMCall 一次模型调用的归属，随 context 传给 eino 回调用于打点
type LLMCall struct {
	Workflow     string
	Provider     string
	ActivityType string
}

type llmCallKey struct{}

// WithLLMCall 写入调用归属；空字段沿用 ctx 中已有的值
func WithLLMCall(ctx context.Context, call LLMCall) context.Context {
	if ctx == nil {
		return nil
	}
	prev, _ := ctx.Value(llmCallKey{}).(LLMCall)
	merged := LLMCall{
		Workflow:     firstNonEmpty(call.Workflow, prev.Workflow),
		Provider:     firstNonEmpty(call.Provider, prev.Provider),
		ActivityType: firstNonEmpty(call.ActivityType, prev.ActivityType),
	}
	return context.WithValue(ctx, llmCallKey{}, merged)
}

// LLMCallFromContext 读取调用归属，缺失字段为 "unknown"
func LLMCallFromContext(ctx context.Context) LLMCall {
	var call LLMCall
	if ctx != nil {
		call, _ = ctx.Value(llmCallKey{}).(LLMCall)
	}
	return LLMCall{
		Workflow:     firstNonEmpty(call.Workflow, unknownLabel),
		Provider:     firstNonEmpty(call.Provider, unknownLabel),
		ActivityType: firstNonEmpty(call.ActivityType, unknownLabel),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
