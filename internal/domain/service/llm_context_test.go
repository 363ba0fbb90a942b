package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMCallFromContextDefaults(t *testing.T) {
	call := LLMCallFromContext(context.Background())
	assert.Equal(t, LLMCall{Workflow: "unknown", Provider: "unknown", ActivityType: "unknown"}, call)
}

func TestWithLLMCallMerges(t *testing.T) {
	ctx := WithLLMCall(context.Background(), LLMCall{Workflow: "activity_generate", ActivityType: "quiz"})
	ctx = WithLLMCall(ctx, LLMCall{Provider: " openai "})

	call := LLMCallFromContext(ctx)
	assert.Equal(t, "activity_generate", call.Workflow)
	assert.Equal(t, "openai", call.Provider)
	assert.Equal(t, "quiz", call.ActivityType)
}
