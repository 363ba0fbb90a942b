package gamegen

import (
	"context"
	_ "embed"

	"game-gen-ai-api/internal/application/activity"
)

// sampleCompletion 一段典型的模型原始输出：带围栏、前后说明、Python 字面量和尾逗号
//
//go:embed sample_completion.txt
var sampleCompletion string

// SampleCompletion 内置示例补全
func SampleCompletion() string {
	return sampleCompletion
}

// Sample 将内置示例补全送入流水线，不调用模型
func (s *Service) Sample(ctx context.Context) (*activity.Result, error) {
	res, err := s.processor.ProcessContext(ctx, sampleCompletion)
	if err != nil {
		return nil, toAppError(err)
	}
	return res, nil
}
