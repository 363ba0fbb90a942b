package dto

import (
	"encoding/json"
	"time"

	"game-gen-ai-api/internal/application/activity"
	"game-gen-ai-api/internal/domain/entity"
	wfmodel "game-gen-ai-api/internal/workflow/model"
)

// GenerateRequest 生成活动请求
type GenerateRequest struct {
	Prompt       string `json:"prompt" binding:"required,max=2000"`
	ActivityType string `json:"activity_type,omitempty" binding:"omitempty,max=32"`
	Provider     string `json:"provider,omitempty" binding:"omitempty,max=32"`
}

// ParseRequest 解析模型原始输出请求
type ParseRequest struct {
	Raw string `json:"raw" binding:"required"`
}

// WarningResponse 内容校验警告
type WarningResponse struct {
	Stage   string `json:"stage"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ParseResponse 解析结果
type ParseResponse struct {
	Activity *entity.Activity   `json:"activity"`
	Strategy string             `json:"strategy"`
	Warnings []*WarningResponse `json:"warnings"`
}

// DebugResponse 调试生成响应，提示词与原始输出均截断
type DebugResponse struct {
	Request     GenerateRequest    `json:"request"`
	FullPrompt  string             `json:"full_prompt"`
	RawResponse string             `json:"raw_response"`
	FinalGame   *entity.Activity   `json:"final_game"`
	Strategy    string             `json:"strategy,omitempty"`
	Warnings    []*WarningResponse `json:"warnings"`
	Usage       *UsageResponse     `json:"usage,omitempty"`
	Error       *ErrorDetail       `json:"error,omitempty"`
}

// UsageResponse 单次模型调用的用量
type UsageResponse struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	DurationMs       int64  `json:"duration_ms"`
}

// StoredActivityResponse 已存储的活动
type StoredActivityResponse struct {
	ActivityID   string          `json:"activity_id"`
	Type         string          `json:"type"`
	Category     string          `json:"category,omitempty"`
	Title        string          `json:"title"`
	Strategy     string          `json:"strategy,omitempty"`
	WarningCount int             `json:"warning_count"`
	CreatedAt    string          `json:"created_at"`
	Activity     json.RawMessage `json:"activity,omitempty"`
}

// ActivityListResponse 活动列表
type ActivityListResponse struct {
	Activities []*StoredActivityResponse `json:"activities"`
}

// ToWarningResponses 转换警告列表，始终返回非 nil 切片
func ToWarningResponses(warnings []*activity.Diagnostic) []*WarningResponse {
	out := make([]*WarningResponse, 0, len(warnings))
	for _, w := range warnings {
		if w == nil {
			continue
		}
		out = append(out, &WarningResponse{
			Stage:   string(w.Stage),
			Field:   w.Field,
			Message: w.Message,
		})
	}
	return out
}

// ToParseResponse 转换流水线结果
func ToParseResponse(res *activity.Result) *ParseResponse {
	if res == nil {
		return nil
	}
	return &ParseResponse{
		Activity: res.Activity,
		Strategy: res.Strategy,
		Warnings: ToWarningResponses(res.Warnings),
	}
}

// ToStoredActivityResponse 转换存储记录；withPayload 为 false 时不带完整活动
func ToStoredActivityResponse(a *entity.GeneratedActivity, withPayload bool) *StoredActivityResponse {
	if a == nil {
		return nil
	}
	resp := &StoredActivityResponse{
		ActivityID:   a.ActivityID,
		Type:         string(a.Type),
		Category:     string(a.Category),
		Title:        a.Title,
		Strategy:     a.Strategy,
		WarningCount: a.WarningCount,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
	if withPayload {
		resp.Activity = a.Payload
	}
	return resp
}

// ToActivityListResponse 转换活动列表
func ToActivityListResponse(items []*entity.GeneratedActivity) *ActivityListResponse {
	out := make([]*StoredActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToStoredActivityResponse(a, false))
	}
	return &ActivityListResponse{Activities: out}
}

// ToUsageResponse 转换模型用量
func ToUsageResponse(meta *wfmodel.LLMUsageMeta) *UsageResponse {
	if meta == nil {
		return nil
	}
	return &UsageResponse{
		Provider:         meta.Provider,
		Model:            meta.Model,
		PromptTokens:     meta.PromptTokens,
		CompletionTokens: meta.CompletionTokens,
		DurationMs:       meta.Duration.Milliseconds(),
	}
}
