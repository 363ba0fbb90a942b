package model

// ActivityGenerateInput 活动生成链的输入
type ActivityGenerateInput struct {
	Prompt string
	// ActivityType 为空时由模型自行选择
	ActivityType string

	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int

	// JSONMode 请求 response_format=json_object，不支持时自动回退
	JSONMode bool
}
