// Package activity 把模型输出恢复、校验为类型化的互动活动
package activity

import (
	"encoding/json"
	"fmt"
	"strings"

	"game-gen-ai-api/internal/workflow/node"
	"game-gen-ai-api/pkg/errors"
)

// Stage 流水线阶段
type Stage string

const (
	StageNormalization  Stage = "normalization"
	StageJSONRecovery   Stage = "json_recovery"
	StageParse          Stage = "parse"
	StageSchema         Stage = "schema"
	StageContentVariant Stage = "content_variant"
)

// DefaultExcerptLimit 诊断中原文摘录的默认 rune 上限
const DefaultExcerptLimit = 500

// Diagnostic 结构化的失败或警告，摘录长度有上限，不携带完整原文
type Diagnostic struct {
	Stage      Stage       `json:"stage"`
	Field      string      `json:"field,omitempty"`
	Message    string      `json:"message"`
	RawExcerpt string      `json:"rawExcerpt,omitempty"`
	Cause      *Diagnostic `json:"cause,omitempty"`
}

// NewDiagnostic 使用默认摘录上限创建诊断
func NewDiagnostic(stage Stage, message, raw string, cause *Diagnostic) *Diagnostic {
	return newDiagnostic(DefaultExcerptLimit, stage, message, raw, cause)
}

func newDiagnostic(limit int, stage Stage, message, raw string, cause *Diagnostic) *Diagnostic {
	if limit <= 0 {
		limit = DefaultExcerptLimit
	}
	return &Diagnostic{
		Stage:      stage,
		Message:    message,
		RawExcerpt: node.Excerpt(raw, limit),
		Cause:      cause,
	}
}

// WithField 标记出问题的字段路径
func (d *Diagnostic) WithField(field string) *Diagnostic {
	d.Field = field
	return d
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(string(d.Stage))
	b.WriteString(": ")
	if d.Field != "" {
		b.WriteString(d.Field)
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	if d.Cause != nil {
		b.WriteString(" (caused by ")
		b.WriteString(d.Cause.Error())
		b.WriteString(")")
	}
	return b.String()
}

func (d *Diagnostic) Unwrap() error {
	if d.Cause == nil {
		return nil
	}
	return d.Cause
}

// AppError 转换为对外的应用错误（502，生成失败）
func (d *Diagnostic) AppError() *errors.AppError {
	return errors.Wrap(d, errors.CodeGenerationFailed, "activity generation failed").WithDetail(d.Error())
}

// nodeExcerpt 节点的 JSON 文本，用作警告摘录
func nodeExcerpt(n *node.Node) string {
	if n == nil {
		return ""
	}
	b, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	return string(b)
}

func fieldPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
