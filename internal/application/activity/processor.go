package activity

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/workflow/node"
	"game-gen-ai-api/pkg/logger"
	"game-gen-ai-api/pkg/tracer"
)

// Result 流水线成功的输出
type Result struct {
	Activity *entity.Activity
	Warnings []*Diagnostic
	// Strategy 成功解析所用的修复策略
	Strategy string
	// Candidate 实际被解析的 JSON 文本
	Candidate string
}

// Processor 完整流水线：规范化、JSON 修复、解析、schema 校验、内容校验。
// 只持有不可变配置，可并发使用。
type Processor struct {
	opts      options
	validator *Validator
}

// NewProcessor 创建流水线
func NewProcessor(opts ...Option) *Processor {
	o := buildOptions(opts)
	return &Processor{opts: o, validator: newValidator(o)}
}

// Process 处理一段模型原始输出
func (p *Processor) Process(raw string) (*Result, error) {
	return p.ProcessContext(context.Background(), raw)
}

// ProcessContext 同 Process，日志与 span 关联到 ctx
func (p *Processor) ProcessContext(ctx context.Context, raw string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "activity.Process")
	defer span.End()

	res, diag := p.run(ctx, raw)
	if diag != nil {
		observeFailure(diag.Stage)
		span.SetAttributes(attribute.String("activity.failed_stage", string(diag.Stage)))
		tracer.RecordError(span, diag)
		return nil, diag
	}
	span.SetAttributes(
		attribute.String("activity.id", res.Activity.ID),
		attribute.String("activity.type", string(res.Activity.Type)),
		attribute.String("activity.strategy", res.Strategy),
		attribute.Int("activity.warnings", len(res.Warnings)),
	)
	return res, nil
}

func (p *Processor) run(ctx context.Context, raw string) (*Result, *Diagnostic) {
	log := logger.Attach(ctx, p.opts.logger)

	text := node.NormalizeCompletion(raw)
	if text == "" {
		return nil, p.diagnostic(StageJSONRecovery, "completion is empty after normalization", raw, nil)
	}

	rec, rerr := node.RecoverJSON(text)
	if rerr != nil {
		first := rerr.First()
		var cause *Diagnostic
		if first.Err != nil {
			cause = p.diagnostic(StageParse, first.Err.Error(), first.Candidate, nil)
		}
		return nil, p.diagnostic(StageJSONRecovery,
			fmt.Sprintf("no repair strategy produced valid JSON (%d attempts)", len(rerr.Attempts)), text, cause)
	}
	observeRecovery(rec.Strategy)
	if rec.Strategy != node.StrategyDirect {
		log.Info("completion repaired", "strategy", rec.Strategy)
	}

	act, warnings, diag := p.validator.Validate(rec.Root)
	if diag != nil {
		return nil, diag
	}

	observeWarnings(act.Type, len(warnings))
	for _, w := range warnings {
		log.Warn("content validation warning",
			"activity_id", act.ID, "type", act.Type, "field", w.Field, "message", w.Message)
	}
	if p.opts.strictContent && len(warnings) > 0 {
		return nil, p.diagnostic(StageContentVariant,
			fmt.Sprintf("%d content warnings rejected in strict mode", len(warnings)), rec.Candidate, warnings[0])
	}

	return &Result{
		Activity:  act,
		Warnings:  warnings,
		Strategy:  rec.Strategy,
		Candidate: rec.Candidate,
	}, nil
}

func (p *Processor) diagnostic(stage Stage, msg, raw string, cause *Diagnostic) *Diagnostic {
	return newDiagnostic(p.opts.excerptLimit, stage, msg, raw, cause)
}
