// Package callback 为 eino 模型调用挂载 span 与 prometheus 指标
package callback

import (
	"context"
	"sync"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"game-gen-ai-api/internal/domain/service"
	"game-gen-ai-api/pkg/metrics"
)

var initOnce sync.Once

// Init 注册全局回调，进程内只生效一次
func Init() {
	initOnce.Do(func() {
		einocb.AppendGlobalHandlers(cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler()).
			Handler())
	})
}

// callState OnStart 写入、OnEnd/OnError 读取
type callState struct {
	start    time.Time
	provider string
	model    string
}

type callStateKey struct{}

func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			call := service.LLMCallFromContext(ctx)
			st := &callState{start: time.Now(), provider: call.Provider, model: modelNameFromInput(input)}
			ctx = context.WithValue(ctx, callStateKey{}, st)

			attrs := []attribute.KeyValue{
				attribute.String("eino.workflow", call.Workflow),
				attribute.String("llm.provider", call.Provider),
				attribute.String("llm.model", st.model),
				attribute.String("activity.type", call.ActivityType),
			}
			if info != nil {
				attrs = append(attrs, attribute.String("eino.node_name", info.Name))
			}
			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, _ *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			st := stateFromContext(ctx)
			if name := modelNameFromOutput(output); name != "" {
				st.model = name
			}
			span := finish(ctx, st, "success")

			if output != nil && output.TokenUsage != nil {
				usage := output.TokenUsage
				metrics.LLMTokensUsed.WithLabelValues(st.provider, st.model, "prompt").Add(float64(usage.PromptTokens))
				metrics.LLMTokensUsed.WithLabelValues(st.provider, st.model, "completion").Add(float64(usage.CompletionTokens))
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", usage.PromptTokens),
					attribute.Int("llm.completion_tokens", usage.CompletionTokens),
				)
			}
			span.End()
			return ctx
		},

		OnError: func(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
			span := finish(ctx, stateFromContext(ctx), "error")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		},
	}
}

// finish 记录调用次数与耗时，返回待结束的 span
func finish(ctx context.Context, st *callState, status string) trace.Span {
	metrics.LLMCallTotal.WithLabelValues(st.provider, st.model, status).Inc()
	if d := st.elapsed(); d > 0 {
		metrics.LLMCallDuration.WithLabelValues(st.provider, st.model).Observe(d)
	}
	return trace.SpanFromContext(ctx)
}

func stateFromContext(ctx context.Context) *callState {
	if st, ok := ctx.Value(callStateKey{}).(*callState); ok && st != nil {
		return st
	}
	return &callState{provider: service.LLMCallFromContext(ctx).Provider}
}

func (s *callState) elapsed() float64 {
	if s == nil || s.start.IsZero() {
		return 0
	}
	return time.Since(s.start).Seconds()
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
