package activity

import (
	"log/slog"
	"time"

	"game-gen-ai-api/pkg/logger"
)

type options struct {
	logger          *slog.Logger
	now             func() time.Time
	strictContent   bool
	checkReferences bool
	excerptLimit    int
}

// Option Processor/Validator 的可选项
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:       logger.Default(),
		now:          time.Now,
		excerptLimit: DefaultExcerptLimit,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger 指定日志器
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock 指定时钟，用于 generatedAt 默认值
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithStrictContent 严格模式：内容警告变为 content_variant 失败
func WithStrictContent(strict bool) Option {
	return func(o *options) { o.strictContent = strict }
}

// WithReferenceCheck 开启内容内部 id 引用检查
func WithReferenceCheck(enabled bool) Option {
	return func(o *options) { o.checkReferences = enabled }
}

// WithExcerptLimit 诊断摘录的 rune 上限
func WithExcerptLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.excerptLimit = n
		}
	}
}
