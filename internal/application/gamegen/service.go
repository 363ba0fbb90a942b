// Package gamegen 编排活动生成：提示词、模型调用、输出流水线与落库
package gamegen

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"

	"game-gen-ai-api/internal/application/activity"
	"game-gen-ai-api/internal/application/quota"
	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/domain/repository"
	"game-gen-ai-api/internal/domain/service"
	wfmodel "game-gen-ai-api/internal/workflow/model"
	"game-gen-ai-api/internal/workflow/node"
	workflowprompt "game-gen-ai-api/internal/workflow/prompt"
	"game-gen-ai-api/pkg/errors"
	"game-gen-ai-api/pkg/logger"
	"game-gen-ai-api/pkg/metrics"
	"game-gen-ai-api/pkg/tracer"
)

const (
	// MaxPromptRunes 用户提示词上限
	MaxPromptRunes = 2000

	// DebugExcerptRunes 调试输出中提示词与原始补全的截断长度
	DebugExcerptRunes = 500

	workflowName = "activity_generate"
)

// Generator 生成链的最小依赖
type Generator interface {
	Invoke(ctx context.Context, in *wfmodel.ActivityGenerateInput) (*schema.Message, error)
	Messages(ctx context.Context, in *wfmodel.ActivityGenerateInput) ([]*schema.Message, error)
}

// ProviderResolver 解析默认提供商与其模型名，由 LLM 工厂实现
type ProviderResolver interface {
	Resolve(name string) string
	ModelName(name string) string
}

// Config 生成服务配置
type Config struct {
	Provider string
	Model    string
	JSONMode bool
	// Fallback 主提供商调用失败后依次尝试的提供商
	Fallback []string
}

// GenerateRequest 一次生成请求
type GenerateRequest struct {
	Prompt       string
	ActivityType entity.ActivityType
	Provider     string
}

// Generation 生成结果，包含中间产物供调试
type Generation struct {
	Result     *activity.Result
	FullPrompt string
	Raw        string
	Usage      *wfmodel.LLMUsageMeta
}

// BudgetChecker 调用模型前的 token 预算检查
type BudgetChecker interface {
	Check(ctx context.Context) (used int64, max int64, err error)
}

// ActivityCache 落库事务提交后使活动缓存失效
type ActivityCache interface {
	Invalidate(ctx context.Context, activityID string) error
}

// Deps 生成服务依赖；Activities 与 UsageEvents 为 nil 时不落库，Budget、Events 与 Cache 可选
type Deps struct {
	Generator   Generator
	Providers   ProviderResolver
	Processor   *activity.Processor
	Activities  repository.ActivityRepository
	UsageEvents repository.LLMUsageEventRepository
	Transactor  repository.Transactor
	Budget      BudgetChecker
	Events      service.ActivityEventPublisher
	Cache       ActivityCache
	Logger      *slog.Logger
}

// Service 活动生成服务
type Service struct {
	cfg         Config
	gen         Generator
	providers   ProviderResolver
	processor   *activity.Processor
	activities  repository.ActivityRepository
	usageEvents repository.LLMUsageEventRepository
	usage       service.LLMUsageRecorder
	tx          repository.Transactor
	budget      BudgetChecker
	events      service.ActivityEventPublisher
	cache       ActivityCache
	log         *slog.Logger
	now         func() time.Time
}

// NewService 创建生成服务
func NewService(cfg Config, deps Deps) *Service {
	s := &Service{
		cfg:         cfg,
		gen:         deps.Generator,
		providers:   deps.Providers,
		processor:   deps.Processor,
		activities:  deps.Activities,
		usageEvents: deps.UsageEvents,
		tx:          deps.Transactor,
		budget:      deps.Budget,
		events:      deps.Events,
		cache:       deps.Cache,
		log:         deps.Logger,
		now:         time.Now,
	}
	if s.processor == nil {
		s.processor = activity.NewProcessor()
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if deps.UsageEvents != nil {
		s.usage = NewUsageRecorder(deps.UsageEvents)
	}
	return s
}

// Generate 生成并校验一个活动
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	return s.generate(ctx, req, false)
}

// GenerateDebug 同 Generate，额外返回渲染后的提示词。
// 流水线拒绝时仍返回已得到的中间产物。
func (s *Service) GenerateDebug(ctx context.Context, req GenerateRequest) (*Generation, error) {
	return s.generate(ctx, req, true)
}

func (s *Service) generate(ctx context.Context, req GenerateRequest, debug bool) (*Generation, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "gamegen.Generate")
	defer span.End()
	span.SetAttributes(attribute.Bool("gamegen.debug", debug))

	log := logger.Attach(ctx, s.log)
	if err := s.checkBudget(ctx); err != nil {
		metrics.ActivityGenerationTotal.WithLabelValues("budget_exceeded").Inc()
		return nil, err
	}

	in := s.input(req)
	out := &Generation{}

	if debug {
		msgs, err := s.gen.Messages(ctx, in)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeGenerationFailed, "failed to render prompt")
		}
		out.FullPrompt = workflowprompt.Join(msgs)
	}

	start := s.now()
	log.Info("generating activity", "prompt", node.Excerpt(req.Prompt, 100), "type", req.ActivityType, "provider", in.Provider)
	msg, err := s.invoke(ctx, in)
	elapsed := s.now().Sub(start)
	if err != nil {
		metrics.ActivityGenerationTotal.WithLabelValues("llm_error").Inc()
		tracer.RecordError(span, err)
		log.Error("llm call failed", "error", err)
		return nil, llmError(err)
	}

	out.Raw = msg.Content
	out.Usage = usageMeta(msg, in, elapsed, s.now())
	if out.Usage.Model == "" && s.providers != nil {
		out.Usage.Model = s.providers.ModelName(in.Provider)
	}

	res, err := s.processor.ProcessContext(ctx, msg.Content)
	if err != nil {
		metrics.ActivityGenerationTotal.WithLabelValues("rejected").Inc()
		tracer.RecordError(span, err)
		if uerr := s.recordUsage(ctx, "", out.Usage); uerr != nil {
			log.Warn("failed to record llm usage", "error", uerr)
		}
		return out, toAppError(err)
	}
	out.Result = res

	metrics.ActivityGenerationTotal.WithLabelValues("success").Inc()
	metrics.ActivityGenerationDuration.WithLabelValues(string(res.Activity.Type)).Observe(elapsed.Seconds())
	span.SetAttributes(
		attribute.String("activity.id", res.Activity.ID),
		attribute.String("activity.type", string(res.Activity.Type)),
	)

	stored := s.persist(ctx, in.Prompt, res, out.Usage)
	s.publish(ctx, res, out.Usage, stored)

	log.Info("activity generated",
		"activity_id", res.Activity.ID,
		"type", res.Activity.Type,
		"strategy", res.Strategy,
		"warnings", len(res.Warnings),
		"duration_ms", elapsed.Milliseconds(),
	)
	return out, nil
}

// Parse 只对调用方提供的文本运行输出流水线
func (s *Service) Parse(ctx context.Context, raw string) (*activity.Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.ErrInvalidParam.WithDetail("raw must not be empty")
	}
	res, err := s.processor.ProcessContext(ctx, raw)
	if err != nil {
		var diag *activity.Diagnostic
		if stderrors.As(err, &diag) {
			return nil, errors.Wrap(diag, errors.CodeValidationFailed, "completion rejected").WithDetail(diag.Error())
		}
		return nil, err
	}
	return res, nil
}

// Get 读取已存储的活动
func (s *Service) Get(ctx context.Context, activityID string) (*entity.GeneratedActivity, error) {
	if s.activities == nil {
		return nil, errors.ErrServiceUnavailable.WithDetail("persistence is disabled")
	}
	rec, err := s.activities.GetByActivityID(ctx, activityID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load activity")
	}
	if rec == nil {
		return nil, errors.ErrActivityNotFound
	}
	return rec, nil
}

// List 分页列出已存储的活动
func (s *Service) List(ctx context.Context, filter *repository.ActivityFilter, page repository.Pagination) (*repository.PagedResult[*entity.GeneratedActivity], error) {
	if s.activities == nil {
		return nil, errors.ErrServiceUnavailable.WithDetail("persistence is disabled")
	}
	result, err := s.activities.List(ctx, filter, page)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list activities")
	}
	return result, nil
}

func (s *Service) input(req GenerateRequest) *wfmodel.ActivityGenerateInput {
	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = s.cfg.Provider
	}
	if s.providers != nil {
		provider = s.providers.Resolve(provider)
	}
	return &wfmodel.ActivityGenerateInput{
		Prompt:       strings.TrimSpace(req.Prompt),
		ActivityType: string(req.ActivityType),
		Provider:     provider,
		Model:        s.cfg.Model,
		JSONMode:     s.cfg.JSONMode,
	}
}

// invoke 调用模型，失败时按 Fallback 顺序切换提供商；in.Provider 记录最终使用的提供商
func (s *Service) invoke(ctx context.Context, in *wfmodel.ActivityGenerateInput) (*schema.Message, error) {
	msg, err := s.gen.Invoke(ctx, in)
	if err == nil {
		return msg, nil
	}

	tried := map[string]bool{in.Provider: true}
	for _, provider := range s.cfg.Fallback {
		if ctx.Err() != nil {
			break
		}
		provider = strings.TrimSpace(provider)
		if provider == "" || tried[provider] {
			continue
		}
		tried[provider] = true

		logger.Attach(ctx, s.log).Warn("llm call failed, trying fallback provider",
			"failed_provider", in.Provider, "provider", provider, "error", err)
		in.Provider = provider
		var ferr error
		msg, ferr = s.gen.Invoke(ctx, in)
		if ferr == nil {
			return msg, nil
		}
		err = ferr
	}
	return nil, err
}

func (s *Service) recordUsage(ctx context.Context, activityID string, meta *wfmodel.LLMUsageMeta) error {
	if s.usage == nil || meta == nil {
		return nil
	}
	return s.usage.Record(ctx, service.LLMUsageInput{
		ActivityID:       activityID,
		Workflow:         workflowName,
		Provider:         meta.Provider,
		Model:            meta.Model,
		PromptTokens:     meta.PromptTokens,
		CompletionTokens: meta.CompletionTokens,
		DurationMs:       int(meta.Duration.Milliseconds()),
	})
}

// persist 在同一事务中写入活动与用量；失败只记日志，不影响本次响应。
// 返回活动是否已落库。
func (s *Service) persist(ctx context.Context, prompt string, res *activity.Result, meta *wfmodel.LLMUsageMeta) bool {
	log := logger.Attach(ctx, s.log)
	write := func(ctx context.Context) error {
		if s.activities != nil {
			rec, err := entity.NewGeneratedActivity(res.Activity, prompt, res.Strategy, len(res.Warnings))
			if err != nil {
				return fmt.Errorf("encode activity: %w", err)
			}
			if err := s.activities.Create(ctx, rec); err != nil {
				return err
			}
		}
		return s.recordUsage(ctx, res.Activity.ID, meta)
	}

	var err error
	if s.tx != nil {
		err = s.tx.WithTransaction(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		log.Warn("failed to persist activity", "activity_id", res.Activity.ID, "error", err)
		return false
	}
	if s.activities != nil && s.cache != nil {
		if cerr := s.cache.Invalidate(ctx, res.Activity.ID); cerr != nil {
			log.Warn("failed to invalidate activity cache", "activity_id", res.Activity.ID, "error", cerr)
		}
	}
	return s.activities != nil
}

// publish 发布活动生成事件；失败只记日志
func (s *Service) publish(ctx context.Context, res *activity.Result, meta *wfmodel.LLMUsageMeta, stored bool) {
	if s.events == nil {
		return
	}
	evt := &service.ActivityGeneratedEvent{
		ActivityID:  res.Activity.ID,
		Type:        string(res.Activity.Type),
		Category:    string(res.Activity.Category),
		Title:       res.Activity.Title,
		Strategy:    res.Strategy,
		Warnings:    len(res.Warnings),
		Stored:      stored,
		GeneratedAt: s.now().UTC(),
	}
	if meta != nil {
		evt.Provider = meta.Provider
		evt.Model = meta.Model
		evt.PromptTokens = meta.PromptTokens
		evt.CompletionTokens = meta.CompletionTokens
	}
	if err := s.events.PublishActivityGenerated(ctx, evt); err != nil {
		logger.Attach(ctx, s.log).Warn("failed to publish activity event", "activity_id", evt.ActivityID, "error", err)
	}
}

// checkBudget 预算耗尽时拒绝；预算读取失败时放行
func (s *Service) checkBudget(ctx context.Context) error {
	if s.budget == nil {
		return nil
	}
	used, max, err := s.budget.Check(ctx)
	if err == nil {
		return nil
	}
	var exceeded quota.BudgetExceededError
	if stderrors.As(err, &exceeded) {
		return errors.ErrTooManyRequests.WithDetail(fmt.Sprintf("daily token budget exhausted (%d/%d)", used, max))
	}
	logger.Attach(ctx, s.log).Warn("token budget check failed", "error", err)
	return nil
}

func validateRequest(req GenerateRequest) error {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return errors.ErrInvalidParam.WithDetail("prompt must not be empty")
	}
	if utf8.RuneCountInString(prompt) > MaxPromptRunes {
		return errors.ErrInvalidParam.WithDetail("prompt must be at most 2000 characters")
	}
	if req.ActivityType != "" && !req.ActivityType.Known() {
		return errors.ErrInvalidParam.WithDetail("unknown activity type: " + string(req.ActivityType))
	}
	return nil
}

func llmError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "llm call timed out")
	}
	return errors.Wrap(err, errors.CodeLLMCallFailed, "LLM call failed").WithDetail(err.Error())
}

func toAppError(err error) error {
	var diag *activity.Diagnostic
	if stderrors.As(err, &diag) {
		return diag.AppError()
	}
	return errors.Wrap(err, errors.CodeGenerationFailed, "activity generation failed")
}

func usageMeta(msg *schema.Message, in *wfmodel.ActivityGenerateInput, elapsed time.Duration, at time.Time) *wfmodel.LLMUsageMeta {
	meta := &wfmodel.LLMUsageMeta{
		Provider:    in.Provider,
		Model:       in.Model,
		Duration:    elapsed,
		GeneratedAt: at,
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		meta.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}
	return meta
}

