package gamegen

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-gen-ai-api/internal/application/activity"
	"game-gen-ai-api/internal/application/quota"
	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/domain/repository"
	"game-gen-ai-api/internal/domain/service"
	wfmodel "game-gen-ai-api/internal/workflow/model"
	"game-gen-ai-api/internal/workflow/node"
	"game-gen-ai-api/pkg/errors"
	"game-gen-ai-api/pkg/logger"
)

var fixedNow = time.Date(2024, 12, 3, 10, 30, 0, 0, time.UTC)

const validCompletion = "```json\n" + `{
  "id": "game-20241203-0042",
  "title": "Box Breathing Basics",
  "description": "Practice a calming breathing pattern",
  "type": "card-flip",
  "difficulty": "easy",
  "category": "mindfulness",
  "estimatedTime": 5,
  "config": {"showProgress": true},
  "content": {"cards": [{"id": "c1", "front": "Inhale", "back": "Count to four"}], "instructions": "Flip each card"},
  "scoring": {"maxScore": 999, "pointsPerCorrect": 10},
  "ui": {"theme": "minimal", "layout": "carousel"},
  "version": "1.0"
}` + "\n```"

type fakeGenerator struct {
	mu       sync.Mutex
	content  string
	errs     map[string]error
	usage    *schema.TokenUsage
	calls    []string
	rendered int
}

func (g *fakeGenerator) Invoke(ctx context.Context, in *wfmodel.ActivityGenerateInput) (*schema.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, in.Provider)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.errs[in.Provider]; err != nil {
		return nil, err
	}
	msg := schema.AssistantMessage(g.content, nil)
	if g.usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: g.usage}
	}
	return msg, nil
}

func (g *fakeGenerator) Messages(_ context.Context, in *wfmodel.ActivityGenerateInput) ([]*schema.Message, error) {
	g.rendered++
	return []*schema.Message{
		schema.SystemMessage("system rules"),
		schema.UserMessage("User Request: " + in.Prompt),
	}, nil
}

type fakeProviders struct{}

func (fakeProviders) Resolve(name string) string {
	if name == "" {
		return "openai"
	}
	return name
}

func (fakeProviders) ModelName(name string) string { return name + "-model" }

type memActivities struct {
	mu      sync.Mutex
	records map[string]*entity.GeneratedActivity
	err     error
}

func newMemActivities() *memActivities {
	return &memActivities{records: map[string]*entity.GeneratedActivity{}}
}

func (m *memActivities) Create(_ context.Context, a *entity.GeneratedActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[a.ActivityID] = a
	return nil
}

func (m *memActivities) GetByActivityID(_ context.Context, id string) (*entity.GeneratedActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id], nil
}

func (m *memActivities) List(_ context.Context, _ *repository.ActivityFilter, p repository.Pagination) (*repository.PagedResult[*entity.GeneratedActivity], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*entity.GeneratedActivity, 0, len(m.records))
	for _, r := range m.records {
		items = append(items, r)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

type memUsage struct {
	events []*entity.LLMUsageEvent
}

func (m *memUsage) Create(_ context.Context, e *entity.LLMUsageEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memUsage) GetTokenUsage(_ context.Context, _, _ time.Time) (int64, error) {
	var total int64
	for _, e := range m.events {
		total += int64(e.TokensPrompt + e.TokensCompletion)
	}
	return total, nil
}

func (m *memUsage) GetTokenUsageByProvider(_ context.Context, _, _ time.Time) ([]repository.ProviderTokenUsage, error) {
	byProvider := map[string]*repository.ProviderTokenUsage{}
	var out []repository.ProviderTokenUsage
	for _, e := range m.events {
		row, ok := byProvider[e.Provider]
		if !ok {
			row = &repository.ProviderTokenUsage{Provider: e.Provider}
			byProvider[e.Provider] = row
		}
		row.Calls++
		row.PromptTokens += int64(e.TokensPrompt)
		row.CompletionTokens += int64(e.TokensCompletion)
	}
	for _, row := range byProvider {
		out = append(out, *row)
	}
	return out, nil
}

type fixture struct {
	svc        *Service
	gen        *fakeGenerator
	activities *memActivities
	usage      *memUsage
}

func newFixture(cfg Config, persist bool) *fixture {
	f := &fixture{
		gen: &fakeGenerator{
			content: validCompletion,
			usage:   &schema.TokenUsage{PromptTokens: 1200, CompletionTokens: 300},
		},
	}
	deps := Deps{
		Generator: f.gen,
		Providers: fakeProviders{},
		Processor: activity.NewProcessor(
			activity.WithLogger(logger.Discard()),
			activity.WithClock(func() time.Time { return fixedNow }),
		),
		Logger: logger.Discard(),
	}
	if persist {
		f.activities = newMemActivities()
		f.usage = &memUsage{}
		deps.Activities = f.activities
		deps.UsageEvents = f.usage
	}
	f.svc = NewService(cfg, deps)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func requireAppError(t *testing.T, err error, code errors.ErrorCode) *errors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestGenerateStoresActivityAndUsage(t *testing.T) {
	f := newFixture(Config{}, true)

	gen, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "  box breathing for beginners  "})
	require.NoError(t, err)

	act := gen.Result.Activity
	assert.Equal(t, "game-20241203-0042", act.ID)
	assert.Equal(t, entity.TypeCardFlip, act.Type)
	assert.Equal(t, 200, act.Scoring.MaxScore)
	assert.Empty(t, gen.FullPrompt)
	assert.Equal(t, 0, f.gen.rendered)
	assert.Equal(t, []string{"openai"}, f.gen.calls)

	stored, err := f.svc.Get(context.Background(), act.ID)
	require.NoError(t, err)
	assert.Equal(t, "box breathing for beginners", stored.Prompt)
	assert.Equal(t, node.StrategyDirect, stored.Strategy)
	assert.JSONEq(t, string(mustJSON(t, act)), string(stored.Payload))

	require.Len(t, f.usage.events, 1)
	ev := f.usage.events[0]
	assert.Equal(t, act.ID, ev.ActivityID)
	assert.Equal(t, "openai", ev.Provider)
	assert.Equal(t, "openai-model", ev.Model)
	assert.Equal(t, workflowName, ev.Workflow)
	assert.Equal(t, 1200, ev.TokensPrompt)
	assert.Equal(t, 300, ev.TokensCompletion)
}

func TestGenerateWithoutPersistence(t *testing.T) {
	f := newFixture(Config{Provider: "deepseek"}, false)

	gen, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "grounding"})
	require.NoError(t, err)
	assert.Equal(t, "deepseek", gen.Usage.Provider)
	assert.Equal(t, 1200, gen.Usage.PromptTokens)

	_, err = f.svc.Get(context.Background(), gen.Result.Activity.ID)
	requireAppError(t, err, errors.CodeServiceUnavailable)
	_, err = f.svc.Stats(context.Background(), time.Hour)
	requireAppError(t, err, errors.CodeServiceUnavailable)
}

func TestGenerateStorageFailureIsNotFatal(t *testing.T) {
	f := newFixture(Config{}, true)
	f.activities.err = stderrors.New("connection refused")

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "grounding"})
	assert.NoError(t, err)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	f := newFixture(Config{}, false)

	tests := []struct {
		name string
		req  GenerateRequest
	}{
		{"empty prompt", GenerateRequest{Prompt: "   "}},
		{"prompt too long", GenerateRequest{Prompt: strings.Repeat("静", MaxPromptRunes+1)}},
		{"unknown type", GenerateRequest{Prompt: "x", ActivityType: "crossword"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Generate(context.Background(), tt.req)
			appErr := requireAppError(t, err, errors.CodeInvalidParam)
			assert.Equal(t, 400, appErr.HTTPStatus)
		})
	}
	assert.Empty(t, f.gen.calls)
}

func TestGenerateAcceptsMaxLengthPrompt(t *testing.T) {
	f := newFixture(Config{}, false)
	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: strings.Repeat("静", MaxPromptRunes)})
	assert.NoError(t, err)
}

func TestGenerateLLMFailure(t *testing.T) {
	f := newFixture(Config{}, false)
	f.gen.errs = map[string]error{"openai": stderrors.New("401 invalid api key")}

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	appErr := requireAppError(t, err, errors.CodeLLMCallFailed)
	assert.Equal(t, 502, appErr.HTTPStatus)
	assert.Contains(t, appErr.Detail, "invalid api key")
}

func TestGenerateCanceledContext(t *testing.T) {
	f := newFixture(Config{Fallback: []string{"deepseek"}}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Generate(ctx, GenerateRequest{Prompt: "x"})
	appErr := requireAppError(t, err, errors.CodeServiceUnavailable)
	assert.Equal(t, 503, appErr.HTTPStatus)
	assert.Equal(t, []string{"openai"}, f.gen.calls)
}

func TestGenerateFallsBackToNextProvider(t *testing.T) {
	f := newFixture(Config{Fallback: []string{"openai", "", "deepseek", "qwen"}}, true)
	f.gen.errs = map[string]error{"openai": stderrors.New("503 overloaded")}

	gen, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "deepseek"}, f.gen.calls)
	assert.Equal(t, "deepseek", gen.Usage.Provider)
	assert.Equal(t, "deepseek", f.usage.events[0].Provider)
}

func TestGeneratePipelineRejection(t *testing.T) {
	f := newFixture(Config{}, true)
	f.gen.content = `{"id": "game-20241203-0042", "title": "no time"}`

	gen, err := f.svc.GenerateDebug(context.Background(), GenerateRequest{Prompt: "x"})
	appErr := requireAppError(t, err, errors.CodeGenerationFailed)
	assert.Equal(t, 502, appErr.HTTPStatus)

	var diag *activity.Diagnostic
	require.True(t, stderrors.As(err, &diag))
	assert.Equal(t, activity.StageSchema, diag.Stage)

	require.NotNil(t, gen)
	assert.Equal(t, f.gen.content, gen.Raw)
	assert.Contains(t, gen.FullPrompt, "User Request: x")
	assert.Empty(t, f.activities.records)
	require.Len(t, f.usage.events, 1)
	assert.Empty(t, f.usage.events[0].ActivityID)
}

func TestGenerateDebugRendersPrompt(t *testing.T) {
	f := newFixture(Config{}, false)

	gen, err := f.svc.GenerateDebug(context.Background(), GenerateRequest{Prompt: "panic attacks", ActivityType: entity.TypeCardFlip})
	require.NoError(t, err)
	assert.Equal(t, "system rules\n\nUser Request: panic attacks", gen.FullPrompt)
	assert.Equal(t, validCompletion, gen.Raw)
	assert.Equal(t, 1, f.gen.rendered)
}

func TestParse(t *testing.T) {
	f := newFixture(Config{}, false)

	res, err := f.svc.Parse(context.Background(), validCompletion)
	require.NoError(t, err)
	assert.Equal(t, "game-20241203-0042", res.Activity.ID)

	_, err = f.svc.Parse(context.Background(), "  ")
	requireAppError(t, err, errors.CodeInvalidParam)

	_, err = f.svc.Parse(context.Background(), "the model refused")
	appErr := requireAppError(t, err, errors.CodeValidationFailed)
	assert.Equal(t, 422, appErr.HTTPStatus)
	assert.Contains(t, appErr.Detail, "json_recovery")
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(Config{}, true)
	_, err := f.svc.Get(context.Background(), "game-20240101-0000")
	requireAppError(t, err, errors.CodeActivityNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(Config{}, true)
	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)

	page, err := f.svc.List(context.Background(), &repository.ActivityFilter{Type: entity.TypeCardFlip}, repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestStats(t *testing.T) {
	f := newFixture(Config{}, true)
	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), stats.TokensUsed)
	assert.Equal(t, int64(1), stats.ActivitiesStored)
	assert.Equal(t, []repository.ProviderTokenUsage{
		{Provider: "openai", Calls: 1, PromptTokens: 1200, CompletionTokens: 300},
	}, stats.Providers)
	assert.Equal(t, 24*time.Hour, stats.WindowEnd.Sub(stats.WindowStart))
}

func TestSample(t *testing.T) {
	f := newFixture(Config{}, false)

	res, err := f.svc.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "game-20241203-1234", res.Activity.ID)
	assert.Equal(t, entity.TypeQuiz, res.Activity.Type)
	assert.Equal(t, node.StrategyExtract, res.Strategy)
	assert.Equal(t, "2024-12-03T10:30:00Z", res.Activity.GeneratedAt)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, f.gen.calls)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

type recordingTx struct {
	calls int
}

func (r *recordingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

func TestGeneratePersistsInTransaction(t *testing.T) {
	f := newFixture(Config{}, true)
	tx := &recordingTx{}
	f.svc.tx = tx

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.Len(t, f.activities.records, 1)
	assert.Len(t, f.usage.events, 1)
}

func TestGenerateStorageFailureSkipsUsage(t *testing.T) {
	f := newFixture(Config{}, true)
	f.activities.err = stderrors.New("connection refused")

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Empty(t, f.usage.events)
}

type recordingEvents struct {
	events []*service.ActivityGeneratedEvent
	err    error
}

func (r *recordingEvents) PublishActivityGenerated(_ context.Context, evt *service.ActivityGeneratedEvent) error {
	r.events = append(r.events, evt)
	return r.err
}

type brokenBudget struct{}

func (brokenBudget) Check(context.Context) (int64, int64, error) {
	return 0, 100, stderrors.New("usage table unavailable")
}

func TestGenerateEnforcesDailyTokenBudget(t *testing.T) {
	f := newFixture(Config{}, true)
	f.svc.budget = quota.NewTokenBudget(f.usage, 1000)

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "first"})
	require.NoError(t, err)

	_, err = f.svc.Generate(context.Background(), GenerateRequest{Prompt: "second"})
	appErr := requireAppError(t, err, errors.CodeTooManyRequests)
	assert.Contains(t, appErr.Detail, "1500/1000")
	assert.Len(t, f.gen.calls, 1)
}

func TestGenerateBudgetCheckFailureIsNotFatal(t *testing.T) {
	f := newFixture(Config{}, false)
	f.svc.budget = brokenBudget{}

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "breathing"})
	require.NoError(t, err)
}

func TestGeneratePublishesEvent(t *testing.T) {
	f := newFixture(Config{}, true)
	events := &recordingEvents{}
	f.svc.events = events

	gen, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "breathing"})
	require.NoError(t, err)

	require.Len(t, events.events, 1)
	evt := events.events[0]
	assert.Equal(t, gen.Result.Activity.ID, evt.ActivityID)
	assert.Equal(t, "card-flip", evt.Type)
	assert.Equal(t, "openai", evt.Provider)
	assert.Equal(t, 1200, evt.PromptTokens)
	assert.True(t, evt.Stored)
	assert.Equal(t, fixedNow, evt.GeneratedAt)
}

func TestGeneratePublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(Config{}, false)
	events := &recordingEvents{err: stderrors.New("stream unavailable")}
	f.svc.events = events

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "breathing"})
	require.NoError(t, err)
	require.Len(t, events.events, 1)
	assert.False(t, events.events[0].Stored)
}

func TestGenerateRejectedDoesNotPublish(t *testing.T) {
	f := newFixture(Config{}, false)
	f.gen.content = "no json here"
	events := &recordingEvents{}
	f.svc.events = events

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "breathing"})
	require.Error(t, err)
	assert.Empty(t, events.events)
}

type orderLog struct{ steps []string }

type loggingTx struct{ log *orderLog }

func (tx loggingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		tx.log.steps = append(tx.log.steps, "rollback")
		return err
	}
	tx.log.steps = append(tx.log.steps, "commit")
	return nil
}

type loggingCache struct {
	log *orderLog
	err error
}

func (c loggingCache) Invalidate(_ context.Context, id string) error {
	c.log.steps = append(c.log.steps, "invalidate "+id)
	return c.err
}

func TestGenerateInvalidatesCacheAfterCommit(t *testing.T) {
	f := newFixture(Config{}, true)
	order := &orderLog{}
	f.svc.tx = loggingTx{log: order}
	f.svc.cache = loggingCache{log: order}

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "breathing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"commit", "invalidate game-20241203-0042"}, order.steps)
}

func TestGenerateSkipsInvalidationWhenStorageFails(t *testing.T) {
	f := newFixture(Config{}, true)
	f.activities.err = stderrors.New("connection refused")
	order := &orderLog{}
	f.svc.tx = loggingTx{log: order}
	f.svc.cache = loggingCache{log: order}

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "breathing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rollback"}, order.steps)
}

func TestGenerateInvalidationFailureIsNotFatal(t *testing.T) {
	f := newFixture(Config{}, true)
	order := &orderLog{}
	f.svc.cache = loggingCache{log: order, err: stderrors.New("redis down")}

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Prompt: "breathing"})
	require.NoError(t, err)
	assert.Len(t, order.steps, 1)
}
