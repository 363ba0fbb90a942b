package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "game-gen-ai-api/internal/workflow/model"
)

type scriptedModel struct {
	replies []error
	content string
	calls   int
	seen    [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls++
	m.seen = append(m.seen, input)
	if len(m.replies) >= m.calls && m.replies[m.calls-1] != nil {
		return nil, m.replies[m.calls-1]
	}
	return schema.AssistantMessage(m.content, nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

type fakeFactory struct {
	model *scriptedModel
	err   error
	names []string
}

func (f *fakeFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

func newTestChain(f *fakeFactory) *ActivityChain {
	c := NewActivityChain(f)
	c.now = func() time.Time { return time.Date(2024, 12, 3, 10, 30, 0, 0, time.UTC) }
	return c
}

func TestActivityChainInvoke(t *testing.T) {
	m := &scriptedModel{content: `{"id":"game-20241203-0001"}`}
	f := &fakeFactory{model: m}

	out, err := newTestChain(f).Invoke(context.Background(), &wfmodel.ActivityGenerateInput{
		Prompt:   "  box breathing  ",
		Provider: "openai",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"game-20241203-0001"}`, out.Content)
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, []string{"openai"}, f.names)

	require.Len(t, m.seen[0], 2)
	assert.Contains(t, m.seen[0][1].Content, "User Request: box breathing")
	assert.Contains(t, m.seen[0][1].Content, "Today is 2024-12-03")
	assert.Contains(t, m.seen[0][1].Content, "anxiety-adventure - branching scenarios")
}

func TestActivityChainResponseFormatFallback(t *testing.T) {
	m := &scriptedModel{
		replies: []error{errors.New("400 unknown parameter: response_format")},
		content: "{}",
	}

	out, err := newTestChain(&fakeFactory{model: m}).Invoke(context.Background(), &wfmodel.ActivityGenerateInput{
		Prompt:   "grounding",
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", out.Content)
	assert.Equal(t, 2, m.calls)
}

func TestActivityChainNoFallbackWithoutJSONMode(t *testing.T) {
	m := &scriptedModel{replies: []error{errors.New("invalid response_format")}}

	_, err := newTestChain(&fakeFactory{model: m}).Invoke(context.Background(), &wfmodel.ActivityGenerateInput{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, m.calls)
}

func TestActivityChainFactoryError(t *testing.T) {
	_, err := newTestChain(&fakeFactory{err: errors.New("provider missing not found")}).
		Invoke(context.Background(), &wfmodel.ActivityGenerateInput{Prompt: "x", Provider: "missing"})
	assert.ErrorContains(t, err, "not found")
}

func TestActivityChainRejectsNil(t *testing.T) {
	_, err := newTestChain(&fakeFactory{}).Invoke(context.Background(), nil)
	assert.Error(t, err)

	var c *ActivityChain
	_, err = c.Invoke(context.Background(), &wfmodel.ActivityGenerateInput{})
	assert.Error(t, err)
}

func TestActivityChainMessagesPinnedType(t *testing.T) {
	msgs, err := newTestChain(&fakeFactory{}).Messages(context.Background(), &wfmodel.ActivityGenerateInput{
		Prompt:       "coping with panic",
		ActivityType: "anxiety-adventure",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, `Use the activity type "anxiety-adventure".`)
}

func TestBuildActivityModelOptions(t *testing.T) {
	temp := float32(0.2)
	maxTokens := 1000
	in := &wfmodel.ActivityGenerateInput{Temperature: &temp, MaxTokens: &maxTokens, Model: "gpt-4o"}

	assert.Len(t, buildActivityModelOptions(in, false), 3)
	assert.Len(t, buildActivityModelOptions(in, true), 4)
	assert.Empty(t, buildActivityModelOptions(nil, true))

	common := model.GetCommonOptions(&model.Options{}, buildActivityModelOptions(in, false)...)
	require.NotNil(t, common.Model)
	assert.Equal(t, "gpt-4o", *common.Model)
	assert.Equal(t, float32(0.2), *common.Temperature)
}
