package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"game-gen-ai-api/internal/domain/entity"
	llmctx "game-gen-ai-api/internal/domain/service"
	wfmodel "game-gen-ai-api/internal/workflow/model"
	wfnode "game-gen-ai-api/internal/workflow/node"
	workflowprompt "game-gen-ai-api/internal/workflow/prompt"
	"game-gen-ai-api/pkg/logger"
)

const activityWorkflow = "activity_generate"

// activityTypeCatalog 供模型选择活动类型时参考
var activityTypeCatalog = []struct {
	Type        entity.ActivityType
	Description string
}{
	{entity.TypeQuiz, "knowledge testing with multiple choice, true/false and fill-in questions"},
	{entity.TypeDragDrop, "interactive categorization into drop zones"},
	{entity.TypeMemoryMatch, "card matching for vocabulary and concepts"},
	{entity.TypeWordPuzzle, "crossword style word games"},
	{entity.TypeSorting, "category based organization"},
	{entity.TypeMatching, "connect related concepts left to right"},
	{entity.TypeStorySequence, "order events, processes or narratives"},
	{entity.TypeFillBlank, "complete sentences and passages"},
	{entity.TypeCardFlip, "flashcards with a front and a back"},
	{entity.TypePuzzleAssembly, "visual jigsaw puzzles"},
	{entity.TypeAnxietyAdventure, "branching scenarios for anxiety management and coping skills"},
}

// ModelFactory 按提供商名取 ChatModel，空名取默认提供商
type ModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// ActivityChain 渲染提示词并调用模型，返回原始补全
type ActivityChain struct {
	factory  ModelFactory
	registry *workflowprompt.Registry
	now      func() time.Time

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.ActivityGenerateInput, *schema.Message]
	chainErr  error
}

func NewActivityChain(factory ModelFactory) *ActivityChain {
	return &ActivityChain{
		factory:  factory,
		registry: workflowprompt.NewRegistry(),
		now:      time.Now,
	}
}

func (c *ActivityChain) Invoke(ctx context.Context, in *wfmodel.ActivityGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

// Messages 渲染后的提示词消息，不调用模型
func (c *ActivityChain) Messages(ctx context.Context, in *wfmodel.ActivityGenerateInput) ([]*schema.Message, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	return c.formatMessages(ctx, in)
}

type activityChainState struct {
	In       *wfmodel.ActivityGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *ActivityChain) getChain() (compose.Runnable[*wfmodel.ActivityGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *ActivityChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.ActivityGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.ActivityGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *wfmodel.ActivityGenerateInput) (*activityChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			msgs, err := c.formatMessages(ctx, in)
			if err != nil {
				return nil, err
			}
			return &activityChainState{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName("activity.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *activityChainState) (*activityChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			provider := strings.TrimSpace(st.In.Provider)
			ctx = llmctx.WithLLMCall(ctx, llmctx.LLMCall{
				Workflow:     activityWorkflow,
				Provider:     provider,
				ActivityType: st.In.ActivityType,
			})
			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildActivityModelOptions(st.In, st.In.JSONMode)...)
			if err != nil && st.In.JSONMode && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm response_format not supported, fallback to prompt-only",
					"provider", provider,
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildActivityModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("activity.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *activityChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("activity.finalize"),
	)

	return chain.Compile(ctx)
}

func (c *ActivityChain) formatMessages(ctx context.Context, in *wfmodel.ActivityGenerateInput) ([]*schema.Message, error) {
	tpl, err := c.registry.ChatTemplate(workflowprompt.PromptActivityV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"prompt":        strings.TrimSpace(in.Prompt),
		"activity_type": strings.TrimSpace(in.ActivityType),
		"type_catalog":  typeCatalogBlock(),
		"today":         c.now().UTC().Format("2006-01-02"),
	}
	return tpl.Format(ctx, vars)
}

func typeCatalogBlock() string {
	var b strings.Builder
	for _, t := range activityTypeCatalog {
		fmt.Fprintf(&b, "%s - %s\n", t.Type, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildActivityModelOptions(in *wfmodel.ActivityGenerateInput, jsonMode bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}

	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	if jsonMode {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}
	return opts
}
