package prompt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryActivityTemplate(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.ChatTemplate(PromptActivityV1)
	require.NoError(t, err)

	again, err := r.ChatTemplate(PromptActivityV1)
	require.NoError(t, err)
	assert.Same(t, tpl, again)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"prompt":        "breathing exercises for exam stress",
		"activity_type": "",
		"type_catalog":  "quiz - knowledge check",
		"today":         "2024-12-03",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, `"pointsPerCorrect": 5 to 25`)
	assert.Contains(t, msgs[0].Content, `{"questions": [{"id": "q1"`)

	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "User Request: breathing exercises for exam stress")
	assert.Contains(t, msgs[1].Content, "quiz - knowledge check")
	assert.Contains(t, msgs[1].Content, "Today is 2024-12-03")
}

func TestRegistryPinnedActivityType(t *testing.T) {
	tpl, err := NewRegistry().ChatTemplate(PromptActivityV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"prompt":        "grounding",
		"activity_type": "card-flip",
		"type_catalog":  "unused",
		"today":         "2024-12-03",
	})
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, `Use the activity type "card-flip".`)
	assert.NotContains(t, msgs[1].Content, "unused")
}

func TestRegistryUnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("missing_v9")
	assert.ErrorContains(t, err, "unknown prompt id")

	var nilRegistry *Registry
	_, err = nilRegistry.ChatTemplate(PromptActivityV1)
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	got := Join([]*schema.Message{schema.SystemMessage("a"), nil, schema.UserMessage("b")})
	assert.Equal(t, "a\n\nb", got)
}
