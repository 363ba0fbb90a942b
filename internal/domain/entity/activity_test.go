package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentKeepsRawBytes(t *testing.T) {
	raw := `{"questions":[{"id":"q1","b":2,"a":1}]}`
	var c Content
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestAnswerAcceptsStringOrList(t *testing.T) {
	var one, many Answer
	require.NoError(t, json.Unmarshal([]byte(`"A"`), &one))
	require.NoError(t, json.Unmarshal([]byte(`["A","B"]`), &many))
	assert.Equal(t, Answer{"A"}, one)
	assert.Equal(t, Answer{"A", "B"}, many)
	assert.Error(t, json.Unmarshal([]byte(`3`), &one))

	b, err := json.Marshal(one)
	require.NoError(t, err)
	assert.Equal(t, `"A"`, string(b))
}

func TestActivityTypeKnown(t *testing.T) {
	assert.True(t, TypeAnxietyAdventure.Known())
	assert.False(t, ActivityType("crossword").Known())
	assert.Len(t, ActivityTypes, 11)
}

func TestNewActivityDefaults(t *testing.T) {
	act := NewActivity()
	assert.True(t, act.Config.ShowProgress)
	assert.False(t, act.Config.AutoNext)
	assert.Equal(t, "default", act.UI.Theme)
	assert.Equal(t, "grid", act.UI.Layout)
	assert.False(t, act.UI.Sounds)
}
