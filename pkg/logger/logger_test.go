package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, ActivityIDKey, "game-20241203-1234")
	Attach(ctx, l).Info("processed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "game-20241203-1234", line["activity_id"])
	assert.Equal(t, "processed", line["msg"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}
