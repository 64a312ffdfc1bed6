package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("production", &buf)
	t.Cleanup(func() { InitWriter("development", &bytes.Buffer{}) })

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), 42)
	FromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "42", line["user_id"])
}

func TestHTTPLogLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("development", &buf)

	HTTPLog(GetLogger(), "GET", "/x", 503, 12*time.Millisecond)
	out := buf.String()
	assert.True(t, strings.Contains(out, "level=ERROR"), out)
	assert.Contains(t, out, "status=503")
}
