package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	ctx := WithCorrelationID(context.Background(), "corr-1")
	logger.With("component", "test").InfoContext(ctx, "hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "corr-1", line["correlation_id"])
	assert.Equal(t, "test", line["component"])
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	var buf bytes.Buffer
	logger := NewLogger(&buf)

	SetLevel("warn")
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	SetLevel("nonsense")
	logger.Info("still dropped")
	assert.Zero(t, buf.Len())

	SetLevel("DEBUG")
	logger.Debug("kept")
	assert.NotZero(t, buf.Len())
}

func TestExtractCorrelationID_Missing(t *testing.T) {
	assert.Empty(t, ExtractCorrelationID(context.Background()))
	assert.NotEqual(t, GenerateCorrelationID(), GenerateCorrelationID())
}
