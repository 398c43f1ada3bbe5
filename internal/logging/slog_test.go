package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerUsesCloudFieldNames(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, FormatJSON, slog.LevelInfo)

	ctx := WithRequestID(context.Background(), "abcd1234")
	log.WarnContext(ctx, "store operation failed", "op", "GetUser")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARNING", rec["severity"])
	assert.Equal(t, "store operation failed", rec["message"])
	assert.Equal(t, "abcd1234", rec["request_id"])
	assert.Equal(t, "GetUser", rec["op"])
}

func TestTextLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, FormatText, slog.LevelWarn)

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.With("component", "db").Error("visible", "kind", "conflict")
	out := buf.String()
	assert.True(t, strings.Contains(out, "ERROR visible"), out)
	assert.Contains(t, out, "component=db")
	assert.Contains(t, out, "kind=conflict")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
