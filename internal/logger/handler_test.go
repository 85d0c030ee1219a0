package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerRedactsCredentials(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(New(&buf, "text", slog.LevelInfo))

	log.Info("login failed", "email", "diver@example.com", "password", "hunter22", "Authorization", "Bearer abc")

	out := buf.String()
	require.Contains(t, out, "login failed")
	require.Contains(t, out, "diver@example.com")
	require.NotContains(t, out, "hunter22")
	require.NotContains(t, out, "Bearer abc")
	require.Contains(t, out, redacted)
}

func TestPrettyHandlerGroupsAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(New(&buf, "text", slog.LevelWarn))

	log.Info("dropped")
	require.Empty(t, buf.String())

	log.WithGroup("request").Warn("slow", "path", "/api/login", slog.Group("auth", "token", "abc"))
	out := buf.String()
	require.Contains(t, out, "request.path")
	require.Contains(t, out, "request.auth.token")
	require.NotContains(t, out, "=abc")
}

func TestJSONHandlerRedactsCredentials(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(New(&buf, "json", slog.LevelInfo))
	log.Info("token issued", "refresh_token", "secret-value", "user_id", "u1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, redacted, entry["refresh_token"])
	require.Equal(t, "u1", entry["user_id"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}
