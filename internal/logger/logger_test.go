package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter_JSON(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	lg := InitWithWriter(&buf, false)

	lg.Info().Msg("hidden")
	lg.Warn().Str("k", "v").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "v", m["k"])
	assert.Contains(t, m, "time")
}

func TestInitWithWriter_DebugOverridesLevel(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "error")

	var buf bytes.Buffer
	lg := InitWithWriter(&buf, true)
	lg.Debug().Msg("page dispatched")

	assert.Contains(t, buf.String(), "page dispatched")
}

func TestInitWithWriter_ConsoleDefault(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_LEVEL", "bogus")
	t.Setenv("LOG_COLOR", "0")

	var buf bytes.Buffer
	InitWithWriter(&buf, false)
	zlog.Info().Msg("via global")

	out := buf.String()
	assert.Contains(t, out, "via global")
	assert.Contains(t, out, "INF")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestWithScanID(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")

	var buf bytes.Buffer
	InitWithWriter(&buf, false)

	lg := WithScanID("0f8c7a")
	lg.Info().Msg("x")

	assert.Contains(t, buf.String(), `"scan_id":"0f8c7a"`)
}
