package debuglog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := &Logger{enabled: true, toDiagnostic: true, diagnostic: &buf}
	return l, &buf
}

func parseLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var obj map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &obj))
		out = append(out, obj)
	}
	return out
}

func TestSessionStartAndEndShareSessionID(t *testing.T) {
	l, buf := newTestLogger()
	l.StartSession("startpos")
	l.EndSession()

	entries := parseLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "session_start", entries[0]["event_type"])
	assert.Equal(t, "session_end", entries[1]["event_type"])

	startData := entries[0]["data"].(map[string]any)
	endData := entries[1]["data"].(map[string]any)
	assert.Equal(t, startData["session_id"], endData["session_id"])
	assert.NotEmpty(t, startData["session_id"])
}

func TestLogOutsideSessionUsesNoneSentinel(t *testing.T) {
	l, buf := newTestLogger()
	l.LogWarning("no session active")

	entries := parseLines(t, buf)
	require.Len(t, entries, 1)
	data := entries[0]["data"].(map[string]any)
	assert.Equal(t, "none", data["session_id"])
}

func TestDisabledLoggerEmitsNothing(t *testing.T) {
	l, buf := newTestLogger()
	l.SetEnabled(false)
	l.StartSession("startpos")
	l.LogWarning("ignored")
	assert.Empty(t, buf.String())
}

func TestStartingNewSessionEndsPrevious(t *testing.T) {
	l, buf := newTestLogger()
	l.StartSession("pos1")
	firstID, _ := l.currentSessionID()
	l.StartSession("pos2")

	entries := parseLines(t, buf)
	var sawEnd bool
	for _, e := range entries {
		if e["event_type"] == "session_end" {
			sawEnd = true
			data := e["data"].(map[string]any)
			assert.Equal(t, firstID, data["session_id"])
		}
	}
	assert.True(t, sawEnd)
}
