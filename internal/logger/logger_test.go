package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger("parking-test", dir)
	l.terminal = &bytes.Buffer{}

	l.LogTicket("CHECKIN", "t_1", "visitor admitted to zone_a")
	l.Close()

	name := filepath.Join(dir, "parking-test-"+time.Now().Format("2006-01-02")+".log")
	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()

	var last LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &last))
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, "LOGGER", last.Category)
	assert.Equal(t, "Closing log file", last.Message)
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{terminal: &buf, minLevel: WARN}

	l.Info("API", "dropped")
	assert.Zero(t, buf.Len())

	l.Warn("API", "kept")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "[API")
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Error("KAFKA", "nothing happens")
		l.LogGate("gate_1", "subscribed")
		l.Close()
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}

func TestLogProcess(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{terminal: &buf, minLevel: INFO}

	l.LogProcess("journal", "writer started")
	assert.Contains(t, buf.String(), "[PROCESS")
	assert.Contains(t, buf.String(), "[journal] writer started")
}
