package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNewLoggerRenamesStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := newLogger(&buf, "moneymarket", "test")

	logger.Info("market activated", "asset", "eth")

	line := decodeLine(t, &buf)
	require.Equal(t, "market activated", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Contains(t, line, "timestamp")
	require.Equal(t, "moneymarket", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "eth", line["asset"])
	require.NotContains(t, line, "msg")
	require.NotContains(t, line, "level")
	require.NotContains(t, line, "time")
}

func TestNewLoggerOmitsEmptyEnv(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := newLogger(&buf, " moneymarket ", "  ")

	logger.Info("ok")

	line := decodeLine(t, &buf)
	require.Equal(t, "moneymarket", line["service"])
	require.NotContains(t, line, "env")
}

func TestNewLoggerDebugGate(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := newLogger(&buf, "moneymarket", "")
	logger.Debug("dropped")
	require.Zero(t, buf.Len())

	t.Setenv("LOG_LEVEL", "Debug")
	buf.Reset()
	logger, _ = newLogger(&buf, "moneymarket", "")
	logger.Debug("kept")
	require.Equal(t, "kept", decodeLine(t, &buf)["message"])
	require.Equal(t, "DEBUG", decodeLine(t, &buf)["severity"])
}

func TestNewLoggerBridgesStandardLog(t *testing.T) {
	var buf bytes.Buffer
	_, handler := newLogger(&buf, "moneymarket", "test")

	bridge := slog.NewLogLogger(handler, slog.LevelInfo)
	bridge.SetFlags(0)
	bridge.Print("ledger flushed")

	line := decodeLine(t, &buf)
	require.Equal(t, "ledger flushed", line["message"])
	require.Equal(t, "moneymarket", line["service"])
	require.Equal(t, "test", line["env"])
}

func TestSetupInstallsDefaultLoggers(t *testing.T) {
	prevLogger := slog.Default()
	prevWriter := log.Writer()
	prevFlags := log.Flags()
	t.Cleanup(func() {
		slog.SetDefault(prevLogger)
		log.SetOutput(prevWriter)
		log.SetFlags(prevFlags)
	})

	logger := Setup("moneymarket", "test")
	require.NotNil(t, logger)
	require.Same(t, logger, slog.Default())
	require.NotEqual(t, prevWriter, log.Writer())
	require.Zero(t, log.Flags())
}
