package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_CallerAddedOnce(t *testing.T) {
	var buf bytes.Buffer
	cfg := &logConfig{WithCaller: true, LogFormat: "json"}

	_ = newLogger(cfg, &buf)
	logger := newLogger(cfg, &buf)
	logger.Error().Msg("hello")

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	assert.Equal(t, 1, strings.Count(line, `"caller"`))
	assert.Contains(t, line, `"message":"hello"`)
	assert.Contains(t, line, `"time"`)
}

func TestNewLogger_NoCallerByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&logConfig{LogFormat: "json"}, &buf)
	logger.Error().Msg("hello")

	assert.NotContains(t, buf.String(), `"caller"`)
}

func TestInitLogger_RejectsUnknownLevel(t *testing.T) {
	require.Error(t, InitLogger(&logConfig{Level: "loud"}))
}
