package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/synthhealth/datasynth/synth/constants"
)

func TestLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "generator.log")

	logger := Logger(logrus.New(), path, "generator", "test")
	logger.Info("hello")

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "component=generator")
	assert.Contains(t, string(data), "version="+constants.Version)
}

func TestLoggerFallsBackToStderr(t *testing.T) {
	// An unopenable path must not panic; the logger keeps its default output.
	logger := Logger(logrus.New(), "/nonexistent-dir/x/y/z.log", "executor", "test")
	assert.NotNil(t, logger)
}

func TestPackageLoggers(t *testing.T) {
	assert.NotNil(t, Generator)
	assert.NotNil(t, Executor)
	assert.NotNil(t, Triggers)
	assert.NotNil(t, Formats)
}
