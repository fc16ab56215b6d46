package logging

import (
	"testing"

	"shaderstore/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFilterCategoriesDropsDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := config.LoggingConfig{Categories: map[string]bool{"walk": false}}
	base := zap.New(FilterCategories(core, cfg))

	For(base, CategoryWalk).Info("hidden")
	For(base, CategoryEmit).Info("shown")
	For(base, CategoryWalk).Named("sub").Info("hidden too")
	base.Info("root shown")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, "emit", entries[0].LoggerName)
	assert.Equal(t, "root shown", entries[1].Message)
}

func TestFilterCategoriesWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := config.LoggingConfig{Categories: map[string]bool{"watch": false}}
	base := zap.New(FilterCategories(core, cfg)).With(zap.String("run_id", "r1"))

	For(base, CategoryWatch).Info("hidden")
	For(base, CategoryCheck).Info("shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "r1", logs.All()[0].ContextMap()["run_id"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestNewVerboseForcesDebug(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "error", Format: "json"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestForNilBase(t *testing.T) {
	l := For(nil, CategoryBoot)
	require.NotNil(t, l)
	l.Info("no-op")
}
