package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDevelopment(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewProduction(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.False(t, logger.Core().Enabled(zap.DebugLevel))
	require.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestComponent(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, Component(logger, "pipeline"))
	require.NotNil(t, Component(nil, "pipeline"))
}
