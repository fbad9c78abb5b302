package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nuts "github.com/vaudience/go-nuts"
	"go.uber.org/zap"
)

func TestConfigureLogging(t *testing.T) {
	prev := nuts.L
	t.Cleanup(func() { nuts.L = prev })

	require.NoError(t, ConfigureLogging("warn"))
	core := nuts.L.Desugar().Core()
	assert.False(t, core.Enabled(zap.InfoLevel))
	assert.True(t, core.Enabled(zap.WarnLevel))

	require.NoError(t, ConfigureLogging("debug"))
	assert.True(t, nuts.L.Desugar().Core().Enabled(zap.DebugLevel))

	current := nuts.L
	require.NoError(t, ConfigureLogging(""))
	assert.Same(t, current, nuts.L)

	assert.Error(t, ConfigureLogging("loud"))
	assert.Same(t, current, nuts.L)
}
