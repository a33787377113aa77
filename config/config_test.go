package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COBALT_DEBUG", "false")
	t.Setenv("COBALT_NO_COLOR", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.Debug)
	require.False(t, cfg.NoColor)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COBALT_DEBUG", "true")
	t.Setenv("COBALT_NO_COLOR", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Debug)
	require.True(t, cfg.NoColor)
}
