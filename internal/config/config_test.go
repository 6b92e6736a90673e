package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Point at an explicit file so stray gitnotify.toml files on the machine
	// cannot leak into the test.
	path := filepath.Join(t.TempDir(), "gitnotify.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Delivery.MappingLifetimeDays)
	assert.Equal(t, 24, cfg.Delivery.SweepIntervalHours, "sweep defaults to a daily cadence")
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitnotify.toml")
	content := `
[server]
port = 9090

[delivery]
sweep_interval_hours = 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Delivery.SweepIntervalHours)
	assert.Equal(t, 30, cfg.Delivery.MappingLifetimeDays, "untouched keys keep defaults")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Server.Port = 8080
		cfg.Chat.ServerURL = "https://chat.example.com"
		cfg.Chat.Token = "token"
		cfg.Delivery.MappingLifetimeDays = 30
		cfg.Delivery.SweepIntervalHours = 24
		return cfg
	}

	assert.NoError(t, Validate(valid()))

	missingToken := valid()
	missingToken.Chat.Token = ""
	assert.Error(t, Validate(missingToken))

	badPort := valid()
	badPort.Server.Port = 0
	assert.Error(t, Validate(badPort))

	badLifetime := valid()
	badLifetime.Delivery.MappingLifetimeDays = 0
	assert.Error(t, Validate(badLifetime))
}
