package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPath(t *testing.T) {
	cfg := Defaults()
	cfg.Service.Name = "test-pv"
	cfg.Export.Retention = 10 * time.Minute

	tests := []struct {
		name    string
		path    string
		want    any
		wantErr bool
	}{
		{
			name: "root service field",
			path: "service.name",
			want: "test-pv",
		},
		{
			name: "duration renders as string",
			path: "export.retention",
			want: "10m0s",
		},
		{
			name: "int field",
			path: "export.max_concurrent_deletes",
			want: 4,
		},
		{
			name:    "invalid path",
			path:    "service.missing",
			wantErr: true,
		},
		{
			name:    "path through scalar",
			path:    "service.name.first",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.GetPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, "config.yaml", `
service:
  name: old-name
export:
  retention: 15m
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	t.Run("set root field", func(t *testing.T) {
		require.NoError(t, cfg.SetPath("service.name", "new-name", true))

		reloaded, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "new-name", reloaded.Service.Name)
	})

	t.Run("create missing key", func(t *testing.T) {
		require.NoError(t, cfg.SetPath("export.sweep_after", "2h", true))

		reloaded, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, reloaded.Export.SweepAfter)
	})

	t.Run("invalid value rolls back", func(t *testing.T) {
		err := cfg.SetPath("service.log_level", "chatty", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")

		reloaded, err := Load(filepath.Clean(configPath))
		require.NoError(t, err)
		assert.Equal(t, "info", reloaded.Service.LogLevel)
	})
}
