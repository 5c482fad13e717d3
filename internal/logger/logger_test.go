package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brizzai/popup-login/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "console defaults", cfg: config.LoggingConfig{}},
		{name: "json", cfg: config.LoggingConfig{Level: "debug", Format: "json"}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "login.log")
	l, err := NewLogger(&config.LoggingConfig{
		Format:         "json",
		OutputPath:     path,
		DisableConsole: true,
	})
	require.NoError(t, err)

	l.Info("hello", zap.String("provider", "SPOTIFY"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"provider":"SPOTIFY"`)
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("signed in", zap.String("user", "u1"))
	Warn("careful")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "signed in", logs.All()[0].Message)
	assert.Equal(t, "u1", logs.All()[0].ContextMap()["user"])
}
