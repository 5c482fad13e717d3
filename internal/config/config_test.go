package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
spotify:
  client_id: abc
  redirect_uri: http://127.0.0.1:8888/callback
  scopes:
    - user-read-email
    - playlist-read-private
  show_dialog: false
popup:
  poll_interval: 250ms
  timeout: 2m
storage:
  backend: memory
`)

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Spotify.ClientID)
	assert.Equal(t, "http://127.0.0.1:8888/callback", cfg.Spotify.RedirectURI)
	assert.Equal(t, []string{"user-read-email", "playlist-read-private"}, cfg.Spotify.Scopes)
	require.NotNil(t, cfg.Spotify.ShowDialog)
	assert.False(t, *cfg.Spotify.ShowDialog)
	assert.Equal(t, 250*time.Millisecond, cfg.Popup.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Popup.Timeout)
	assert.Equal(t, StorageBackendMemory, cfg.Storage.Backend)

	// defaults
	assert.Equal(t, 500, cfg.Popup.Width)
	assert.Equal(t, 600, cfg.Popup.Height)
	assert.Equal(t, "https://accounts.spotify.com/authorize", cfg.Spotify.AuthURL)
	assert.Equal(t, "https://api.spotify.com/v1/me", cfg.Spotify.ProfileURL)
}

func TestLoad_ShowDialogUnset(t *testing.T) {
	path := writeConfig(t, `
spotify:
  client_id: abc
  redirect_uri: http://127.0.0.1:8888/callback
`)

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Nil(t, cfg.Spotify.ShowDialog)
	assert.Equal(t, 100*time.Millisecond, cfg.Popup.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.Popup.Timeout)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("POPUP_LOGIN_SPOTIFY_CLIENT_ID", "env-client")
	t.Setenv("POPUP_LOGIN_SPOTIFY_REDIRECT_URI", "http://localhost:9999/cb")
	path := writeConfig(t, "logging:\n  level: warn\n")

	cfg, err := Load(newFlags(t, "--config", path, "--mode", "sse", "--storage-backend", "redis", "--log-level", "debug"))
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.Spotify.ClientID)
	assert.Equal(t, "http://localhost:9999/cb", cfg.Spotify.RedirectURI)
	assert.Equal(t, ServerModeSSE, cfg.Server.Mode)
	assert.Equal(t, StorageBackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidModeFlag(t *testing.T) {
	path := writeConfig(t, `
spotify:
  client_id: abc
  redirect_uri: http://127.0.0.1:8888/callback
server:
  mode: sse
`)

	_, err := Load(newFlags(t, "--config", path, "--mode", "grpc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported server mode: grpc")
}

func TestLoad_MissingClientID(t *testing.T) {
	path := writeConfig(t, "spotify:\n  redirect_uri: http://localhost/cb\n")

	_, err := Load(newFlags(t, "--config", path))
	assert.ErrorIs(t, err, ErrMissingClientID)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Spotify: SpotifyConfig{ClientID: "id", RedirectURI: "http://localhost/cb"},
			Popup:   PopupConfig{PollInterval: time.Millisecond},
			Storage: StorageConfig{Backend: StorageBackendFile},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing redirect", mutate: func(c *Config) { c.Spotify.RedirectURI = "" }, wantErr: ErrMissingRedirectURI},
		{name: "bad backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }},
		{name: "zero interval", mutate: func(c *Config) { c.Popup.PollInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			switch {
			case tt.name == "valid":
				assert.NoError(t, err)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestNormalizeScopes(t *testing.T) {
	assert.Equal(t, []string{"a b", "c"}, normalizeScopes([]string{" a b ", "", "c"}))
	assert.Empty(t, normalizeScopes(nil))
}
