package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("popup-login version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Spotify SpotifyConfig `mapstructure:"spotify"`
	Popup   PopupConfig   `mapstructure:"popup"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Mode    ServerMode `mapstructure:"mode"`
	Name    string     `mapstructure:"name"`
	Version string     `mapstructure:"version"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// SpotifyConfig holds the registered application's settings.
type SpotifyConfig struct {
	ClientID    string `mapstructure:"client_id"`
	RedirectURI string `mapstructure:"redirect_uri"`
	// Scopes may be given as a list or as one space separated string.
	Scopes []string `mapstructure:"scopes"`
	// ShowDialog is nil when unset, which means true.
	ShowDialog *bool  `mapstructure:"show_dialog"`
	AuthURL    string `mapstructure:"auth_url"`
	ProfileURL string `mapstructure:"profile_url"`
}

type PopupConfig struct {
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
	ScreenWidth  int           `mapstructure:"screen_width"`
	ScreenHeight int           `mapstructure:"screen_height"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// Timeout bounds the total popup lifetime. Zero waits until the user
	// completes the flow or closes the window.
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageBackend selects where the credential is kept.
type StorageBackend string

const (
	StorageBackendMemory StorageBackend = "memory"
	StorageBackendFile   StorageBackend = "file"
	StorageBackendRedis  StorageBackend = "redis"
)

type StorageConfig struct {
	Backend   StorageBackend `mapstructure:"backend"`
	Path      string         `mapstructure:"path"`
	RedisAddr string         `mapstructure:"redis_addr"`
	RedisDB   int            `mapstructure:"redis_db"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ErrMissingClientID and ErrMissingRedirectURI are returned by Validate.
var (
	ErrMissingClientID    = errors.New("spotify.client_id is required, please adjust the config or set POPUP_LOGIN_SPOTIFY_CLIENT_ID")
	ErrMissingRedirectURI = errors.New("spotify.redirect_uri is required, please adjust the config or set POPUP_LOGIN_SPOTIFY_REDIRECT_URI")
)

// InitFlags initializes command line flags (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file")
	fs.String("mode", string(ServerModeSTDIO), "Server mode (stdio|sse|http)")
	fs.String("storage-backend", string(StorageBackendFile), "Credential storage backend (memory|file|redis)")
	fs.String("log-level", "info", "Log level")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.disable_stacktrace", true)

	v.SetDefault("spotify.auth_url", "https://accounts.spotify.com/authorize")
	v.SetDefault("spotify.profile_url", "https://api.spotify.com/v1/me")
	v.SetDefault("spotify.scopes", []string{"user-read-email", "user-read-private"})

	v.SetDefault("popup.width", 500)
	v.SetDefault("popup.height", 600)
	v.SetDefault("popup.screen_width", 1920)
	v.SetDefault("popup.screen_height", 1080)
	v.SetDefault("popup.poll_interval", 100*time.Millisecond)
	v.SetDefault("popup.timeout", time.Duration(0))

	v.SetDefault("storage.backend", string(StorageBackendFile))
	v.SetDefault("storage.redis_addr", "localhost:6379")

	v.SetDefault("server.mode", string(ServerModeSTDIO))
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.name", "Popup Login")
	v.SetDefault("server.version", version)
}

// Load reads configuration from flags, environment and config files.
// A missing config file is not an error.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("POPUP_LOGIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Keys without defaults are only seen by Unmarshal when bound explicitly
	for _, key := range []string{"spotify.client_id", "spotify.redirect_uri", "spotify.show_dialog", "storage.path"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/popup-login")
		v.AddConfigPath("/etc/popup-login")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Flags win over the file
	if mode := v.GetString("mode"); mode != "" && fs != nil && fs.Changed("mode") {
		switch ServerMode(mode) {
		case ServerModeSSE, ServerModeSTDIO, ServerModeHTTP:
			config.Server.Mode = ServerMode(mode)
		default:
			return nil, fmt.Errorf("unsupported server mode: %s", mode)
		}
	}
	if backend := v.GetString("storage-backend"); backend != "" && fs != nil && fs.Changed("storage-backend") {
		config.Storage.Backend = StorageBackend(backend)
	}
	if level := v.GetString("log-level"); level != "" && fs != nil && fs.Changed("log-level") {
		config.Logging.Level = level
	}

	config.Spotify.Scopes = normalizeScopes(config.Spotify.Scopes)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" {
		return ErrMissingClientID
	}
	if c.Spotify.RedirectURI == "" {
		return ErrMissingRedirectURI
	}
	switch c.Storage.Backend {
	case StorageBackendMemory, StorageBackendFile, StorageBackendRedis:
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	if c.Popup.PollInterval <= 0 {
		return fmt.Errorf("popup.poll_interval must be positive, got %s", c.Popup.PollInterval)
	}
	return nil
}

// normalizeScopes drops empty entries. A single pre-joined scope string is
// kept as is.
func normalizeScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
