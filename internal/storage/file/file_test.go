package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile", "credentials.yaml")
	s, err := New(path)
	require.NoError(t, err)

	_, ok := s.Get("SPOTIFY_token")
	assert.False(t, ok, "missing file reads as absent")

	s.Set("SPOTIFY_token", "abc")
	s.Set("OTHER_token", "xyz")

	v, ok := s.Get("SPOTIFY_token")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fileMode, info.Mode().Perm())

	// survives a new instance, as after a restart
	reopened, err := New(path)
	require.NoError(t, err)
	v, ok = reopened.Get("SPOTIFY_token")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	s.Delete("SPOTIFY_token")
	s.Delete("SPOTIFY_token")
	_, ok = s.Get("SPOTIFY_token")
	assert.False(t, ok)

	v, ok = s.Get("OTHER_token")
	assert.True(t, ok)
	assert.Equal(t, "xyz", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, map[string]string{"OTHER_token": "xyz"}, doc)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml [\n"), 0o600))

	s, err := New(path)
	require.NoError(t, err)

	_, ok := s.Get("SPOTIFY_token")
	assert.False(t, ok)

	s.Set("SPOTIFY_token", "fresh")
	v, ok := s.Get("SPOTIFY_token")
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestNew_DefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	s, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "credentials.yaml", filepath.Base(s.Path()))
	assert.Equal(t, "popup-login", filepath.Base(filepath.Dir(s.Path())))
}
