package redis

import (
	"context"
	"os"
	"testing"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server when POPUP_LOGIN_TEST_REDIS_ADDR is set.
func TestStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("POPUP_LOGIN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POPUP_LOGIN_TEST_REDIS_ADDR not set")
	}

	client := rdb.NewClient(&rdb.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	s := NewWithClient(client, "popup-login-test:")
	t.Cleanup(func() {
		s.Delete("SPOTIFY_token")
		_ = s.Close()
	})

	_, ok := s.Get("SPOTIFY_token")
	assert.False(t, ok)

	s.Set("SPOTIFY_token", "abc")
	v, ok := s.Get("SPOTIFY_token")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	s.Delete("SPOTIFY_token")
	_, ok = s.Get("SPOTIFY_token")
	assert.False(t, ok)
}

func TestStore_UnreachableServerReadsAbsent(t *testing.T) {
	// nothing listens on port 1
	s := New("127.0.0.1:1", 0)
	t.Cleanup(func() { _ = s.Close() })

	s.Set("SPOTIFY_token", "abc")
	_, ok := s.Get("SPOTIFY_token")
	assert.False(t, ok)
	s.Delete("SPOTIFY_token")
}
