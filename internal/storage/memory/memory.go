package memory

import (
	"github.com/brizzai/popup-login/internal/storage"
	gocache "github.com/patrickmn/go-cache"
)

// Mem keeps values in process memory. Values never expire.
type Mem struct{ c *gocache.Cache }

func New() *Mem {
	return &Mem{c: gocache.New(gocache.NoExpiration, 0)}
}

var _ storage.Store = (*Mem)(nil)

func (m *Mem) Get(k string) (string, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *Mem) Set(k, v string) { m.c.Set(k, v, gocache.NoExpiration) }
func (m *Mem) Delete(k string) { m.c.Delete(k) }
