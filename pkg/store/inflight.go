package store

import "sync"

// InflightGuard tracks mutation requests by key so that a second call on the
// same key while one is pending is rejected explicitly instead of racing.
// Different keys never block each other.
type InflightGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInflightGuard() *InflightGuard {
	return &InflightGuard{keys: make(map[string]struct{})}
}

// Acquire reserves key. It returns false if the key is already held.
func (g *InflightGuard) Acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.keys[key]; held {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

func (g *InflightGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}

// Held reports whether key is currently reserved.
func (g *InflightGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.keys[key]
	return held
}
