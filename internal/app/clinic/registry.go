package clinic

import (
	"context"
	"log"
	"sync"
	"time"

	"clinic/internal/app/session"
	"clinic/internal/domain/repository"
)

type registryEntry struct {
	client   *Client
	lastUsed time.Time
}

// Registry keeps one Client per browser session id. Instances are created
// on first use and dropped at logout; the token slot of each lives in the
// shared token repository under session.KeyFor(sid), so an evicted or
// restarted instance picks its signed-in session back up.
type Registry struct {
	opts Options
	now  func() time.Time

	mu      sync.Mutex
	clients map[string]*registryEntry
}

func NewRegistry(opts Options) *Registry {
	if opts.Tokens == nil {
		opts.Tokens = repository.NewMemoryTokenRepository()
	}
	return &Registry{opts: opts, now: time.Now, clients: make(map[string]*registryEntry)}
}

func (r *Registry) Get(sid string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.clients[sid]; ok {
		e.lastUsed = r.now()
		return e.client
	}
	c := New(withKey(r.opts, session.KeyFor(sid)))
	r.clients[sid] = &registryEntry{client: c, lastUsed: r.now()}
	return c
}

// Drop logs the instance out and forgets it.
func (r *Registry) Drop(ctx context.Context, sid string) error {
	r.mu.Lock()
	e, ok := r.clients[sid]
	delete(r.clients, sid)
	r.mu.Unlock()

	var c *Client
	if ok {
		c = e.client
	} else {
		// Not loaded here; the persisted slot still has to go.
		c = New(withKey(r.opts, session.KeyFor(sid)))
	}
	if err := c.Logout(ctx); err != nil {
		log.Printf("Registry.Drop: %v", err)
		return err
	}
	return nil
}

// Evict unloads instances unused for longer than idle and reports how many
// went. Their token slots are kept.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	n := 0
	for sid, e := range r.clients {
		if e.lastUsed.Before(cutoff) {
			delete(r.clients, sid)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func withKey(opts Options, key string) Options {
	opts.Key = key
	return opts
}
