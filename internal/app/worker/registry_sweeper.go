package worker

import (
	"context"
	"log"
	"time"

	"clinic/internal/app/clinic"
)

// RegistrySweeper periodically unloads client instances whose browser
// has gone quiet.
type RegistrySweeper struct {
	registry *clinic.Registry
	idle     time.Duration
	interval time.Duration
}

func NewRegistrySweeper(registry *clinic.Registry, idle time.Duration) *RegistrySweeper {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	return &RegistrySweeper{registry: registry, idle: idle, interval: interval}
}

func (s *RegistrySweeper) Start(ctx context.Context) {
	log.Printf("Registry sweeper started, idle limit %s", s.idle)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Registry sweeper stopping...")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one eviction pass.
func (s *RegistrySweeper) Sweep() int {
	n := s.registry.Evict(s.idle)
	if n > 0 {
		log.Printf("Registry sweeper: unloaded %d idle client(s), %d active", n, s.registry.Len())
	}
	return n
}
