package identity

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter throttles credential attempts per username.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	r       rate.Limit
	burst   int
}

func NewLimiter(rps float64, burst int) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		r:       rate.Limit(rps),
		burst:   burst,
	}
	// cleanup stale entries every minute
	go func() {
		for {
			time.Sleep(time.Minute)
			l.mu.Lock()
			for k, e := range l.entries {
				if time.Since(e.seen) > 3*time.Minute {
					delete(l.entries, k)
				}
			}
			l.mu.Unlock()
		}
	}()
	return l
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok {
		e.seen = time.Now()
		return e.lim.Allow()
	}
	e := &entry{lim: rate.NewLimiter(l.r, l.burst), seen: time.Now()}
	l.entries[key] = e
	return e.lim.Allow()
}
