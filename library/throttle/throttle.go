// Package throttle limits request rates globally and per key.
package throttle

import (
	"sync"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// maxIdleKeys triggers pruning of idle per-key limiters
const maxIdleKeys = 10000

// Config configuration for Throttle
type Config struct {
	TotalNPerSec, TotalBurst     int
	EachKeyNPerSec, EachKeyBurst int
}

// Throttle allows an event only when both the global budget and the
// budget of its key have tokens left
type Throttle struct {
	mu    sync.Mutex
	cfg   Config
	total *rate.Limiter
	keys  map[string]*rate.Limiter
}

// New create new Throttle
func New(cfg Config) (*Throttle, error) {
	if cfg.TotalNPerSec <= 0 || cfg.EachKeyNPerSec <= 0 {
		return nil, errors.New("NPerSec must bigger than 0")
	}
	if cfg.TotalBurst < cfg.TotalNPerSec || cfg.EachKeyBurst < cfg.EachKeyNPerSec {
		return nil, errors.New("burst must not be smaller than NPerSec")
	}

	return &Throttle{
		cfg:   cfg,
		total: rate.NewLimiter(rate.Limit(cfg.TotalNPerSec), cfg.TotalBurst),
		keys:  map[string]*rate.Limiter{},
	}, nil
}

// Allow reports whether key may proceed now
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	lim, ok := t.keys[key]
	if !ok {
		if len(t.keys) >= maxIdleKeys {
			t.pruneLocked()
		}
		lim = rate.NewLimiter(rate.Limit(t.cfg.EachKeyNPerSec), t.cfg.EachKeyBurst)
		t.keys[key] = lim
	}
	t.mu.Unlock()

	return lim.Allow() && t.total.Allow()
}

// pruneLocked drops limiters that have refilled, they carry no state
func (t *Throttle) pruneLocked() {
	for k, lim := range t.keys {
		if lim.Tokens() >= float64(t.cfg.EachKeyBurst) {
			delete(t.keys, k)
		}
	}
}
