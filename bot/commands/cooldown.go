package commands

import (
	"sync"
	"time"
)

// Cooldown allows Rate invocations per user within Per
type Cooldown struct {
	Rate int
	Per  time.Duration
}

type cooldownWindow struct {
	start time.Time
	used  int
}

type cooldownTracker struct {
	cooldown Cooldown

	mu      sync.Mutex
	windows map[string]*cooldownWindow
}

func newCooldownTracker(cooldown Cooldown) *cooldownTracker {
	if cooldown.Rate < 1 {
		cooldown.Rate = 1
	}
	return &cooldownTracker{
		cooldown: cooldown,
		windows:  make(map[string]*cooldownWindow),
	}
}

// hit consumes one use for key. It returns how long to wait when the window is exhausted.
func (t *cooldownTracker) hit(key string, now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[key]
	if !ok || now.Sub(w.start) >= t.cooldown.Per {
		t.windows[key] = &cooldownWindow{start: now, used: 1}
		t.prune(now)
		return 0
	}

	if w.used >= t.cooldown.Rate {
		return t.cooldown.Per - now.Sub(w.start)
	}
	w.used++
	return 0
}

// prune drops expired windows
func (t *cooldownTracker) prune(now time.Time) {
	for key, w := range t.windows {
		if now.Sub(w.start) >= t.cooldown.Per {
			delete(t.windows, key)
		}
	}
}
