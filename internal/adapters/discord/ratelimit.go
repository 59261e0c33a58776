package discord

import (
	"sync"
	"time"
)

// cmdLimiter: un comando por usuario por ventana, para que nadie martille
// al bot (aparte del anti-spam del motor, que es por grupo y configurable).
type cmdLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
}

func newCmdLimiter(window time.Duration) *cmdLimiter {
	return &cmdLimiter{next: map[string]time.Time{}, win: window}
}

func (l *cmdLimiter) Allow(userID string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.next[userID]; ok && now.Before(until) {
		return false
	}
	l.next[userID] = now.Add(l.win)
	return true
}
