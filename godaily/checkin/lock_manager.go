package checkin

import (
	"context"
	"sync"
	"time"

	"github.com/ellavondegurechaff/godaily/godaily/config"
)

// LockManager guards the manual /claim path: one in-flight claim per user
// and a short cooldown between finished ones. The scheduler does not go
// through it; a scheduled claim racing a manual one is harmless since the
// upstream resolves the duplicate as already-claimed.
type LockManager struct {
	active      sync.Map // discordID -> session start time
	cooldowns   sync.Map // discordID -> next allowed claim time
	cooldown    time.Duration
	lockTimeout time.Duration
}

func NewLockManager(cooldown time.Duration) *LockManager {
	return &LockManager{
		cooldown:    cooldown,
		lockTimeout: config.ManualClaimLockTimeout,
	}
}

// CanClaim reports whether the user is off cooldown, and if not, how long
// remains.
func (m *LockManager) CanClaim(discordID string) (bool, time.Duration) {
	if v, exists := m.cooldowns.Load(discordID); exists {
		next := v.(time.Time)
		if time.Now().Before(next) {
			return false, time.Until(next)
		}
	}
	return true, 0
}

// Lock marks a claim as in flight. It fails if one is already running for
// this user.
func (m *LockManager) Lock(discordID string) bool {
	_, loaded := m.active.LoadOrStore(discordID, time.Now())
	return !loaded
}

func (m *LockManager) Release(discordID string) {
	m.active.Delete(discordID)
}

func (m *LockManager) SetCooldown(discordID string) {
	m.cooldowns.Store(discordID, time.Now().Add(m.cooldown))
}

// cleanupExpired drops stale locks (a crashed handler must not wedge the
// user forever) and spent cooldowns.
func (m *LockManager) cleanupExpired() {
	now := time.Now()

	m.active.Range(func(key, value interface{}) bool {
		if now.Sub(value.(time.Time)) > m.lockTimeout {
			m.active.Delete(key)
		}
		return true
	})

	m.cooldowns.Range(func(key, value interface{}) bool {
		if now.After(value.(time.Time)) {
			m.cooldowns.Delete(key)
		}
		return true
	})
}

func (m *LockManager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanupExpired()
			}
		}
	}()
}
