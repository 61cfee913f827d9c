package checkin

import (
	"testing"
	"time"
)

func TestLockManagerLockRelease(t *testing.T) {
	m := NewLockManager(5 * time.Minute)

	if !m.Lock("123") {
		t.Fatal("Lock() = false on free slot")
	}
	if m.Lock("123") {
		t.Error("Lock() = true while claim already in flight")
	}
	// A different user is unaffected.
	if !m.Lock("456") {
		t.Error("Lock() = false for unrelated user")
	}

	m.Release("123")
	if !m.Lock("123") {
		t.Error("Lock() = false after Release()")
	}
}

func TestLockManagerCooldown(t *testing.T) {
	m := NewLockManager(5 * time.Minute)

	if ok, _ := m.CanClaim("123"); !ok {
		t.Fatal("CanClaim() = false before any claim")
	}

	m.SetCooldown("123")
	ok, remaining := m.CanClaim("123")
	if ok {
		t.Fatal("CanClaim() = true immediately after SetCooldown()")
	}
	if remaining <= 0 || remaining > 5*time.Minute {
		t.Errorf("remaining = %s, want within (0, 5m]", remaining)
	}

	if ok, _ := m.CanClaim("456"); !ok {
		t.Error("CanClaim() = false for unrelated user")
	}
}

func TestLockManagerCleanupExpired(t *testing.T) {
	m := NewLockManager(time.Millisecond)
	m.lockTimeout = time.Millisecond

	m.Lock("123")
	m.SetCooldown("123")

	time.Sleep(5 * time.Millisecond)
	m.cleanupExpired()

	if !m.Lock("123") {
		t.Error("Lock() = false after stale lock cleanup")
	}
	if ok, _ := m.CanClaim("123"); !ok {
		t.Error("CanClaim() = false after spent cooldown cleanup")
	}
}
