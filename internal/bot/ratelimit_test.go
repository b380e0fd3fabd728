package bot

import (
	"testing"
	"time"
)

func TestRateLimiterWindows(t *testing.T) {
	r := NewRateLimiter()

	if r.IsLimited(1, "/products") {
		t.Error("first call should pass")
	}
	if !r.IsLimited(1, "/products") {
		t.Error("immediate repeat should be limited")
	}

	// A different command for the same user has its own window.
	if r.IsLimited(1, "/help") {
		t.Error("different command should pass")
	}

	// A different user is tracked independently.
	if r.IsLimited(2, "/products") {
		t.Error("different user should pass")
	}
}

func TestRateLimiterExpiry(t *testing.T) {
	r := NewRateLimiter()
	r.limits["/fast"] = 10 * time.Millisecond

	if r.IsLimited(1, "/fast") {
		t.Error("first call should pass")
	}
	if !r.IsLimited(1, "/fast") {
		t.Error("repeat inside the window should be limited")
	}
	time.Sleep(20 * time.Millisecond)
	if r.IsLimited(1, "/fast") {
		t.Error("call after the window should pass")
	}
}
