package search

import (
	"testing"
	"time"
)

func TestIPRateLimiterExhaustion(t *testing.T) {
	rl := NewIPRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("bucket exhausted, request should be dropped")
	}
}

func TestIPRateLimiterPerClientIsolation(t *testing.T) {
	rl := NewIPRateLimiter(1, time.Hour)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should pass")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client has its own bucket")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first client is out of tokens")
	}
}

func TestIPRateLimiterRefill(t *testing.T) {
	rl := NewIPRateLimiter(2, 20*time.Millisecond)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")
	if rl.Allow("10.0.0.1") {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("bucket should have refilled")
	}
}
