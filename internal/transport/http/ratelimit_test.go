package http

import "testing"

func TestRateLimiterCapsFramesPerWindow(t *testing.T) {
	limiter := newRateLimiter(3)
	stop := make(chan struct{})
	defer close(stop)
	limiter.startReset(stop)

	for i := 0; i < 3; i++ {
		if !limiter.allow() {
			t.Fatalf("frame %d rejected within limit", i+1)
		}
	}
	if limiter.allow() {
		t.Fatal("expected fourth frame to be rejected")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	for _, limiter := range []*rateLimiter{nil, newRateLimiter(0), newRateLimiter(-1)} {
		stop := make(chan struct{})
		limiter.startReset(stop)
		for i := 0; i < 100; i++ {
			if !limiter.allow() {
				t.Fatalf("disabled limiter rejected frame %d", i+1)
			}
		}
		close(stop)
	}
}
