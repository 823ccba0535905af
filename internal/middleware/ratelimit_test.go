package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, remote string) int {
	req := httptest.NewRequest("POST", "/api/forces/exact", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimiter_GlobalLimit(t *testing.T) {
	rl := NewRateLimiter(1.0, 2, 10.0, 10)
	defer rl.Stop()
	handler := rl.Limit(okHandler())

	if code := serve(handler, "192.168.1.1:1234"); code != http.StatusOK {
		t.Errorf("First request failed: got %d", code)
	}
	if code := serve(handler, "192.168.1.1:1234"); code != http.StatusOK {
		t.Errorf("Second request failed: got %d", code)
	}
	if code := serve(handler, "192.168.1.2:1234"); code != http.StatusTooManyRequests {
		t.Errorf("Third request should be rate limited: got %d", code)
	}
}

func TestRateLimiter_PerIPLimit(t *testing.T) {
	rl := NewRateLimiter(100.0, 100, 1.0, 2)
	defer rl.Stop()
	handler := rl.Limit(okHandler())

	for i := 0; i < 2; i++ {
		if code := serve(handler, "10.0.0.1:1"); code != http.StatusOK {
			t.Fatalf("request %d from IP1 failed: got %d", i, code)
		}
	}
	if code := serve(handler, "10.0.0.1:1"); code != http.StatusTooManyRequests {
		t.Errorf("IP1 should be limited: got %d", code)
	}
	if code := serve(handler, "10.0.0.2:1"); code != http.StatusOK {
		t.Errorf("IP2 should be unaffected: got %d", code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "127.0.0.1:80", "203.0.113.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "127.0.0.1:80", "203.0.113.9"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"ipv6 remote", nil, "[::1]:5555", "::1"},
		{"no port", nil, "192.168.1.5", "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := NewRateLimiter(100, 100, 10, 10)
	defer rl.Stop()

	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")
	if rl.trackedIPs() != 2 {
		t.Fatalf("expected 2 tracked IPs, got %d", rl.trackedIPs())
	}

	rl.evictStale(time.Now().Add(staleAfter + time.Second))
	if rl.trackedIPs() != 0 {
		t.Errorf("expected stale IPs evicted, got %d", rl.trackedIPs())
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, 1)
	rl.Stop()
	rl.Stop()
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(1000, 1000, 1000, 1000)
	defer rl.Stop()
	handler := rl.Limit(okHandler())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(handler, "10.1.1.1:1")
		}()
	}
	wg.Wait()
}
