package httpx

import (
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{code: 200, want: false},
		{code: 400, want: false},
		{code: 401, want: false},
		{code: 404, want: false},
		{code: 408, want: true},
		{code: 429, want: true},
		{code: 500, want: true},
		{code: 503, want: true},
		{code: 599, want: true},
	}
	for _, tc := range cases {
		if got := IsRetryableHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("IsRetryableHTTPStatus(%d): want=%v got=%v", tc.code, tc.want, got)
		}
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "2")
	if got := RetryAfterDuration(resp, 500*time.Millisecond, 10*time.Second); got != 2*time.Second {
		t.Fatalf("Retry-After honored: want=2s got=%v", got)
	}

	resp.Header.Set("Retry-After", "30")
	if got := RetryAfterDuration(resp, 500*time.Millisecond, 5*time.Second); got != 5*time.Second {
		t.Fatalf("cap applied: want=5s got=%v", got)
	}

	resp.Header.Del("Retry-After")
	if got := RetryAfterDuration(resp, 500*time.Millisecond, 5*time.Second); got != 500*time.Millisecond {
		t.Fatalf("fallback without header: want=500ms got=%v", got)
	}

	if got := RetryAfterDuration(nil, time.Second, 5*time.Second); got != time.Second {
		t.Fatalf("fallback for nil response: want=1s got=%v", got)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	if got := JitterSleep(0); got != 0 {
		t.Fatalf("zero base: want=0 got=%v", got)
	}
	base := time.Second
	for i := 0; i < 50; i++ {
		got := JitterSleep(base)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of 20%% band: got=%v", got)
		}
	}
}
