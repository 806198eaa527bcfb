package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		expect ErrorAction
	}{
		{&StatusError{Code: http.StatusTooManyRequests}, ActionRetry},
		{&StatusError{Code: http.StatusInternalServerError}, ActionRetry},
		{&StatusError{Code: http.StatusBadGateway}, ActionRetry},
		{&StatusError{Code: http.StatusNotFound}, ActionFatal},
		{&StatusError{Code: http.StatusForbidden}, ActionFatal},
		{&decodeError{err: errors.New("unexpected EOF")}, ActionFatal},
		{fmt.Errorf("%w: %w", ErrUnavailable, context.DeadlineExceeded), ActionFatal},
		{fmt.Errorf("%w: connection reset by peer", ErrUnavailable), ActionRetry},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expect {
			t.Errorf("ClassifyError(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffMultiple: 2}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for attempt, w := range want {
		if got := calculateBackoff(attempt, cfg); got != w {
			t.Errorf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"urlName":"a"}]`))
	})
	gw.client.(*Client).retry = RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}

	res := gw.FetchAllGuildSlugs(context.Background())
	if res.Source != SourceAPI {
		t.Fatalf("expected api source after retries, got %s", res.Source)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int64
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	gw.client.(*Client).retry = RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}

	_, err := gw.FetchGuildBySlug(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}
