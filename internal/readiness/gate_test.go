package readiness

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/koopa0/ragstack/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestGate builds a gate whose HTTP client is torn down with the test,
// so goleak does not trip over idle keep-alive connections.
func newTestGate(t *testing.T, interval, timeout time.Duration) *Gate {
	t.Helper()
	gate := NewGate(interval, timeout, log.NewNop())
	t.Cleanup(gate.Client.CloseIdleConnections)
	return gate
}

// flakyServer returns 503 for the first failures requests, then 200.
func flakyServer(t *testing.T, failures int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= int64(failures) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestWaitSucceedsAfterNFailures(t *testing.T) {
	const failures = 3
	srv, hits := flakyServer(t, failures)

	gate := newTestGate(t, 5*time.Millisecond, time.Second)
	err := gate.Wait(context.Background(), Target{Name: "weaviate", URL: srv.URL})
	if err != nil {
		t.Fatalf("Wait() error = %v, want nil", err)
	}

	// Exactly one attempt per failure plus the successful one.
	if got := hits.Load(); got != failures+1 {
		t.Errorf("attempts = %d, want %d", got, failures+1)
	}
}

func TestWaitImmediateSuccess(t *testing.T) {
	srv, hits := flakyServer(t, 0)

	gate := newTestGate(t, time.Hour, 0) // interval must never be awaited
	done := make(chan error, 1)
	go func() {
		done <- gate.Wait(context.Background(), Target{Name: "svc", URL: srv.URL})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() blocked despite healthy endpoint")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestWaitTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	const (
		interval = 10 * time.Millisecond
		timeout  = 100 * time.Millisecond
	)
	gate := newTestGate(t, interval, timeout)

	start := time.Now()
	err := gate.Wait(context.Background(), Target{Name: "embedding", URL: srv.URL})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Wait() error = %v, want ErrUnavailable", err)
	}
	// Must not hang: the deadline bounds the whole wait.
	if elapsed > 5*timeout {
		t.Errorf("Wait() took %s, deadline was %s", elapsed, timeout)
	}
}

func TestWaitBoundedAttempts(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	const (
		interval = 20 * time.Millisecond
		timeout  = 100 * time.Millisecond
	)
	gate := newTestGate(t, interval, timeout)
	if err := gate.Wait(context.Background(), Target{Name: "svc", URL: srv.URL}); err == nil {
		t.Fatal("Wait() = nil, want timeout error")
	}

	// timeout/interval polls plus the initial attempt, with slack for
	// scheduling; it must not keep retrying past the window.
	maxAttempts := int64(timeout/interval) + 2
	if got := hits.Load(); got > maxAttempts {
		t.Errorf("attempts = %d, want at most %d", got, maxAttempts)
	}
}

func TestWaitSequentialOrder(t *testing.T) {
	var order []string
	firstReady := false

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "first")
		if len(order) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		firstReady = true
		w.WriteHeader(http.StatusOK)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !firstReady {
			t.Error("second target probed before first resolved")
		}
		order = append(order, "second")
		w.WriteHeader(http.StatusOK)
	}))
	defer second.Close()

	gate := newTestGate(t, time.Millisecond, time.Second)
	err := gate.Wait(context.Background(),
		Target{Name: "first", URL: first.URL},
		Target{Name: "second", URL: second.URL},
	)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if order[len(order)-1] != "second" {
		t.Errorf("order = %v, want second target last", order)
	}
}

func TestWaitStopsOnFirstFailure(t *testing.T) {
	never := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer never.Close()

	var secondHit atomic.Int64
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		secondHit.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer second.Close()

	gate := newTestGate(t, 5*time.Millisecond, 30*time.Millisecond)
	err := gate.Wait(context.Background(),
		Target{Name: "never", URL: never.URL},
		Target{Name: "healthy", URL: second.URL},
	)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Wait() error = %v, want ErrUnavailable", err)
	}
	if secondHit.Load() != 0 {
		t.Error("later target probed after earlier target failed")
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	gate := newTestGate(t, 10*time.Millisecond, time.Minute)

	done := make(chan error, 1)
	go func() {
		done <- gate.Wait(ctx, Target{Name: "svc", URL: srv.URL})
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() error = %v, want context.Canceled", err)
		}
		if errors.Is(err, ErrUnavailable) {
			t.Error("external cancellation reported as dependency failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not exit promptly after cancellation")
	}
}

func TestCheck2xx(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{204, true},
		{299, true},
		{199, false},
		{301, false},
		{404, false},
		{503, false},
	}
	for _, tt := range tests {
		if got := Check2xx(tt.status); got != tt.want {
			t.Errorf("Check2xx(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestProbeCustomPredicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gate := newTestGate(t, time.Millisecond, time.Second)
	target := Target{
		Name:  "picky",
		URL:   srv.URL,
		Check: func(status int) bool { return status == http.StatusOK },
	}
	if err := gate.Probe(context.Background(), target); err == nil {
		t.Error("Probe() = nil, want predicate rejection for 204")
	}
}
