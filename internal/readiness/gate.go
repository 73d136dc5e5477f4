// Package readiness blocks startup steps until dependency services answer
// their health endpoints.
//
// The gate resolves targets sequentially: each target is polled at a fixed
// interval until its success predicate holds or the per-target deadline
// expires. Dependent steps (data loading, chat) run only after every target
// has succeeded.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/koopa0/ragstack/internal/log"
)

// ErrUnavailable indicates a dependency did not become ready within the
// configured window. Callers abort the surrounding startup sequence; the
// gate never retries past its deadline.
var ErrUnavailable = errors.New("dependency unavailable")

// Target is one health-check endpoint to resolve.
type Target struct {
	// Name identifies the service in progress messages.
	Name string
	// URL is the health endpoint, polled with GET.
	URL string
	// Check is the success predicate over the HTTP status code.
	// Nil means Check2xx.
	Check func(status int) bool
}

// Check2xx is the default success predicate: any 2xx status.
func Check2xx(status int) bool {
	return status >= 200 && status < 300
}

// Gate polls health-check targets until they succeed or time out.
// The zero value is not usable; populate Interval and Logger at least.
type Gate struct {
	// Interval is the fixed delay between attempts.
	Interval time.Duration
	// Timeout bounds the total wait per target. Zero means no deadline:
	// the gate polls until the context is cancelled.
	Timeout time.Duration
	// Client is the HTTP client used for probes. Nil gets a client with
	// a 5 second request timeout.
	Client *http.Client
	// Logger receives waiting notices between attempts.
	Logger log.Logger
}

// NewGate creates a gate with the given poll interval and per-target timeout.
func NewGate(interval, timeout time.Duration, logger log.Logger) *Gate {
	return &Gate{
		Interval: interval,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: 5 * time.Second},
		Logger:   logger,
	}
}

// Wait blocks until every target has answered successfully, in order.
// A target is fully resolved before the next one is attempted.
//
// Returns an error wrapping ErrUnavailable when a target's deadline expires,
// or ctx.Err() when the caller is interrupted externally.
func (g *Gate) Wait(ctx context.Context, targets ...Target) error {
	for _, target := range targets {
		if err := g.waitOne(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) waitOne(parent context.Context, target Target) error {
	ctx := parent
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, g.Timeout)
		defer cancel()
	}

	attempts := 0
	op := func() error {
		attempts++
		return g.Probe(ctx, target)
	}
	notify := func(err error, _ time.Duration) {
		g.logger().Info("waiting for service",
			"service", target.Name,
			"attempt", attempts,
			"reason", err)
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(g.Interval), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if parent.Err() != nil {
			// Interrupted from outside; not a readiness failure.
			return parent.Err()
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s not ready after %s (%d attempts): %v",
				ErrUnavailable, target.Name, g.Timeout, attempts, err)
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, target.Name, err)
	}

	g.logger().Info("service ready",
		"service", target.Name,
		"url", target.URL,
		"attempts", attempts)
	return nil
}

// Probe issues a single health check against the target and applies its
// success predicate. Used by Wait for each attempt and by `status` for
// one-shot reporting.
func (g *Gate) Probe(ctx context.Context, target Target) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", target.Name, err)
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", target.Name, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	check := target.Check
	if check == nil {
		check = Check2xx
	}
	if !check(resp.StatusCode) {
		return fmt.Errorf("%s returned status %d", target.Name, resp.StatusCode)
	}
	return nil
}

func (g *Gate) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

func (g *Gate) logger() log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.NewNop()
}
