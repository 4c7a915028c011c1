// Package jobs implements the submit, poll, fetch pattern used by
// upstream services that run searches asynchronously. The caller submits
// a query, receives an opaque job handle, and polls status until the job
// reaches a terminal state.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/types"
)

// Job statuses reported by upstream. COMPLETE is the only success state;
// FAILED and ERROR are terminal failures. Anything else means keep polling.
const (
	StatusPending  = "PENDING"
	StatusRunning  = "RUNNING"
	StatusComplete = "COMPLETE"
	StatusFailed   = "FAILED"
	StatusError    = "ERROR"
)

// handleFields are the submission-response fields a job handle may arrive
// under, probed in order. Upstream is inconsistent about the field name
// across endpoints.
var handleFields = []string{"string", "hash", "id"}

// ExtractHandle pulls the job handle out of a decoded submission response.
// Returns a submission error naming the probed fields when none carries a
// non-empty string.
func ExtractHandle(resp map[string]any) (string, error) {
	for _, field := range handleFields {
		if v, ok := resp[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, nil
			}
		}
	}
	return "", types.NewError(types.ErrSubmission,
		fmt.Sprintf("submission response carries no job handle (looked for %s)",
			strings.Join(handleFields, ", ")))
}

// StatusFunc reports the current status of a job. A returned error is a
// transport failure and aborts polling immediately.
type StatusFunc func(ctx context.Context, handle string) (string, error)

// Config configures polling cadence.
type Config struct {
	// Interval between consecutive status checks.
	Interval time.Duration

	// MaxAttempts bounds the number of status checks before giving up.
	MaxAttempts int
}

// Poller drives a submitted job to completion by repeated status checks.
type Poller struct {
	cfg    Config
	logger *zap.Logger

	// sleep is overridable in tests; it must honour ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller with the given cadence.
func NewPoller(cfg Config, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "job_poller")),
		sleep:  sleepCtx,
	}
}

// Await polls status until the job completes, fails, or the attempt budget
// runs out. Exactly cfg.MaxAttempts checks are issued in the worst case.
// Terminal failure and exhaustion both surface as typed errors carrying
// the handle; a transport error from status propagates as-is, unretried,
// so the caller can distinguish "upstream said no" from "could not ask".
func (p *Poller) Await(ctx context.Context, handle string, status StatusFunc) error {
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		st, err := status(ctx, handle)
		if err != nil {
			return err
		}
		p.logger.Debug("job status",
			zap.String("handle", handle),
			zap.Int("attempt", attempt),
			zap.String("status", st))

		switch st {
		case StatusComplete:
			return nil
		case StatusFailed, StatusError:
			return types.NewError(types.ErrJobFailed,
				fmt.Sprintf("job %s terminated with status %s", handle, st))
		}

		if attempt == p.cfg.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return err
		}
	}
	return types.NewError(types.ErrJobTimeout,
		fmt.Sprintf("job %s still not complete after %d checks", handle, p.cfg.MaxAttempts)).
		WithRetryable(true)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
