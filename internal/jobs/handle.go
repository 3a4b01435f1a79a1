package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrStillProcessing is returned by Handle.Result when the bounded wait
// expires before the job finishes. Callers should report "still processing"
// and poll again rather than block.
var ErrStillProcessing = errors.New("job still processing")

// Handle tracks one dispatched job. Completion is signalled through a done
// channel, never by busy-waiting.
type Handle struct {
	id        string
	name      string
	createdAt time.Time
	done      chan struct{}

	// written once by the worker before done is closed
	result any
	err    error
}

func newHandle(name string, createdAt time.Time) *Handle {
	return &Handle{
		id:        uuid.NewString(),
		name:      name,
		createdAt: createdAt,
		done:      make(chan struct{}),
	}
}

// ID returns the job handle identifier.
func (h *Handle) ID() string { return h.id }

// Name returns the job type, e.g. "build_weekly".
func (h *Handle) Name() string { return h.name }

// IsReady reports whether the job has finished, without blocking.
func (h *Handle) IsReady() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result waits up to timeout for the job to finish and returns its outcome.
// A zero timeout polls without waiting.
func (h *Handle) Result(timeout time.Duration) (any, error) {
	// Check completion first so a zero timeout never races the timer.
	select {
	case <-h.done:
		return h.result, h.err
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.result, h.err
	case <-timer.C:
		return nil, ErrStillProcessing
	}
}

// Status reports the job state for polling clients.
func (h *Handle) Status() string {
	if !h.IsReady() {
		return "processing"
	}
	if h.err != nil {
		return "failed"
	}
	return "completed"
}

// Err returns the job error once ready, nil otherwise.
func (h *Handle) Err() error {
	if !h.IsReady() {
		return nil
	}
	return h.err
}

func (h *Handle) finish(result any, err error) {
	h.result = result
	h.err = err
	close(h.done)
}
