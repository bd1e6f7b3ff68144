// Package jobs tracks asynchronous provider-side scrape jobs: start a job,
// poll its status on an interval until a terminal state or the wait budget
// runs out, then fetch the result dataset.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

// Status is the lifecycle state of one provider job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusAborted   Status = "ABORTED"
	StatusTimedOut  Status = "TIMED_OUT"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut:
		return true
	}
	return false
}

// Spec describes a job to start: which actor to run and its JSON input.
type Spec struct {
	Platform candidate.Platform
	Actor    string
	Input    string
}

// Run is one job instance for one platform. The poller owns it for its whole
// lifetime; everyone else reads through Status()/snapshot accessors. A Run
// only moves forward: once terminal it never re-enters RUNNING.
type Run struct {
	Platform candidate.Platform
	Handle   string

	mu         sync.Mutex
	status     Status
	datasetID  string
	startedAt  time.Time
	finishedAt time.Time
}

// Status returns the current lifecycle state.
func (r *Run) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// StartedAt returns when the job was accepted by the provider.
func (r *Run) StartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedAt
}

// FinishedAt returns when the job reached a terminal state (zero until then).
func (r *Run) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// transition moves the run forward. Terminal states are sticky.
func (r *Run) transition(next Status, datasetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return
	}
	r.status = next
	if datasetID != "" {
		r.datasetID = datasetID
	}
	if next.Terminal() {
		r.finishedAt = time.Now().UTC()
	}
}

// Client is the provider-side job API consumed by the poller.
type Client interface {
	// StartJob submits the actor run and returns its opaque handle.
	StartJob(ctx context.Context, actor, input string) (handle string, err error)
	// JobStatus returns the remote state plus the dataset reference once present.
	JobStatus(ctx context.Context, handle string) (state string, datasetID string, err error)
	// FetchDataset downloads the raw JSON items of a finished job.
	FetchDataset(ctx context.Context, datasetID string) (string, error)
}

var (
	ErrNotSucceeded = errors.New("job has not succeeded")
	ErrNoDataset    = errors.New("job has no dataset reference")
)

const (
	defaultInterval = 3 * time.Second
	defaultMaxWait  = 90 * time.Second
)

// Poller drives jobs to completion. One Poller can track many runs
// concurrently; each Wait call is independent.
type Poller struct {
	Client   Client
	Interval time.Duration
	MaxWait  time.Duration
}

// Start submits the job and returns its Run in PENDING state.
func (p *Poller) Start(ctx context.Context, spec Spec) (*Run, error) {
	handle, err := p.Client.StartJob(ctx, spec.Actor, spec.Input)
	if err != nil {
		return nil, fmt.Errorf("starting %s job: %w", spec.Platform, err)
	}
	return &Run{
		Platform:  spec.Platform,
		Handle:    handle,
		status:    StatusPending,
		startedAt: time.Now().UTC(),
	}, nil
}

// Poll performs a single status check and advances the run's state.
// Transient check failures leave the state untouched.
func (p *Poller) Poll(ctx context.Context, run *Run) Status {
	if s := run.Status(); s.Terminal() {
		return s
	}

	state, datasetID, err := p.Client.JobStatus(ctx, run.Handle)
	if err != nil {
		utils.Log.Debugf("Status check failed for %s job %s: %v", run.Platform, run.Handle, err)
		return run.Status()
	}

	run.transition(mapRemoteState(state), datasetID)
	return run.Status()
}

// Wait polls on the configured interval until the run is terminal or the
// wait budget is spent. Exceeding the budget yields TIMED_OUT; context
// cancellation yields ABORTED. Both are terminal.
func (p *Poller) Wait(ctx context.Context, run *Run) Status {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	maxWait := p.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		if s := p.Poll(ctx, run); s.Terminal() {
			return s
		}
		select {
		case <-ctx.Done():
			run.transition(StatusAborted, "")
			return StatusAborted
		case <-deadline.C:
			run.transition(StatusTimedOut, "")
			utils.Log.Warnf("%s job %s exceeded wait budget of %s", run.Platform, run.Handle, maxWait)
			return StatusTimedOut
		case <-tick.C:
		}
	}
}

// FetchResults downloads the job's dataset. Only valid once SUCCEEDED.
func (p *Poller) FetchResults(ctx context.Context, run *Run) (string, error) {
	if s := run.Status(); s != StatusSucceeded {
		return "", fmt.Errorf("%w: %s job %s is %s", ErrNotSucceeded, run.Platform, run.Handle, s)
	}
	run.mu.Lock()
	datasetID := run.datasetID
	run.mu.Unlock()
	if datasetID == "" {
		return "", ErrNoDataset
	}
	return p.Client.FetchDataset(ctx, datasetID)
}

// mapRemoteState folds provider state strings onto our lifecycle. Providers
// report their own timeouts; those are kept distinct from FAILED.
func mapRemoteState(state string) Status {
	switch state {
	case "SUCCEEDED":
		return StatusSucceeded
	case "FAILED":
		return StatusFailed
	case "ABORTED", "ABORTING":
		return StatusAborted
	case "TIMED-OUT", "TIMING-OUT":
		return StatusTimedOut
	case "READY", "PENDING":
		return StatusPending
	default:
		return StatusRunning
	}
}
