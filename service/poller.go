package service

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/ports"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 5 * time.Minute
)

// PollOutcome is the terminal state of one polling run
type PollOutcome int

const (
	PollResolved PollOutcome = iota + 1
	PollTimedOut
	PollCancelled
	PollErrored
)

func (o PollOutcome) String() string {
	switch o {
	case PollResolved:
		return "resolved"
	case PollTimedOut:
		return "timed_out"
	case PollCancelled:
		return "cancelled"
	case PollErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// PollResult carries the session on PollResolved and the cause otherwise
type PollResult struct {
	Outcome PollOutcome
	Session *core.Session
	Err     error
}

// Poller checks a pairing request until it reaches a terminal outcome
type Poller struct {
	client   ports.PairingClient
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	// onFetch observes every status fetch: "pending", "signed" or "error"
	onFetch func(result string)
}

// NewPoller creates a poller; non-positive durations fall back to the defaults
func NewPoller(client ports.PairingClient, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &Poller{
		client:   client,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Poll fetches the status immediately and then once per interval until the
// request is signed, rejected, fails, exceeds the timeout, or ctx is cancelled.
//
// A single ticker drives the run. The elapsed time is checked on every tick and
// the in-flight fetch carries the ceiling as its deadline, so a slow call
// cannot hold the run past the timeout. Once ctx is cancelled the outcome is
// always PollCancelled, whatever a late fetch returns.
func (p *Poller) Poll(ctx context.Context, requestID string) PollResult {
	deadline := p.now().Add(p.timeout)
	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if result, done := p.check(ctx, pollCtx, requestID, deadline); done {
			return result
		}

		select {
		case <-ctx.Done():
			return PollResult{Outcome: PollCancelled}
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return PollResult{Outcome: PollCancelled}
			}
			return PollResult{Outcome: PollTimedOut, Err: core.ErrTimeout}
		case <-ticker.C:
		}
	}
}

func (p *Poller) check(ctx, pollCtx context.Context, requestID string, deadline time.Time) (PollResult, bool) {
	if ctx.Err() != nil {
		return PollResult{Outcome: PollCancelled}, true
	}
	if !p.now().Before(deadline) {
		return PollResult{Outcome: PollTimedOut, Err: core.ErrTimeout}, true
	}

	status, err := p.client.FetchStatus(pollCtx, requestID)

	// the owner gave up while the call was in flight; drop whatever came back
	if ctx.Err() != nil {
		return PollResult{Outcome: PollCancelled}, true
	}

	if err != nil {
		p.observe("error")
		if pollCtx.Err() != nil {
			return PollResult{Outcome: PollTimedOut, Err: core.ErrTimeout}, true
		}
		return PollResult{Outcome: PollErrored, Err: fmt.Errorf("status fetch failed: %w", err)}, true
	}

	switch {
	case status.Signed:
		p.observe("signed")
		if status.WalletAddress == "" {
			return PollResult{Outcome: PollErrored, Err: core.ErrAccountMissing}, true
		}
		return PollResult{
			Outcome: PollResolved,
			Session: &core.Session{
				WalletAddress: status.WalletAddress,
				AuthToken:     status.AuthToken,
			},
		}, true
	case status.Expired:
		p.observe("expired")
		return PollResult{Outcome: PollTimedOut, Err: core.ErrRequestExpired}, true
	case status.Cancelled, status.Resolved:
		p.observe("rejected")
		return PollResult{Outcome: PollErrored, Err: core.ErrRejected}, true
	}

	p.observe("pending")
	return PollResult{}, false
}

func (p *Poller) observe(result string) {
	if p.onFetch != nil {
		p.onFetch(result)
	}
}
