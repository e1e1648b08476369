package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/xamanauth"
	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/logging"
	"github.com/layer-3/xamanauth/metrics"
	"github.com/layer-3/xamanauth/ports"
)

// Messages shown to the user in place of the QR code
const (
	MsgNotConfigured  = "Xaman API key not configured. Please contact support."
	MsgCreateFailed   = "Failed to create Xaman payload"
	MsgConnectFailed  = "Failed to connect wallet"
	MsgPollFailed     = "Connection timeout. Please try again."
	MsgExpired        = "Connection request expired. Please try again."
	MsgAccountMissing = "Signed request did not include a wallet address."
	MsgRejected       = "Sign-in was rejected in Xaman."
)

// ErrControllerClosed is returned by Connect after Close
var ErrControllerClosed = errors.New("auth controller closed")

const storeTimeout = 10 * time.Second

// attempt is one outstanding connect call
type attempt struct {
	id      string
	cancel  context.CancelFunc
	started time.Time
}

// AuthController owns the wallet pairing state and drives the poller
type AuthController struct {
	store   ports.SessionStore
	client  ports.PairingClient
	events  ports.EventPublisher
	metrics *metrics.PairingMetrics
	poller  *Poller
	logger  *slog.Logger

	pollInterval time.Duration
	pollTimeout  time.Duration

	mu          sync.Mutex
	state       core.AuthState
	attempt     *attempt
	subscribers map[int]chan core.AuthState
	nextSubID   int
	closed      bool
	wg          sync.WaitGroup
}

var _ xamanauth.Client = (*AuthController)(nil)

// Option customizes an AuthController
type Option func(*AuthController)

// WithEventPublisher publishes connect and disconnect events
func WithEventPublisher(events ports.EventPublisher) Option {
	return func(c *AuthController) { c.events = events }
}

// WithMetrics records pairing metrics
func WithMetrics(m *metrics.PairingMetrics) Option {
	return func(c *AuthController) { c.metrics = m }
}

// WithPollInterval overrides the 2s status cadence
func WithPollInterval(d time.Duration) Option {
	return func(c *AuthController) { c.pollInterval = d }
}

// WithPollTimeout overrides the 5 minute pairing ceiling
func WithPollTimeout(d time.Duration) Option {
	return func(c *AuthController) { c.pollTimeout = d }
}

// NewAuthController creates a controller and seeds its state from the store
func NewAuthController(ctx context.Context, store ports.SessionStore, client ports.PairingClient, opts ...Option) *AuthController {
	c := &AuthController{
		store:        store,
		client:       client,
		logger:       logging.With(logging.Component("auth_controller")),
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
		subscribers:  make(map[int]chan core.AuthState),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.poller = NewPoller(client, c.pollInterval, c.pollTimeout)
	c.poller.onFetch = c.metrics.RecordPoll

	session, err := store.Restore(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "session restore failed, starting disconnected", logging.Err(err))
	}
	if session != nil {
		c.state = core.AuthState{Connected: true, Session: session}
		c.logger.InfoContext(ctx, "restored wallet session", logging.Wallet(session.WalletAddress))
	}
	c.metrics.SetConnected(c.state.Connected)

	return c
}

// State returns a snapshot of the current state
func (c *AuthController) State() core.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe returns a channel that receives the current state and then every
// change. Only the latest state is buffered; slow readers skip intermediate ones.
func (c *AuthController) Subscribe() (<-chan core.AuthState, func()) {
	ch := make(chan core.AuthState, 1)

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	ch <- c.state.Clone()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(ch)
			}
		})
	}
}

// Connect starts a new pairing attempt. An attempt still in progress is
// superseded. Errors are also reflected in State().Error.
func (c *AuthController) Connect(ctx context.Context) error {
	if !c.client.Configured() {
		c.mu.Lock()
		c.state.Error = MsgNotConfigured
		c.publishLocked()
		c.mu.Unlock()
		return core.ErrNotConfigured
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	if c.state.Connected {
		c.mu.Unlock()
		return core.ErrAlreadyConnected
	}
	if prev := c.attempt; prev != nil {
		c.logger.Info("superseding pairing attempt", logging.Attempt(prev.id))
		c.stopAttemptLocked(metrics.OutcomeSuperseded)
	}

	attemptCtx, cancel := context.WithCancel(context.Background())
	att := &attempt{
		id:      uuid.New().String(),
		cancel:  cancel,
		started: time.Now(),
	}
	c.attempt = att
	c.state.Connecting = true
	c.state.Error = ""
	c.state.QRCode = ""
	c.state.DeepLink = ""
	c.publishLocked()
	c.mu.Unlock()

	log := c.logger.With(logging.Attempt(att.id))
	log.InfoContext(ctx, "creating sign-in request")

	createCtx, cancelCreate := context.WithCancel(ctx)
	stop := context.AfterFunc(attemptCtx, cancelCreate)
	req, err := c.client.CreateSignInRequest(createCtx)
	stop()
	cancelCreate()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != att {
		// cancelled or superseded while the request was being created
		log.InfoContext(ctx, "discarding sign-in request of abandoned attempt")
		return nil
	}

	if err != nil {
		c.attempt = nil
		cancel()
		c.state.Connecting = false
		c.state.Error = createFailureMessage(err)
		c.publishLocked()
		c.metrics.RecordOutcome(metrics.OutcomeCreateFail, time.Since(att.started))
		log.WarnContext(ctx, "sign-in request failed", logging.Err(err))
		return fmt.Errorf("failed to create sign-in request: %w", err)
	}

	c.state.QRCode = req.QRImageRef
	c.state.DeepLink = req.DeepLink
	c.publishLocked()

	c.wg.Add(1)
	go c.run(attemptCtx, att, req.RequestID)

	return nil
}

// CancelConnection abandons the outstanding attempt. A connected session is kept.
func (c *AuthController) CancelConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != nil {
		c.logger.Info("pairing attempt cancelled", logging.Attempt(c.attempt.id))
		c.stopAttemptLocked(metrics.OutcomeCancelled)
	}
	c.state.Connecting = false
	c.state.QRCode = ""
	c.state.DeepLink = ""
	c.state.Error = ""
	c.publishLocked()
}

// Disconnect clears the persisted session and resets the state. Calling it
// while already disconnected leaves the state unchanged.
func (c *AuthController) Disconnect(ctx context.Context) error {
	c.mu.Lock()

	active := c.attempt != nil || c.state.Session != nil
	if c.attempt != nil {
		c.stopAttemptLocked(metrics.OutcomeCancelled)
	}
	prev := c.state.Session
	clearErr := c.store.Clear(ctx)

	// a disconnected controller keeps its state, including a leftover error
	if active {
		c.state = core.AuthState{}
		c.publishLocked()
	}
	c.mu.Unlock()

	if prev != nil {
		c.logger.InfoContext(ctx, "wallet disconnected", logging.Wallet(prev.WalletAddress))
		c.metrics.RecordDisconnect()
		c.metrics.SetConnected(false)
		if c.events != nil {
			if err := c.events.PublishDisconnected(ctx, prev.WalletAddress); err != nil {
				c.logger.WarnContext(ctx, "failed to publish disconnect event", logging.Err(err))
			}
		}
	}

	if clearErr != nil {
		c.logger.WarnContext(ctx, "failed to clear persisted session", logging.Err(clearErr))
		return fmt.Errorf("failed to clear session: %w", clearErr)
	}
	return nil
}

// Close stops any running poller and waits for it to exit
func (c *AuthController) Close() {
	c.mu.Lock()
	c.closed = true
	if c.attempt != nil {
		c.stopAttemptLocked(metrics.OutcomeCancelled)
	}
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}

func (c *AuthController) run(ctx context.Context, att *attempt, requestID string) {
	defer c.wg.Done()

	result := c.poller.Poll(ctx, requestID)
	if session := c.finish(att, result); session != nil && c.events != nil {
		pubCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := c.events.PublishConnected(pubCtx, session.WalletAddress, att.id); err != nil {
			c.logger.Warn("failed to publish connect event", logging.Attempt(att.id), logging.Err(err))
		}
	}
}

// finish applies a poll result if its attempt is still current and returns the
// new session when the wallet got connected.
func (c *AuthController) finish(att *attempt, result PollResult) *core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger.With(logging.Attempt(att.id), slog.String("outcome", result.Outcome.String()))

	if c.attempt != att {
		log.Debug("discarding result of abandoned attempt")
		return nil
	}
	c.attempt = nil
	att.cancel()
	elapsed := time.Since(att.started)

	switch result.Outcome {
	case PollResolved:
		session := *result.Session

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := c.store.Save(ctx, session); err != nil {
			// the wallet did sign in; keep the session for this process
			log.Warn("failed to persist session", logging.Err(err))
		}

		c.state = core.AuthState{Connected: true, Session: &session}
		c.publishLocked()
		c.metrics.RecordOutcome(metrics.OutcomeResolved, elapsed)
		c.metrics.SetConnected(true)
		log.Info("wallet connected", logging.Wallet(session.WalletAddress))
		return &session

	case PollTimedOut:
		c.failLocked(MsgExpired)
		c.metrics.RecordOutcome(metrics.OutcomeTimedOut, elapsed)
		log.Info("pairing attempt expired", logging.Err(result.Err))

	case PollErrored:
		c.failLocked(pollFailureMessage(result.Err))
		c.metrics.RecordOutcome(metrics.OutcomeErrored, elapsed)
		log.Warn("pairing attempt failed", logging.Err(result.Err))

	case PollCancelled:
		// cancellation already updated the state
	}
	return nil
}

func (c *AuthController) failLocked(message string) {
	c.state.Connecting = false
	c.state.QRCode = ""
	c.state.DeepLink = ""
	c.state.Error = message
	c.publishLocked()
}

func (c *AuthController) stopAttemptLocked(outcome string) {
	att := c.attempt
	c.attempt = nil
	att.cancel()
	c.metrics.RecordOutcome(outcome, time.Since(att.started))
}

// publishLocked hands the current state to every subscriber, replacing any
// value they have not read yet. Sends never block: only this method writes to
// the channels and it runs under c.mu.
func (c *AuthController) publishLocked() {
	snapshot := c.state
	for _, ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot.Clone()
	}
}

func createFailureMessage(err error) string {
	if errors.Is(err, core.ErrService) {
		return MsgCreateFailed
	}
	return MsgConnectFailed
}

func pollFailureMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrAccountMissing):
		return MsgAccountMissing
	case errors.Is(err, core.ErrRejected):
		return MsgRejected
	default:
		return MsgPollFailed
	}
}
