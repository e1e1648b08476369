package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/layer-3/xamanauth/core"
)

type statusReply struct {
	status core.StatusResult
	err    error
}

// fakeClient is a scripted pairing client. Status replies are consumed in
// order per request id; the last one repeats.
type fakeClient struct {
	mu         sync.Mutex
	configured bool
	createFn   func(ctx context.Context, n int) (core.PairingRequest, error)
	fetchFn    func(ctx context.Context, requestID string, n int) (core.StatusResult, error)
	replies    map[string][]statusReply
	creates    int
	fetches    map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		configured: true,
		replies:    make(map[string][]statusReply),
		fetches:    make(map[string]int),
	}
}

func (f *fakeClient) script(requestID string, replies ...statusReply) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[requestID] = replies
	return f
}

func (f *fakeClient) Configured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

func (f *fakeClient) CreateSignInRequest(ctx context.Context) (core.PairingRequest, error) {
	f.mu.Lock()
	f.creates++
	n := f.creates
	fn := f.createFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, n)
	}
	return core.PairingRequest{RequestID: "abc", QRImageRef: "img://x", DeepLink: "link://y"}, nil
}

func (f *fakeClient) FetchStatus(ctx context.Context, requestID string) (core.StatusResult, error) {
	f.mu.Lock()
	f.fetches[requestID]++
	n := f.fetches[requestID]
	fn := f.fetchFn
	replies := f.replies[requestID]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, requestID, n)
	}
	if len(replies) == 0 {
		return core.StatusResult{}, fmt.Errorf("%w: no scripted reply for %s", core.ErrService, requestID)
	}
	idx := n - 1
	if idx >= len(replies) {
		idx = len(replies) - 1
	}
	return replies[idx].status, replies[idx].err
}

func (f *fakeClient) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeClient) fetchCount(requestID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[requestID]
}

func pending() statusReply {
	return statusReply{}
}

func signed(address, token string) statusReply {
	return statusReply{status: core.StatusResult{Signed: true, Resolved: true, WalletAddress: address, AuthToken: token}}
}

type recordedEvent struct {
	kind    string
	address string
	attempt string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) PublishConnected(ctx context.Context, address string, attemptID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "connected", address: address, attempt: attemptID})
	return nil
}

func (p *fakePublisher) PublishDisconnected(ctx context.Context, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "disconnected", address: address})
	return nil
}

func (p *fakePublisher) recorded() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}
