package xamanauth

import (
	"context"

	"github.com/layer-3/xamanauth/core"
)

// Client represents the public interface for pairing a Xaman wallet
type Client interface {
	// State returns a snapshot of the pairing state
	State() core.AuthState

	// Subscribe streams state changes until the returned func is called
	Subscribe() (<-chan core.AuthState, func())

	// Connect starts a sign-in request; the QR code arrives through State
	Connect(ctx context.Context) error

	// CancelConnection abandons an outstanding sign-in request
	CancelConnection()

	// Disconnect forgets the connected wallet
	Disconnect(ctx context.Context) error
}
