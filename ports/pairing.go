package ports

import (
	"context"

	"github.com/layer-3/xamanauth/core"
)

// PairingClient talks to the wallet custodian
type PairingClient interface {
	// Configured reports whether an API credential is present
	Configured() bool
	CreateSignInRequest(ctx context.Context) (core.PairingRequest, error)
	FetchStatus(ctx context.Context, requestID string) (core.StatusResult, error)
}
