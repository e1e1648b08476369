package ports

import (
	"time"

	"github.com/layer-3/xamanauth/core"
)

// AccessClaims is the decoded content of a site access token
type AccessClaims struct {
	ID        string
	Address   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Tokenizer converts a connected wallet session into site access tokens
type Tokenizer interface {
	SessionToAccessToken(session core.Session, ttl time.Duration) (string, error)
	AccessTokenToClaims(token string) (*AccessClaims, error)
}
