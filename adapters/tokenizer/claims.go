package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the wallet network
type AccessClaims struct {
	jwt.RegisteredClaims
	Network string `json:"net,omitempty"` // Ledger the address belongs to
}
