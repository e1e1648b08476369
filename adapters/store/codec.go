package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/logging"
)

// DefaultKey is the fixed identifier the session record is stored under
const DefaultKey = "xaman_session"

func encodeSession(session core.Session) ([]byte, error) {
	if strings.TrimSpace(session.WalletAddress) == "" {
		return nil, fmt.Errorf("wallet address is required: %w", core.ErrMalformedSession)
	}
	return json.Marshal(session)
}

func decodeSession(data []byte) (*core.Session, error) {
	var session *core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedSession, err)
	}
	if session == nil || strings.TrimSpace(session.WalletAddress) == "" {
		return nil, core.ErrMalformedSession
	}
	return session, nil
}

// restoreRecord decodes a raw record and discards it when it does not parse
func restoreRecord(ctx context.Context, data []byte, discard func(context.Context) error) (*core.Session, error) {
	session, err := decodeSession(data)
	if err == nil {
		return session, nil
	}

	logging.WarnContext(ctx, "discarding malformed session record", logging.Component("store"), logging.Err(err))
	if err := discard(ctx); err != nil {
		return nil, fmt.Errorf("failed to discard malformed session: %w", err)
	}
	return nil, nil
}
