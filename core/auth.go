package core

// PairingRequest is one sign-in attempt registered at the wallet custodian
type PairingRequest struct {
	RequestID  string // Opaque payload identifier
	QRImageRef string // URI of the QR image to scan
	DeepLink   string // URI that opens the wallet app directly
}

// Session is the locally persisted proof of a completed wallet login
type Session struct {
	WalletAddress string `json:"walletAddress"`
	AuthToken     string `json:"authToken,omitempty"`
}

// StatusResult is the outcome of a single status fetch for a pairing request
type StatusResult struct {
	Signed        bool   // The user signed the request in the wallet app
	Resolved      bool   // The request reached a final state (signed or rejected)
	Expired       bool   // The custodian expired the request
	Cancelled     bool   // The request was cancelled at the custodian
	WalletAddress string // Account that signed, when available
	AuthToken     string // Push token issued for the account, when available
}

// AuthState is the externally observable state of the pairing flow
type AuthState struct {
	Connecting bool
	Connected  bool
	Session    *Session
	QRCode     string
	DeepLink   string
	Error      string
}

// View is the shape the presentation layer consumes
type View struct {
	IsConnecting  bool    `json:"isConnecting"`
	IsConnected   bool    `json:"isConnected"`
	WalletAddress *string `json:"walletAddress"`
	UserToken     *string `json:"userToken"`
	Error         *string `json:"error"`
	QRCode        *string `json:"qrCode"`
	DeepLink      *string `json:"deepLink"`
}

// View renders the state for the presentation boundary. Empty strings become nulls.
func (s AuthState) View() View {
	v := View{
		IsConnecting: s.Connecting,
		IsConnected:  s.Connected,
		Error:        optional(s.Error),
		QRCode:       optional(s.QRCode),
		DeepLink:     optional(s.DeepLink),
	}
	if s.Session != nil {
		v.WalletAddress = optional(s.Session.WalletAddress)
		v.UserToken = optional(s.Session.AuthToken)
	}
	return v
}

// Clone returns a copy that does not share the session pointer
func (s AuthState) Clone() AuthState {
	if s.Session != nil {
		session := *s.Session
		s.Session = &session
	}
	return s
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
