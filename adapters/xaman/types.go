package xaman

// signInPayload is the body that asks the wallet to sign in
type signInPayload struct {
	TxJSON struct {
		TransactionType string `json:"TransactionType"`
	} `json:"txjson"`
}

func newSignInPayload() signInPayload {
	var p signInPayload
	p.TxJSON.TransactionType = "SignIn"
	return p
}

// createdPayload is the custodian's answer to a payload creation
type createdPayload struct {
	UUID string `json:"uuid"`
	Next struct {
		Always string `json:"always"`
	} `json:"next"`
	Refs struct {
		QRPNG           string `json:"qr_png"`
		QRURI           string `json:"qr_uri"`
		WebsocketStatus string `json:"websocket_status"`
	} `json:"refs"`
	Pushed bool `json:"pushed"`
}

// payloadStatus is the subset of the payload document the poller needs
type payloadStatus struct {
	Meta struct {
		UUID      string `json:"uuid"`
		Exists    bool   `json:"exists"`
		Resolved  bool   `json:"resolved"`
		Signed    bool   `json:"signed"`
		Cancelled bool   `json:"cancelled"`
		Expired   bool   `json:"expired"`
	} `json:"meta"`
	Application struct {
		IssuedUserToken string `json:"issued_user_token"`
	} `json:"application"`
	Response struct {
		Account string `json:"account"`
		TxID    string `json:"txid"`
	} `json:"response"`
}

type errorBody struct {
	Error struct {
		Reference string `json:"reference"`
		Code      int    `json:"code"`
		Message   string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}
