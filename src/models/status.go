package models

// -----------------------------------------------------------------------------
// Wire shapes shared by the server tier and the polling client
// -----------------------------------------------------------------------------

// MProcessingStatus is the body of a 202 answer from a long-running upstream.
type MProcessingStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// MErrorBody is the single error shape returned to clients.
type MErrorBody struct {
	Error string `json:"error"`
}

type MHealth struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// MSubscribeCommand is sent by websocket clients to filter the ticker stream.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}

// MTickerFrame is one push on the ticker stream.
type MTickerFrame struct {
	Type      string        `json:"type"` // "INITIAL" or "UPDATE"
	Items     []MTickerItem `json:"items"`
	Timestamp int64         `json:"timestamp"`
}
