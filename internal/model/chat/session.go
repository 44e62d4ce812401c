package chat

// Session is an opaque correlation token with no server-side record.
type Session struct {
	ID string `json:"sessionId"`
}

// Request is the wire shape for a chat exchange.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Response mirrors Request on the way back; Message is HTML.
type Response struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}
