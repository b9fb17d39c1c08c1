package server

import "github.com/mohammad-safakhou/askweb/models"

// HTTPError is the JSON error envelope all handlers return.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest creates a new account.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest exchanges credentials for a token.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the signed JWT for Bearer flows.
type TokenResponse struct {
	Token string `json:"token"`
}

// ChatRequest starts or continues a conversation. The caller supplies the
// full ordered history, ending with the new user message. For a new
// conversation the generated id is announced on the event stream before any
// answer content.
type ChatRequest struct {
	ConversationID    string           `json:"conversation_id,omitempty"`
	IsNewConversation bool             `json:"is_new_conversation,omitempty"`
	Messages          []models.Message `json:"messages"`
}
