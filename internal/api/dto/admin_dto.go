package dto

import "time"

// LoginRequest authenticates an administrator with the shared secret.
type LoginRequest struct {
	Secret string `json:"secret"`
}

// LoginResponse returns the session token for the issuance API.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueTicketRequest creates a new access ticket. Limits maps category
// names to request caps; Days is the ticket lifetime (0 means default).
type IssueTicketRequest struct {
	Limits map[string]int `json:"limits"`
	Days   int            `json:"days"`
}

// IssueTicketResponse returns the freshly issued key.
type IssueTicketResponse struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// UpdateStatusRequest changes a ticket's lifecycle state.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// StatusResponse acknowledges a state change.
type StatusResponse struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}
