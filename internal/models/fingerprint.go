package models

// Client metadata bound to a session
// Stored as an opaque blob next to the refresh token, never compared by the core
type Fingerprint struct {
	UserAgent string `json:"user_agent"`
	IP        string `json:"ip"`
}
