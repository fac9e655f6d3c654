package models

// AnonymousDevice is the caller identity used when authentication is disabled.
const AnonymousDevice = "anonymous"

// Claims represents JWT claims
type Claims struct {
	DeviceID string `json:"device_id"`
	Exp      int64  `json:"exp"`
}

// TokenRequest represents a device token request
type TokenRequest struct {
	DeviceID string `json:"device_id"`
	Passcode string `json:"passcode"`
}

// TokenResponse represents a successfully issued token
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
