// Package queue defines message payloads exchanged over the message broker.
package queue

// SessionIssuedEvent is published after a successful login or refresh.
// It gives downstream consumers (audit log, anomaly detection) enough
// context without querying the primary database.  It never carries
// token material, only expiry metadata.
type SessionIssuedEvent struct {
	UserID           uint64 `json:"user_id"`
	Email            string `json:"email"`
	IssuedAt         string `json:"issued_at"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
	SourceIP         string `json:"source_ip,omitempty"`
}

// SessionRevokedEvent is published when a user's live tokens are swept
// (logout, or implicitly by a new login replacing the old pair).
type SessionRevokedEvent struct {
	UserID    uint64 `json:"user_id"`
	RevokedAt string `json:"revoked_at"`
	Reason    string `json:"reason"` // "logout" | "reissue"
	SourceIP  string `json:"source_ip,omitempty"`
}
