package entity

import "time"

// Pair is the credential pair handed out by the token endpoint.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshSession represents a persisted refresh token.
type RefreshSession struct {
	ID        int64     `db:"id"`
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}
