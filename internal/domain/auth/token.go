package auth

import "time"

// TokenClaims 為 session token 解出的內容。
type TokenClaims struct {
	UserID    int64
	SessionID int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
