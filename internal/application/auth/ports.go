package auth

import (
	"context"
	"time"

	"admin-backend/internal/domain/auth"
)

// UserRepository 存取使用者。
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (auth.User, error)
	FindWithDetailsByID(ctx context.Context, id int64) (auth.UserDetails, error)
}

// SessionRepository 存取 session。Save 於首次持久化時指派 ID。
type SessionRepository interface {
	Save(ctx context.Context, s auth.Session) (auth.Session, error)
	FindByID(ctx context.Context, id int64) (auth.Session, error)
	CountActiveForUser(ctx context.Context, userID int64, now time.Time) (int, error)
	CloseOldestForUser(ctx context.Context, userID int64, now time.Time) error
	Close(ctx context.Context, id int64, now time.Time) error
}

// PasswordHasher 驗證密碼。
type PasswordHasher interface {
	Compare(hashed, plain string) bool
}

// TokenCodec 簽發/驗證 session token。
type TokenCodec interface {
	Mint(userID, sessionID int64, username string) (token string, expiresAt time.Time, err error)
	Verify(token string) (auth.TokenClaims, error)
	ExtractFromHeader(header string) (string, error)
	PeekExpiry(token string) (time.Time, error)
	Fingerprint(token string) string
}

// RevocationList 為已登出 token 的指紋名單。
type RevocationList interface {
	Add(fingerprint string, sessionExpiry time.Time, reason string)
	Contains(fingerprint string) bool
}
