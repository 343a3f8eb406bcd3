package authinfra

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"admin-backend/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec 簽發與驗證 session token（HS256 JWT）。
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec 建立 codec，ttl 為 token 存活時間。
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// jwtClaims 定義 token 的 wire payload。
type jwtClaims struct {
	UserID    int64  `json:"userId"`
	SessionID int64  `json:"sessionId"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// Mint 簽發內嵌 session ID 的 token，回傳 token 與到期時間。
func (c *TokenCodec) Mint(userID, sessionID int64, username string) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.ttl)
	claims := jwtClaims{
		UserID:    userID,
		SessionID: sessionID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify 驗證簽章與時效，過期與其他錯誤分開回報。
// 到期瞬間（exp == now）視為過期。
func (c *TokenCodec) Verify(token string) (auth.TokenClaims, error) {
	var claims jwtClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.TokenClaims{}, auth.ErrTokenExpired
		}
		return auth.TokenClaims{}, auth.ErrTokenInvalid
	}
	if !tkn.Valid {
		return auth.TokenClaims{}, auth.ErrTokenInvalid
	}
	return claims.domain(), nil
}

// ExtractFromHeader 由 Authorization 標頭取出 token。
// 僅接受「Bearer <token>」：恰為兩段、scheme 完全相符、token 去空白後非空。
func (c *TokenCodec) ExtractFromHeader(header string) (string, error) {
	if header == "" {
		return "", auth.ErrTokenInvalid
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", auth.ErrTokenInvalid
	}
	if parts[0] != "Bearer" {
		return "", auth.ErrTokenInvalid
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", auth.ErrTokenInvalid
	}
	return token, nil
}

// PeekExpiry 不驗證簽章，僅解出到期時間。用於登出時決定黑名單保留期。
func (c *TokenCodec) PeekExpiry(token string) (time.Time, error) {
	var claims jwtClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, auth.ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, auth.ErrTokenInvalid
	}
	return claims.ExpiresAt.Time, nil
}

// Fingerprint 計算 token 的 SHA-256 指紋（hex）。
func (c *TokenCodec) Fingerprint(token string) string {
	return Fingerprint(token)
}

// Fingerprint 計算任意 token 的 SHA-256 指紋（hex）。
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (c jwtClaims) domain() auth.TokenClaims {
	out := auth.TokenClaims{
		UserID:    c.UserID,
		SessionID: c.SessionID,
		Username:  c.Username,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
