package auth

import (
	"errors"
	"time"
)

// SessionState 表示 session 生命週期狀態，落庫值沿用西班牙文。
type SessionState string

const (
	StateActive  SessionState = "ACTIVA"
	StateExpired SessionState = "EXPIRADA"
	StateClosed  SessionState = "CERRADA"
)

// Session 代表一次已登入的工作階段，TokenHash 為 token 的 SHA-256 指紋。
type Session struct {
	ID           int64
	UserID       int64
	TokenHash    string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastActivity time.Time
	State        SessionState
	DeviceID     string
	DeviceName   string
}

// NewSession 建立 ACTIVA 狀態的 session，ID 由儲存層於持久化時指派。
func NewSession(userID int64, tokenHash, ip, userAgent string, now, expiresAt time.Time) (Session, error) {
	if userID <= 0 {
		return Session{}, errors.New("session requires a user id")
	}
	if tokenHash == "" {
		return Session{}, errors.New("session requires a token hash")
	}
	if !expiresAt.After(now) {
		return Session{}, errors.New("session expiry must be in the future")
	}
	return Session{
		UserID:       userID,
		TokenHash:    tokenHash,
		IPAddress:    ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		LastActivity: now,
		State:        StateActive,
	}, nil
}

// Expired 檢查 session 是否已過期；到期瞬間即視為過期。
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Usable 檢查 session 是否仍可驗證通過：必須為 ACTIVA 且未過期。
func (s Session) Usable(now time.Time) bool {
	return s.State == StateActive && !s.Expired(now)
}

// Close 將 session 關閉。CERRADA 與 EXPIRADA 為終態，不可重複轉移。
func (s *Session) Close(now time.Time) error {
	if s.State != StateActive {
		return ErrSessionNotActive
	}
	s.State = StateClosed
	s.LastActivity = now
	return nil
}

// MarkExpired 將逾期仍標記 ACTIVA 的 session 轉為 EXPIRADA。
func (s *Session) MarkExpired() error {
	if s.State != StateActive {
		return ErrSessionNotActive
	}
	s.State = StateExpired
	return nil
}

// Touch 更新最後活動時間，僅允許可用的 session。
func (s *Session) Touch(now time.Time) error {
	if !s.Usable(now) {
		return ErrSessionNotActive
	}
	s.LastActivity = now
	return nil
}

// RemainingMinutes 回傳距離到期的整數分鐘數，已過期回傳 0。
func (s Session) RemainingMinutes(now time.Time) int {
	if s.Expired(now) {
		return 0
	}
	return int(s.ExpiresAt.Sub(now) / time.Minute)
}
