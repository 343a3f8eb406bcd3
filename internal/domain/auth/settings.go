package auth

import (
	"fmt"
	"time"
)

// 設定值的合法範圍。
const (
	minSecretLength    = 32
	minSessionMinutes  = 1
	maxSessionMinutes  = 1440
	minSessionsPerUser = 1
	maxSessionsPerUser = 10
	minRetentionHours  = 1
	maxRetentionHours  = 168
)

// Settings 為驗證過的認證設定值物件，僅能經由 NewSettings 建立。
type Settings struct {
	secret         string
	sessionMinutes int
	maxSessions    int
	retentionHours int
}

// NewSettings 驗證並建立 Settings，任何一項超出範圍即失敗。
func NewSettings(secret string, sessionMinutes, maxSessions, retentionHours int) (Settings, error) {
	if len(secret) < minSecretLength {
		return Settings{}, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if sessionMinutes < minSessionMinutes || sessionMinutes > maxSessionMinutes {
		return Settings{}, fmt.Errorf("session duration must be between %d and %d minutes", minSessionMinutes, maxSessionMinutes)
	}
	if maxSessions < minSessionsPerUser || maxSessions > maxSessionsPerUser {
		return Settings{}, fmt.Errorf("max sessions per user must be between %d and %d", minSessionsPerUser, maxSessionsPerUser)
	}
	if retentionHours < minRetentionHours || retentionHours > maxRetentionHours {
		return Settings{}, fmt.Errorf("blacklist retention must be between %d and %d hours", minRetentionHours, maxRetentionHours)
	}
	return Settings{
		secret:         secret,
		sessionMinutes: sessionMinutes,
		maxSessions:    maxSessions,
		retentionHours: retentionHours,
	}, nil
}

// Secret 回傳簽章密鑰。
func (s Settings) Secret() string { return s.secret }

// SessionDuration 回傳 session 存活時間。
func (s Settings) SessionDuration() time.Duration {
	return time.Duration(s.sessionMinutes) * time.Minute
}

// MaxSessions 回傳單一使用者可同時持有的 session 上限。
func (s Settings) MaxSessions() int { return s.maxSessions }

// BlacklistRetention 回傳撤銷名單的最短保留時間。
func (s Settings) BlacklistRetention() time.Duration {
	return time.Duration(s.retentionHours) * time.Hour
}
