package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"admin-backend/internal/domain/auth"

	"go.uber.org/zap"
)

// LoginUseCase 驗證帳密、控管 session 數量並簽發 token。
type LoginUseCase struct {
	users       UserRepository
	sessions    SessionRepository
	hasher      PasswordHasher
	tokens      TokenCodec
	maxSessions int
	duration    time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewLoginUseCase(users UserRepository, sessions SessionRepository, hasher PasswordHasher, tokens TokenCodec, settings auth.Settings, log *zap.Logger) *LoginUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoginUseCase{
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		tokens:      tokens,
		maxSessions: settings.MaxSessions(),
		duration:    settings.SessionDuration(),
		now:         time.Now,
		log:         log,
	}
}

type LoginInput struct {
	Username   string
	Password   string
	IP         string
	UserAgent  string
	DeviceID   string
	DeviceName string
}

type LoginResult struct {
	User      auth.UserDetails
	Session   auth.Session
	Token     string
	ExpiresAt time.Time
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (LoginResult, error) {
	var out LoginResult
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return out, auth.ErrInvalidCredentials
	}

	// 帳號不存在與密碼錯誤回傳同一個錯誤，不洩漏帳號是否存在。
	user, err := uc.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return out, auth.ErrInvalidCredentials
		}
		return out, fmt.Errorf("find user: %w", err)
	}
	if !uc.hasher.Compare(user.PasswordHash, input.Password) {
		return out, auth.ErrInvalidCredentials
	}
	if !user.Active {
		return out, auth.ErrUserInactive
	}
	if user.Blocked {
		return out, auth.ErrUserBlocked
	}

	now := uc.now()

	// 達到上限時關閉建立時間最早的一個（FIFO）。
	// 兩個請求同時通過檢查時可能短暫超額，屬可接受的競態。
	active, err := uc.sessions.CountActiveForUser(ctx, user.ID, now)
	if err != nil {
		return out, fmt.Errorf("count active sessions: %w", err)
	}
	if active >= uc.maxSessions {
		if err := uc.sessions.CloseOldestForUser(ctx, user.ID, now); err != nil {
			return out, fmt.Errorf("close oldest session: %w", err)
		}
		uc.log.Info("session cap reached, oldest session closed",
			zap.Int64("user_id", user.ID),
			zap.Int("active", active),
		)
	}

	// 先以佔位指紋持久化取得 session ID，token 簽發後再補寫真正指紋。
	placeholder, err := randomFingerprint()
	if err != nil {
		return out, fmt.Errorf("generate placeholder: %w", err)
	}
	sess, err := auth.NewSession(user.ID, placeholder, input.IP, input.UserAgent, now, now.Add(uc.duration))
	if err != nil {
		return out, fmt.Errorf("build session: %w", err)
	}
	sess.DeviceID = input.DeviceID
	sess.DeviceName = input.DeviceName

	sess, err = uc.sessions.Save(ctx, sess)
	if err != nil {
		return out, fmt.Errorf("save session: %w", err)
	}

	token, expiresAt, err := uc.tokens.Mint(user.ID, sess.ID, user.Username)
	if err != nil {
		return out, fmt.Errorf("mint token: %w", err)
	}

	sess.TokenHash = uc.tokens.Fingerprint(token)
	sess, err = uc.sessions.Save(ctx, sess)
	if err != nil {
		return out, fmt.Errorf("update session fingerprint: %w", err)
	}

	details, err := uc.users.FindWithDetailsByID(ctx, user.ID)
	if err != nil {
		return out, fmt.Errorf("load user details: %w", err)
	}

	uc.log.Info("login succeeded",
		zap.Int64("user_id", user.ID),
		zap.Int64("session_id", sess.ID),
	)

	out.User = details
	out.Session = sess
	out.Token = token
	out.ExpiresAt = expiresAt
	return out, nil
}

func randomFingerprint() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
