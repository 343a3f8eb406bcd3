package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admin-backend/internal/domain/auth"

	"go.uber.org/zap"
)

// LogoutUseCase 關閉 session 並將 token 指紋列入黑名單。
// 與 Validate 不同，這裡的失敗會以錯誤回傳給呼叫端。
type LogoutUseCase struct {
	sessions SessionRepository
	tokens   TokenCodec
	revoked  RevocationList
	now      func() time.Time
	log      *zap.Logger
}

func NewLogoutUseCase(sessions SessionRepository, tokens TokenCodec, revoked RevocationList, log *zap.Logger) *LogoutUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogoutUseCase{
		sessions: sessions,
		tokens:   tokens,
		revoked:  revoked,
		now:      time.Now,
		log:      log,
	}
}

// Execute 回傳 session 關閉時間。token 格式或簽章不合直接失敗。
func (uc *LogoutUseCase) Execute(ctx context.Context, header string) (time.Time, error) {
	token, err := uc.tokens.ExtractFromHeader(header)
	if err != nil {
		return time.Time{}, err
	}
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		return time.Time{}, err
	}

	sess, err := uc.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return time.Time{}, fmt.Errorf("find session: %w", err)
	}

	now := uc.now()
	if err := sess.Close(now); err != nil {
		if errors.Is(err, auth.ErrSessionNotActive) {
			return time.Time{}, auth.ErrSessionNotFound
		}
		return time.Time{}, err
	}
	if _, err := uc.sessions.Save(ctx, sess); err != nil {
		return time.Time{}, fmt.Errorf("close session: %w", err)
	}

	// 黑名單條目至少保留到 token 自然到期。讀不出到期時間時
	// 交由名單自身的保留期決定。
	expiry, err := uc.tokens.PeekExpiry(token)
	if err != nil {
		expiry = time.Time{}
	}
	uc.revoked.Add(uc.tokens.Fingerprint(token), expiry, "LOGOUT")

	uc.log.Info("logout completed",
		zap.Int64("user_id", claims.UserID),
		zap.Int64("session_id", claims.SessionID),
	)
	return now, nil
}
