package auth

import (
	"context"
	"errors"
	"time"

	"admin-backend/internal/domain/auth"

	"go.uber.org/zap"
)

// ValidateUseCase 驗證 Authorization 標頭對應的 session。
// Execute 永不回傳錯誤，所有失敗都收斂成帶原因代碼的結果。
type ValidateUseCase struct {
	users    UserRepository
	sessions SessionRepository
	tokens   TokenCodec
	revoked  RevocationList
	now      func() time.Time
	log      *zap.Logger
}

func NewValidateUseCase(users UserRepository, sessions SessionRepository, tokens TokenCodec, revoked RevocationList, log *zap.Logger) *ValidateUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ValidateUseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		revoked:  revoked,
		now:      time.Now,
		log:      log,
	}
}

// ValidateResult 為驗證結果；Valid 為 false 時 Reason 必填。
type ValidateResult struct {
	Valid   bool
	Session auth.Session
	User    auth.UserDetails
	Reason  auth.ValidationReason
}

func failed(reason auth.ValidationReason) ValidateResult {
	return ValidateResult{Valid: false, Reason: reason}
}

// Execute 依序檢查：標頭格式、簽章時效、黑名單、session、指紋、
// session 可用性、使用者狀態。黑名單一定先於 session 查詢，
// 已登出的 token 不碰儲存層。
func (uc *ValidateUseCase) Execute(ctx context.Context, header string) (out ValidateResult) {
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error("session validation panicked", zap.Any("panic", r))
			out = failed(auth.ReasonInternalError)
		}
	}()

	token, err := uc.tokens.ExtractFromHeader(header)
	if err != nil {
		return failed(auth.ReasonTokenInvalid)
	}

	claims, err := uc.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return failed(auth.ReasonTokenExpired)
		}
		return failed(auth.ReasonTokenInvalid)
	}

	fingerprint := uc.tokens.Fingerprint(token)
	if uc.revoked.Contains(fingerprint) {
		return failed(auth.ReasonTokenRevoked)
	}

	sess, err := uc.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return failed(auth.ReasonSessionNotFound)
		}
		uc.log.Error("session lookup failed", zap.Error(err))
		return failed(auth.ReasonInternalError)
	}

	if sess.TokenHash != fingerprint {
		return failed(auth.ReasonHashMismatch)
	}

	now := uc.now()
	if !sess.Usable(now) {
		// 逾期但仍標記 ACTIVA 的 session 順手轉為 EXPIRADA。
		if sess.State == auth.StateActive && sess.Expired(now) {
			if err := sess.MarkExpired(); err == nil {
				if _, err := uc.sessions.Save(ctx, sess); err != nil {
					uc.log.Warn("failed to persist expired state", zap.Error(err))
				}
			}
		}
		return failed(auth.ReasonSessionUnusable)
	}

	user, err := uc.users.FindWithDetailsByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return failed(auth.ReasonUserNotFound)
		}
		uc.log.Error("user lookup failed", zap.Error(err))
		return failed(auth.ReasonInternalError)
	}
	if !user.Active {
		return failed(auth.ReasonUserInactive)
	}
	if user.Blocked {
		return failed(auth.ReasonUserBlocked)
	}

	if err := sess.Touch(now); err == nil {
		if sess, err = uc.sessions.Save(ctx, sess); err != nil {
			uc.log.Error("failed to refresh session activity", zap.Error(err))
			return failed(auth.ReasonInternalError)
		}
	}

	return ValidateResult{Valid: true, Session: sess, User: user}
}
