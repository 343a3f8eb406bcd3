package auth

import "errors"

// 登入/登出流程使用的哨兵錯誤。
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotActive   = errors.New("session is not active")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// ValidationReason 為驗證失敗原因代碼，沿用西班牙文線格式。
type ValidationReason string

const (
	ReasonTokenExpired    ValidationReason = "TOKEN_EXPIRADO"
	ReasonTokenInvalid    ValidationReason = "TOKEN_INVALIDO"
	ReasonTokenRevoked    ValidationReason = "TOKEN_INVALIDADO"
	ReasonSessionNotFound ValidationReason = "SESION_NO_ENCONTRADA"
	ReasonHashMismatch    ValidationReason = "TOKEN_HASH_INVALIDO"
	ReasonSessionUnusable ValidationReason = "SESION_NO_USABLE"
	ReasonUserNotFound    ValidationReason = "USUARIO_NO_ENCONTRADO"
	ReasonUserInactive    ValidationReason = "USUARIO_INACTIVO"
	ReasonUserBlocked     ValidationReason = "USUARIO_BLOQUEADO"
	ReasonInternalError   ValidationReason = "ERROR_INTERNO"
)
