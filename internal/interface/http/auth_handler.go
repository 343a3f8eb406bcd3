package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	appauth "admin-backend/internal/application/auth"
	"admin-backend/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		DeviceID   string `json:"deviceId"`
		DeviceName string `json:"deviceName"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cuerpo de solicitud invalido", "error_code": errCodeBadRequest})
		return
	}

	ip := clientIP(c)
	ua := c.Request.UserAgent()
	if body.DeviceName == "" {
		body.DeviceName = deviceNameFromUA(ua)
	}
	if body.DeviceID == "" {
		body.DeviceID = fallbackDeviceID(ua, ip)
	}

	res, err := s.loginUC.Execute(c.Request.Context(), appauth.LoginInput{
		Username:   body.Username,
		Password:   body.Password,
		IP:         ip,
		UserAgent:  ua,
		DeviceID:   body.DeviceID,
		DeviceName: body.DeviceName,
	})
	if err != nil {
		status, code, msg := loginError(err)
		s.log.Warn("login rejected",
			zap.String("username", body.Username),
			zap.String("ip", ip),
			zap.String("error_code", code),
		)
		c.JSON(status, gin.H{"success": false, "error": msg, "error_code": code})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     res.Token,
		"tokenType": "Bearer",
		"expiresAt": res.ExpiresAt.Format(time.RFC3339),
		"usuario":   res.User.Summary(),
		"sesion": gin.H{
			"id":              res.Session.ID,
			"fechaCreacion":   res.Session.CreatedAt.Format(time.RFC3339),
			"fechaExpiracion": res.Session.ExpiresAt.Format(time.RFC3339),
			"deviceId":        res.Session.DeviceID,
			"deviceName":      res.Session.DeviceName,
		},
		"mensaje": "Bienvenido, " + res.User.FullName,
	})
}

// loginError 將登入錯誤映射為 HTTP 狀態與原因代碼。
// 帳號不存在與密碼錯誤共用同一組回應。
func loginError(err error) (int, string, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "CREDENCIALES_INVALIDAS", "usuario o contrasena incorrectos"
	case errors.Is(err, auth.ErrUserInactive):
		return http.StatusForbidden, "USUARIO_INACTIVO", "el usuario esta inactivo"
	case errors.Is(err, auth.ErrUserBlocked):
		return http.StatusForbidden, "USUARIO_BLOQUEADO", "el usuario esta bloqueado"
	default:
		return http.StatusInternalServerError, errCodeInternal, "error interno"
	}
}

// handleValidateSession 固定回 200，結果由 valid/reason 表達。
func (s *Server) handleValidateSession(c *gin.Context) {
	res := s.validateUC.Execute(c.Request.Context(), c.GetHeader("Authorization"))
	if !res.Valid {
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": string(res.Reason)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"usuario": res.User.Summary(),
		"session": gin.H{
			"id":              res.Session.ID,
			"expiresAt":       res.Session.ExpiresAt.Format(time.RFC3339),
			"ultimaActividad": res.Session.LastActivity.Format(time.RFC3339),
		},
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	closedAt, err := s.logoutUC.Execute(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		status, code := logoutError(err)
		s.log.Warn("logout rejected", zap.String("error_code", code), zap.Error(err))
		c.JSON(status, gin.H{"success": false, "error": "no se pudo cerrar la sesion", "error_code": code})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"mensaje":     "Sesión cerrada exitosamente",
		"fechaCierre": closedAt.Format(time.RFC3339),
	})
}

func logoutError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, string(auth.ReasonTokenExpired)
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, string(auth.ReasonTokenInvalid)
	case errors.Is(err, auth.ErrSessionNotFound):
		return http.StatusNotFound, string(auth.ReasonSessionNotFound)
	default:
		return http.StatusInternalServerError, errCodeInternal
	}
}

// handleMe 與 validate-session 共用驗證流程，額外附上剩餘時間。
func (s *Server) handleMe(c *gin.Context) {
	res := s.validateUC.Execute(c.Request.Context(), c.GetHeader("Authorization"))
	if !res.Valid {
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": string(res.Reason)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"usuario": res.User.Summary(),
		"session": gin.H{
			"expiresAt":      res.Session.ExpiresAt.Format(time.RFC3339),
			"tiempoRestante": fmt.Sprintf("%d minutos", res.Session.RemainingMinutes(time.Now())),
		},
	})
}
