package httpapi

import (
	"errors"
	"net/http"
	"time"

	"admin-backend/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultSessionListLimit = 50

type sessionItem struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"idUsuario"`
	Username        string `json:"username"`
	IPAddress       string `json:"ipAddress"`
	DeviceName      string `json:"deviceName"`
	State           string `json:"estado"`
	CreatedAt       string `json:"fechaCreacion"`
	ExpiresAt       string `json:"fechaExpiracion"`
	LastActivity    string `json:"ultimaActividad"`
	RemainingMins   int    `json:"minutosRestantes"`
}

// handleListSessions 列出 session 並補上擁有者的 username。
// 同一位使用者的查詢結果做請求內快取，避免 N 次重複查詢。
func (s *Server) handleListSessions(c *gin.Context) {
	limit := parseIntDefault(c.Query("limite"), defaultSessionListLimit)
	if limit <= 0 || limit > 500 {
		limit = defaultSessionListLimit
	}

	sessions, err := s.sessions.ListSessions(c.Request.Context(), limit)
	if err != nil {
		s.log.Error("list sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}

	now := time.Now()
	usernames := make(map[int64]string)
	items := make([]sessionItem, 0, len(sessions))
	for _, sess := range sessions {
		username, ok := usernames[sess.UserID]
		if !ok {
			if u, err := s.users.FindWithDetailsByID(c.Request.Context(), sess.UserID); err == nil {
				username = u.Username
			}
			usernames[sess.UserID] = username
		}
		items = append(items, sessionItem{
			ID:            sess.ID,
			UserID:        sess.UserID,
			Username:      username,
			IPAddress:     sess.IPAddress,
			DeviceName:    sess.DeviceName,
			State:         string(sess.State),
			CreatedAt:     sess.CreatedAt.Format(time.RFC3339),
			ExpiresAt:     sess.ExpiresAt.Format(time.RFC3339),
			LastActivity:  sess.LastActivity.Format(time.RFC3339),
			RemainingMins: sess.RemainingMinutes(now),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sesiones": items, "total": len(items)})
}

// handleCloseSession 讓管理者強制關閉任一 session。
// 該 session 的 token 之後會在驗證時以 SESION_NO_USABLE 被拒絕。
func (s *Server) handleCloseSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	if err := s.sessions.Close(c.Request.Context(), id, time.Now()); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "sesion no encontrada o ya cerrada", "error_code": errCodeNotFound})
			return
		}
		s.log.Error("force close session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}
	s.log.Info("session force closed", zap.Int64("session_id", id))
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Sesión cerrada"})
}

func (s *Server) handleBlacklistStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "blacklist": s.blacklist.Stats()})
}
