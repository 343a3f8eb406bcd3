package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ctxKeyUser    = "authUser"
	ctxKeySession = "authSession"
	ctxKeyReqID   = "requestID"
)

// requireAuth 以 session 驗證保護路由；驗證失敗回 401，
// reason 代碼原樣放進 error_code 供前端分流。
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := s.validateUC.Execute(c.Request.Context(), c.GetHeader("Authorization"))
		if !res.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success":    false,
				"error":      "no autorizado",
				"error_code": string(res.Reason),
			})
			c.Abort()
			return
		}
		c.Set(ctxKeyUser, res.User)
		c.Set(ctxKeySession, res.Session)
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyReqID, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxKeyReqID)),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-Id")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
