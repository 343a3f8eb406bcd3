package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"admin-backend/internal/domain/auth"
	"admin-backend/internal/domain/rbac"
	authinfra "admin-backend/internal/infrastructure/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type userItem struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"nombreCompleto"`
	Email    string `json:"email"`
	Role     string `json:"rol"`
	Active   bool   `json:"activo"`
	Blocked  bool   `json:"bloqueado"`
}

func toUserItem(u auth.UserDetails) userItem {
	return userItem{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.RoleName,
		Active:   u.Active,
		Blocked:  u.Blocked,
	}
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.log.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}
	items := make([]userItem, 0, len(users))
	for _, u := range users {
		items = append(items, toUserItem(u))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "usuarios": items})
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	u, err := s.users.FindWithDetailsByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "usuario no encontrado", "error_code": errCodeNotFound})
			return
		}
		s.log.Error("get user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "usuario": toUserItem(u)})
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"nombreCompleto"`
		Email    string `json:"email"`
		RoleID   int64  `json:"idRol"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cuerpo de solicitud invalido", "error_code": errCodeBadRequest})
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.RoleID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "username e idRol son requeridos", "error_code": errCodeBadRequest})
		return
	}
	if len(body.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "la contrasena debe tener al menos 8 caracteres", "error_code": errCodeBadRequest})
		return
	}

	hash, err := authinfra.HashPassword(body.Password)
	if err != nil {
		s.log.Error("hash password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}

	id, err := s.users.Create(c.Request.Context(), auth.UserDetails{
		Username:     body.Username,
		PasswordHash: hash,
		FullName:     body.FullName,
		Email:        body.Email,
		Active:       true,
	}, body.RoleID)
	if err != nil {
		if errors.Is(err, rbac.ErrDuplicateName) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "el username ya existe", "error_code": errCodeDuplicate})
			return
		}
		s.log.Error("create user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

func (s *Server) handleSetUserBlocked(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	var body struct {
		Blocked *bool `json:"bloqueado"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Blocked == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "bloqueado es requerido", "error_code": errCodeBadRequest})
		return
	}
	if err := s.users.SetBlocked(c.Request.Context(), id, *body.Blocked); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "usuario no encontrado", "error_code": errCodeNotFound})
			return
		}
		s.log.Error("set user blocked failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}
	mensaje := "Usuario desbloqueado"
	if *body.Blocked {
		mensaje = "Usuario bloqueado"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": mensaje})
}

func (s *Server) handleChangePassword(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "la contrasena debe tener al menos 8 caracteres", "error_code": errCodeBadRequest})
		return
	}

	hash, err := authinfra.HashPassword(body.Password)
	if err != nil {
		s.log.Error("hash password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}
	if err := s.users.UpdatePassword(c.Request.Context(), id, hash); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "usuario no encontrado", "error_code": errCodeNotFound})
			return
		}
		s.log.Error("update password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Contrasena actualizada"})
}
