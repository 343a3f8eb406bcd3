package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"admin-backend/internal/domain/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type rolePayload struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}

func (s *Server) handleCreateRole(c *gin.Context) {
	var body rolePayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cuerpo de solicitud invalido", "error_code": errCodeBadRequest})
		return
	}
	role := rbac.Role{Name: strings.TrimSpace(body.Name), Description: body.Description}
	if err := role.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}

	created, err := s.rbacRepo.CreateRole(c.Request.Context(), role)
	if err != nil {
		s.writeRBACError(c, err, "crear rol")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "rol": created})
}

func (s *Server) handleListRoles(c *gin.Context) {
	includeInactive := parseBoolDefault(c.Query("incluirInactivos"), false)
	roles, err := s.rbacRepo.ListRoles(c.Request.Context(), includeInactive)
	if err != nil {
		s.writeRBACError(c, err, "listar roles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "roles": roles})
}

func (s *Server) handleGetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	role, err := s.rbacRepo.FindRoleByID(c.Request.Context(), id)
	if err != nil {
		s.writeRBACError(c, err, "consultar rol")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rol": role})
}

func (s *Server) handleUpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	var body rolePayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cuerpo de solicitud invalido", "error_code": errCodeBadRequest})
		return
	}
	role := rbac.Role{ID: id, Name: strings.TrimSpace(body.Name), Description: body.Description}
	if err := role.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	if err := s.rbacRepo.UpdateRole(c.Request.Context(), role); err != nil {
		s.writeRBACError(c, err, "actualizar rol")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Rol actualizado"})
}

// handleDeleteRole 為軟刪除，僅將角色標記為停用。
func (s *Server) handleDeleteRole(c *gin.Context) {
	s.setRoleActive(c, false, "Rol desactivado")
}

func (s *Server) handleRestoreRole(c *gin.Context) {
	s.setRoleActive(c, true, "Rol restaurado")
}

func (s *Server) setRoleActive(c *gin.Context, active bool, mensaje string) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	if err := s.rbacRepo.SetRoleActive(c.Request.Context(), id, active); err != nil {
		s.writeRBACError(c, err, "cambiar estado de rol")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": mensaje})
}

func (s *Server) handleListRolePermissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	perms, err := s.rbacRepo.ListRolePermissions(c.Request.Context(), id)
	if err != nil {
		s.writeRBACError(c, err, "listar permisos de rol")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "permisos": perms})
}

func (s *Server) handleAssignPermission(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	var body struct {
		PermissionID int64 `json:"idPermiso"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PermissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "idPermiso requerido", "error_code": errCodeBadRequest})
		return
	}
	if err := s.rbacRepo.AssignPermission(c.Request.Context(), roleID, body.PermissionID); err != nil {
		s.writeRBACError(c, err, "asignar permiso")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Permiso asignado"})
}

func (s *Server) handleRemovePermission(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	permID, ok := parseIDParam(c, "permisoId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "permisoId invalido", "error_code": errCodeBadRequest})
		return
	}
	if err := s.rbacRepo.RemovePermission(c.Request.Context(), roleID, permID); err != nil {
		s.writeRBACError(c, err, "quitar permiso")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Permiso removido"})
}

func (s *Server) writeRBACError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, rbac.ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "el nombre ya existe", "error_code": errCodeDuplicate})
	case errors.Is(err, rbac.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "registro no encontrado", "error_code": errCodeNotFound})
	default:
		s.log.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "error interno", "error_code": errCodeInternal})
	}
}
