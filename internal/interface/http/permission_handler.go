package httpapi

import (
	"net/http"
	"strings"

	"admin-backend/internal/domain/rbac"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreatePermission(c *gin.Context) {
	var body struct {
		Name        string `json:"nombre"`
		Description string `json:"descripcion"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cuerpo de solicitud invalido", "error_code": errCodeBadRequest})
		return
	}
	perm := rbac.Permission{Name: strings.TrimSpace(body.Name), Description: body.Description}
	if err := perm.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}

	created, err := s.rbacRepo.CreatePermission(c.Request.Context(), perm)
	if err != nil {
		s.writeRBACError(c, err, "crear permiso")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "permiso": created})
}

func (s *Server) handleListPermissions(c *gin.Context) {
	includeInactive := parseBoolDefault(c.Query("incluirInactivos"), false)
	perms, err := s.rbacRepo.ListPermissions(c.Request.Context(), includeInactive)
	if err != nil {
		s.writeRBACError(c, err, "listar permisos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "permisos": perms})
}

func (s *Server) handleGetPermission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	perm, err := s.rbacRepo.FindPermissionByID(c.Request.Context(), id)
	if err != nil {
		s.writeRBACError(c, err, "consultar permiso")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "permiso": perm})
}

func (s *Server) handleDeletePermission(c *gin.Context) {
	s.setPermissionActive(c, false, "Permiso desactivado")
}

func (s *Server) handleRestorePermission(c *gin.Context) {
	s.setPermissionActive(c, true, "Permiso restaurado")
}

func (s *Server) setPermissionActive(c *gin.Context, active bool, mensaje string) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id invalido", "error_code": errCodeBadRequest})
		return
	}
	if err := s.rbacRepo.SetPermissionActive(c.Request.Context(), id, active); err != nil {
		s.writeRBACError(c, err, "cambiar estado de permiso")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": mensaje})
}
