package rbac

import (
	"errors"
	"time"
)

// ErrDuplicateName 表示角色或權限名稱已存在。
var ErrDuplicateName = errors.New("name already exists")

// ErrNotFound 表示查無角色或權限。
var ErrNotFound = errors.New("record not found")

// Role 代表可指派給使用者的角色。
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion"`
	Active      bool      `json:"activo"`
	CreatedAt   time.Time `json:"fechaCreacion"`
}

// Validate 基本欄位檢查。
func (r Role) Validate() error {
	if r.Name == "" {
		return errors.New("role name is required")
	}
	if len(r.Name) > 50 {
		return errors.New("role name must not exceed 50 characters")
	}
	return nil
}

// Permission 代表可授予角色的單一權限。
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion"`
	Active      bool      `json:"activo"`
	CreatedAt   time.Time `json:"fechaCreacion"`
}

// Validate 基本欄位檢查。
func (p Permission) Validate() error {
	if p.Name == "" {
		return errors.New("permission name is required")
	}
	if len(p.Name) > 100 {
		return errors.New("permission name must not exceed 100 characters")
	}
	return nil
}
