package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"admin-backend/internal/domain/rbac"
)

// ErrNotFound 表示查無資料。
var ErrNotFound = rbac.ErrNotFound

// RBACRepo 提供 roles / permisos / roles_permisos 的存取。
type RBACRepo struct {
	db *sql.DB
}

// NewRBACRepo 建立 RBACRepo。
func NewRBACRepo(db *sql.DB) *RBACRepo {
	return &RBACRepo{db: db}
}

// CreateRole 新增角色，名稱重複回傳 ErrDuplicate。
func (r *RBACRepo) CreateRole(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	const q = `
INSERT INTO roles (nombre, descripcion, activo)
VALUES ($1, $2, TRUE)
RETURNING id, fecha_creacion;
`
	err := r.db.QueryRowContext(ctx, q, role.Name, role.Description).Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return rbac.Role{}, ErrDuplicate
		}
		return rbac.Role{}, fmt.Errorf("insert role: %w", err)
	}
	role.Active = true
	return role, nil
}

// ListRoles 列出角色，includeInactive 為 false 時僅回傳啟用中的。
func (r *RBACRepo) ListRoles(ctx context.Context, includeInactive bool) ([]rbac.Role, error) {
	q := `SELECT id, nombre, descripcion, activo, fecha_creacion FROM roles`
	if !includeInactive {
		q += ` WHERE activo = TRUE`
	}
	q += ` ORDER BY id;`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []rbac.Role
	for rows.Next() {
		var role rbac.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Active, &role.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// FindRoleByID 依 ID 查詢角色。
func (r *RBACRepo) FindRoleByID(ctx context.Context, id int64) (rbac.Role, error) {
	const q = `SELECT id, nombre, descripcion, activo, fecha_creacion FROM roles WHERE id = $1;`
	var role rbac.Role
	err := r.db.QueryRowContext(ctx, q, id).Scan(&role.ID, &role.Name, &role.Description, &role.Active, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rbac.Role{}, ErrNotFound
		}
		return rbac.Role{}, fmt.Errorf("find role: %w", err)
	}
	return role, nil
}

// UpdateRole 更新角色名稱與描述。
func (r *RBACRepo) UpdateRole(ctx context.Context, role rbac.Role) error {
	const q = `UPDATE roles SET nombre = $2, descripcion = $3 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, role.ID, role.Name, role.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRoleActive 啟用或停用角色（軟刪除/還原）。
func (r *RBACRepo) SetRoleActive(ctx context.Context, id int64, active bool) error {
	const q = `UPDATE roles SET activo = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, active)
	if err != nil {
		return fmt.Errorf("set role active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePermission 新增權限，名稱重複回傳 ErrDuplicate。
func (r *RBACRepo) CreatePermission(ctx context.Context, p rbac.Permission) (rbac.Permission, error) {
	const q = `
INSERT INTO permisos (nombre, descripcion, activo)
VALUES ($1, $2, TRUE)
RETURNING id, fecha_creacion;
`
	err := r.db.QueryRowContext(ctx, q, p.Name, p.Description).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return rbac.Permission{}, ErrDuplicate
		}
		return rbac.Permission{}, fmt.Errorf("insert permission: %w", err)
	}
	p.Active = true
	return p, nil
}

// ListPermissions 列出權限。
func (r *RBACRepo) ListPermissions(ctx context.Context, includeInactive bool) ([]rbac.Permission, error) {
	q := `SELECT id, nombre, descripcion, activo, fecha_creacion FROM permisos`
	if !includeInactive {
		q += ` WHERE activo = TRUE`
	}
	q += ` ORDER BY id;`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var out []rbac.Permission
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindPermissionByID 依 ID 查詢權限。
func (r *RBACRepo) FindPermissionByID(ctx context.Context, id int64) (rbac.Permission, error) {
	const q = `SELECT id, nombre, descripcion, activo, fecha_creacion FROM permisos WHERE id = $1;`
	var p rbac.Permission
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rbac.Permission{}, ErrNotFound
		}
		return rbac.Permission{}, fmt.Errorf("find permission: %w", err)
	}
	return p, nil
}

// SetPermissionActive 啟用或停用權限。
func (r *RBACRepo) SetPermissionActive(ctx context.Context, id int64, active bool) error {
	const q = `UPDATE permisos SET activo = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, active)
	if err != nil {
		return fmt.Errorf("set permission active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignPermission 將權限指派給角色，重複指派不報錯。
func (r *RBACRepo) AssignPermission(ctx context.Context, roleID, permissionID int64) error {
	const q = `
INSERT INTO roles_permisos (id_rol, id_permiso)
VALUES ($1, $2)
ON CONFLICT (id_rol, id_permiso) DO NOTHING;
`
	if _, err := r.db.ExecContext(ctx, q, roleID, permissionID); err != nil {
		return fmt.Errorf("assign permission: %w", err)
	}
	return nil
}

// RemovePermission 取消角色的權限指派。
func (r *RBACRepo) RemovePermission(ctx context.Context, roleID, permissionID int64) error {
	const q = `DELETE FROM roles_permisos WHERE id_rol = $1 AND id_permiso = $2;`
	res, err := r.db.ExecContext(ctx, q, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRolePermissions 列出角色目前擁有的啟用中權限。
func (r *RBACRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	const q = `
SELECT p.id, p.nombre, p.descripcion, p.activo, p.fecha_creacion
FROM roles_permisos rp
JOIN permisos p ON p.id = rp.id_permiso
WHERE rp.id_rol = $1 AND p.activo = TRUE
ORDER BY p.id;
`
	rows, err := r.db.QueryContext(ctx, q, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	defer rows.Close()

	var out []rbac.Permission
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
