package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	authDomain "admin-backend/internal/domain/auth"
	"admin-backend/internal/domain/rbac"
	authinfra "admin-backend/internal/infrastructure/auth"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate 表示唯一鍵衝突（例如 username 或角色名稱重複）。
var ErrDuplicate = rbac.ErrDuplicateName

// isUniqueViolation 判斷是否為 PostgreSQL 23505。
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// UserRepo 提供 usuarios 資料表的存取。
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo 建立 UserRepo。
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByUsername 依帳號查詢登入所需的最小欄位。
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (authDomain.User, error) {
	const q = `
SELECT id, username, password_hash, activo, bloqueado
FROM usuarios
WHERE username = $1
LIMIT 1;
`
	var u authDomain.User
	err := r.db.QueryRowContext(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Active, &u.Blocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.User{}, authDomain.ErrUserNotFound
		}
		return authDomain.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// FindWithDetailsByID 依 ID 查詢使用者與其角色名稱。
func (r *UserRepo) FindWithDetailsByID(ctx context.Context, id int64) (authDomain.UserDetails, error) {
	const q = `
SELECT u.id, u.username, u.password_hash, COALESCE(u.nombre_completo, ''), COALESCE(u.email, ''), COALESCE(r.nombre, ''), u.activo, u.bloqueado
FROM usuarios u
LEFT JOIN roles r ON r.id = u.id_rol
WHERE u.id = $1
LIMIT 1;
`
	var u authDomain.UserDetails
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.RoleName, &u.Active, &u.Blocked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.UserDetails{}, authDomain.ErrUserNotFound
		}
		return authDomain.UserDetails{}, fmt.Errorf("find user details: %w", err)
	}
	return u, nil
}

// Create 新增使用者，回填 ID。username 重複回傳 ErrDuplicate。
func (r *UserRepo) Create(ctx context.Context, u authDomain.UserDetails, roleID int64) (int64, error) {
	const q = `
INSERT INTO usuarios (username, password_hash, nombre_completo, email, id_rol, activo, bloqueado)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id;
`
	var id int64
	err := r.db.QueryRowContext(ctx, q, u.Username, u.PasswordHash, u.FullName, u.Email, roleID, u.Active, u.Blocked).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// List 列出全部使用者與角色名稱。
func (r *UserRepo) List(ctx context.Context) ([]authDomain.UserDetails, error) {
	const q = `
SELECT u.id, u.username, u.password_hash, COALESCE(u.nombre_completo, ''), COALESCE(u.email, ''), COALESCE(r.nombre, ''), u.activo, u.bloqueado
FROM usuarios u
LEFT JOIN roles r ON r.id = u.id_rol
ORDER BY u.id;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []authDomain.UserDetails
	for rows.Next() {
		var u authDomain.UserDetails
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.RoleName, &u.Active, &u.Blocked); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetBlocked 封鎖或解除封鎖使用者。
func (r *UserRepo) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	const q = `UPDATE usuarios SET bloqueado = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, blocked)
	if err != nil {
		return fmt.Errorf("set blocked: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authDomain.ErrUserNotFound
	}
	return nil
}

// UpdatePassword 更新密碼雜湊。
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE usuarios SET password_hash = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authDomain.ErrUserNotFound
	}
	return nil
}

// SeedDefaults 建立預設角色與帳號（admin/operador），可重複執行。
func (r *UserRepo) SeedDefaults(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	roleIDs := map[string]int64{}
	for _, role := range []struct{ name, desc string }{
		{"ADMINISTRADOR", "acceso total al sistema"},
		{"OPERADOR", "operaciones del dia a dia"},
	} {
		const q = `
INSERT INTO roles (nombre, descripcion, activo)
VALUES ($1, $2, TRUE)
ON CONFLICT (nombre) DO UPDATE SET descripcion = EXCLUDED.descripcion
RETURNING id;
`
		var id int64
		if err := tx.QueryRowContext(ctx, q, role.name, role.desc).Scan(&id); err != nil {
			return err
		}
		roleIDs[role.name] = id
	}

	users := []struct {
		username string
		fullName string
		role     string
	}{
		{"admin", "Administrador General", "ADMINISTRADOR"},
		{"operador", "Operador de Turno", "OPERADOR"},
	}
	for _, u := range users {
		hash, err := authinfra.HashPassword("cambiar123")
		if err != nil {
			return err
		}
		const q = `
INSERT INTO usuarios (username, password_hash, nombre_completo, email, id_rol, activo, bloqueado)
VALUES ($1, $2, $3, $4, $5, TRUE, FALSE)
ON CONFLICT (username) DO NOTHING;
`
		email := u.username + "@example.com"
		if _, err := tx.ExecContext(ctx, q, u.username, hash, u.fullName, email, roleIDs[u.role]); err != nil {
			return err
		}
	}

	return tx.Commit()
}
