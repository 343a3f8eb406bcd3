package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	authDomain "admin-backend/internal/domain/auth"
)

// SessionRepo 提供 sesiones 資料表的存取。
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo 建立 SessionRepo。
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, id_usuario, token_hash, ip_address, user_agent, fecha_creacion, fecha_expiracion, ultima_actividad, estado, device_id, device_name`

// Save 持久化 session；無 ID 時新增並回填 ID，有 ID 時更新可變欄位。
func (r *SessionRepo) Save(ctx context.Context, s authDomain.Session) (authDomain.Session, error) {
	if s.ID == 0 {
		const q = `
INSERT INTO sesiones (id_usuario, token_hash, ip_address, user_agent, fecha_creacion, fecha_expiracion, ultima_actividad, estado, device_id, device_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id;
`
		err := r.db.QueryRowContext(ctx, q,
			s.UserID, s.TokenHash, s.IPAddress, s.UserAgent,
			s.CreatedAt, s.ExpiresAt, s.LastActivity, string(s.State),
			s.DeviceID, s.DeviceName,
		).Scan(&s.ID)
		if err != nil {
			return authDomain.Session{}, fmt.Errorf("insert session: %w", err)
		}
		return s, nil
	}

	const q = `
UPDATE sesiones
SET token_hash = $2, ultima_actividad = $3, estado = $4
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, s.ID, s.TokenHash, s.LastActivity, string(s.State))
	if err != nil {
		return authDomain.Session{}, fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authDomain.Session{}, authDomain.ErrSessionNotFound
	}
	return s, nil
}

// FindByID 依 ID 查詢 session。
func (r *SessionRepo) FindByID(ctx context.Context, id int64) (authDomain.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sesiones WHERE id = $1;`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.Session{}, authDomain.ErrSessionNotFound
		}
		return authDomain.Session{}, fmt.Errorf("find session: %w", err)
	}
	return s, nil
}

// CountActiveForUser 計算使用者 ACTIVA 且未過期的 session 數。
func (r *SessionRepo) CountActiveForUser(ctx context.Context, userID int64, now time.Time) (int, error) {
	const q = `
SELECT COUNT(*) FROM sesiones
WHERE id_usuario = $1 AND estado = 'ACTIVA' AND fecha_expiracion > $2;
`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

// CloseOldestForUser 關閉使用者建立時間最早且仍可用的 session。
func (r *SessionRepo) CloseOldestForUser(ctx context.Context, userID int64, now time.Time) error {
	const q = `
UPDATE sesiones
SET estado = 'CERRADA', ultima_actividad = $2
WHERE id = (
	SELECT id FROM sesiones
	WHERE id_usuario = $1 AND estado = 'ACTIVA' AND fecha_expiracion > $2
	ORDER BY fecha_creacion ASC
	LIMIT 1
);
`
	res, err := r.db.ExecContext(ctx, q, userID, now)
	if err != nil {
		return fmt.Errorf("close oldest session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authDomain.ErrSessionNotFound
	}
	return nil
}

// Close 關閉指定 session，僅作用於 ACTIVA 狀態。
func (r *SessionRepo) Close(ctx context.Context, id int64, now time.Time) error {
	const q = `
UPDATE sesiones
SET estado = 'CERRADA', ultima_actividad = $2
WHERE id = $1 AND estado = 'ACTIVA';
`
	res, err := r.db.ExecContext(ctx, q, id, now)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authDomain.ErrSessionNotFound
	}
	return nil
}

// ListSessions 列出 session，依建立時間新到舊。
func (r *SessionRepo) ListSessions(ctx context.Context, limit int) ([]authDomain.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sesiones ORDER BY fecha_creacion DESC LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []authDomain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (authDomain.Session, error) {
	var s authDomain.Session
	var state string
	var deviceID, deviceName sql.NullString
	err := row.Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.ExpiresAt, &s.LastActivity, &state,
		&deviceID, &deviceName,
	)
	if err != nil {
		return authDomain.Session{}, err
	}
	s.State = authDomain.SessionState(state)
	s.DeviceID = deviceID.String
	s.DeviceName = deviceName.String
	return s, nil
}
