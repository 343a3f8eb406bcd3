package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	authDomain "admin-backend/internal/domain/auth"
	"admin-backend/internal/domain/rbac"
	authinfra "admin-backend/internal/infrastructure/auth"
)

// Store 為未設定資料庫時使用的記憶體儲存，實作 user/session 兩個 port。
type Store struct {
	mu          sync.RWMutex
	users       map[int64]authDomain.UserDetails
	sessions    map[int64]authDomain.Session
	roles       map[int64]rbac.Role
	permissions map[int64]rbac.Permission
	rolePerms   map[int64]map[int64]bool // roleID -> permissionID
	userSeq     int64
	sessionSeq  int64
	roleSeq     int64
	permSeq     int64
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		users:       make(map[int64]authDomain.UserDetails),
		sessions:    make(map[int64]authDomain.Session),
		roles:       make(map[int64]rbac.Role),
		permissions: make(map[int64]rbac.Permission),
		rolePerms:   make(map[int64]map[int64]bool),
	}
}

// SeedUsers 建立預設角色與帳號供登入測試。
func (s *Store) SeedUsers() {
	hash := func(p string) string {
		h, err := authinfra.HashPassword(p)
		if err != nil {
			return p
		}
		return h
	}
	admin, _ := s.CreateRole(context.Background(), rbac.Role{Name: "ADMINISTRADOR", Description: "acceso total al sistema"})
	operador, _ := s.CreateRole(context.Background(), rbac.Role{Name: "OPERADOR", Description: "operaciones del dia a dia"})
	s.AddUser(authDomain.UserDetails{
		Username: "admin", PasswordHash: hash("cambiar123"),
		FullName: "Administrador General", Email: "admin@example.com",
		RoleName: admin.Name, Active: true,
	})
	s.AddUser(authDomain.UserDetails{
		Username: "operador", PasswordHash: hash("cambiar123"),
		FullName: "Operador de Turno", Email: "operador@example.com",
		RoleName: operador.Name, Active: true,
	})
}

// AddUser 新增使用者並回傳指派的 ID。
func (s *Store) AddUser(u authDomain.UserDetails) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSeq++
	u.ID = s.userSeq
	s.users[u.ID] = u
	return u.ID
}

// SetUserActive 啟用或停用使用者。
func (s *Store) SetUserActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Active = active
		s.users[id] = u
	}
}

// SetUserBlocked 封鎖或解除封鎖使用者。
func (s *Store) SetUserBlocked(id int64, blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Blocked = blocked
		s.users[id] = u
	}
}

// UserRepository impl
// FindByUsername 依帳號查詢使用者。
func (s *Store) FindByUsername(ctx context.Context, username string) (authDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return authDomain.User{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, Active: u.Active, Blocked: u.Blocked}, nil
		}
	}
	return authDomain.User{}, authDomain.ErrUserNotFound
}

// FindWithDetailsByID 依 ID 查詢使用者完整資料。
func (s *Store) FindWithDetailsByID(ctx context.Context, id int64) (authDomain.UserDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return authDomain.UserDetails{}, authDomain.ErrUserNotFound
	}
	return u, nil
}

// ListUsers 列出全部使用者。
func (s *Store) ListUsers(ctx context.Context) ([]authDomain.UserDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]authDomain.UserDetails, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create 新增使用者，username 重複回傳 ErrDuplicateName。roleID 對應既有角色。
func (s *Store) Create(ctx context.Context, u authDomain.UserDetails, roleID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return 0, rbac.ErrDuplicateName
		}
	}
	if role, ok := s.roles[roleID]; ok {
		u.RoleName = role.Name
	}
	s.userSeq++
	u.ID = s.userSeq
	s.users[u.ID] = u
	return u.ID, nil
}

// List 列出全部使用者。
func (s *Store) List(ctx context.Context) ([]authDomain.UserDetails, error) {
	return s.ListUsers(ctx)
}

// SetBlocked 封鎖或解除封鎖使用者。
func (s *Store) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return authDomain.ErrUserNotFound
	}
	u.Blocked = blocked
	s.users[id] = u
	return nil
}

// UpdatePassword 更新密碼雜湊。
func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return authDomain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

// SessionRepository impl
// Save 持久化 session；無 ID 時指派新 ID。
func (s *Store) Save(ctx context.Context, sess authDomain.Session) (authDomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == 0 {
		s.sessionSeq++
		sess.ID = s.sessionSeq
	} else if _, ok := s.sessions[sess.ID]; !ok {
		return authDomain.Session{}, authDomain.ErrSessionNotFound
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// FindByID 依 ID 查詢 session。
func (s *Store) FindByID(ctx context.Context, id int64) (authDomain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return authDomain.Session{}, authDomain.ErrSessionNotFound
	}
	return sess, nil
}

// CountActiveForUser 計算使用者可用的 session 數。
func (s *Store) CountActiveForUser(ctx context.Context, userID int64, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.Usable(now) {
			n++
		}
	}
	return n, nil
}

// CloseOldestForUser 關閉使用者最早建立且仍可用的 session。
func (s *Store) CloseOldestForUser(ctx context.Context, userID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldestID int64
	var oldestAt time.Time
	for id, sess := range s.sessions {
		if sess.UserID != userID || !sess.Usable(now) {
			continue
		}
		if oldestID == 0 || sess.CreatedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = sess.CreatedAt
		}
	}
	if oldestID == 0 {
		return authDomain.ErrSessionNotFound
	}
	sess := s.sessions[oldestID]
	if err := sess.Close(now); err != nil {
		return err
	}
	s.sessions[oldestID] = sess
	return nil
}

// Close 關閉指定 session。
func (s *Store) Close(ctx context.Context, id int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return authDomain.ErrSessionNotFound
	}
	if err := sess.Close(now); err != nil {
		return authDomain.ErrSessionNotFound
	}
	s.sessions[id] = sess
	return nil
}

// ListSessions 列出 session，依建立時間新到舊。
func (s *Store) ListSessions(ctx context.Context, limit int) ([]authDomain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]authDomain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RBAC impl（記憶體版角色/權限管理）。
// CreateRole 新增角色。
func (s *Store) CreateRole(ctx context.Context, role rbac.Role) (rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == role.Name {
			return rbac.Role{}, rbac.ErrDuplicateName
		}
	}
	s.roleSeq++
	role.ID = s.roleSeq
	role.Active = true
	role.CreatedAt = time.Now()
	s.roles[role.ID] = role
	return role, nil
}

// ListRoles 列出角色。
func (s *Store) ListRoles(ctx context.Context, includeInactive bool) ([]rbac.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rbac.Role
	for _, r := range s.roles {
		if !includeInactive && !r.Active {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreatePermission 新增權限。
func (s *Store) CreatePermission(ctx context.Context, p rbac.Permission) (rbac.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Name == p.Name {
			return rbac.Permission{}, rbac.ErrDuplicateName
		}
	}
	s.permSeq++
	p.ID = s.permSeq
	p.Active = true
	p.CreatedAt = time.Now()
	s.permissions[p.ID] = p
	return p, nil
}

// FindRoleByID 依 ID 查詢角色。
func (s *Store) FindRoleByID(ctx context.Context, id int64) (rbac.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	return r, nil
}

// UpdateRole 更新角色名稱與描述。
func (s *Store) UpdateRole(ctx context.Context, role rbac.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[role.ID]
	if !ok {
		return rbac.ErrNotFound
	}
	for id, r := range s.roles {
		if id != role.ID && r.Name == role.Name {
			return rbac.ErrDuplicateName
		}
	}
	existing.Name = role.Name
	existing.Description = role.Description
	s.roles[role.ID] = existing
	return nil
}

// SetRoleActive 啟用或停用角色。
func (s *Store) SetRoleActive(ctx context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return rbac.ErrNotFound
	}
	r.Active = active
	s.roles[id] = r
	return nil
}

// ListPermissions 列出權限。
func (s *Store) ListPermissions(ctx context.Context, includeInactive bool) ([]rbac.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rbac.Permission
	for _, p := range s.permissions {
		if !includeInactive && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindPermissionByID 依 ID 查詢權限。
func (s *Store) FindPermissionByID(ctx context.Context, id int64) (rbac.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[id]
	if !ok {
		return rbac.Permission{}, rbac.ErrNotFound
	}
	return p, nil
}

// SetPermissionActive 啟用或停用權限。
func (s *Store) SetPermissionActive(ctx context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permissions[id]
	if !ok {
		return rbac.ErrNotFound
	}
	p.Active = active
	s.permissions[id] = p
	return nil
}

// AssignPermission 指派權限給角色。角色或權限不存在時回傳 ErrNotFound。
func (s *Store) AssignPermission(ctx context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return rbac.ErrNotFound
	}
	if _, ok := s.permissions[permissionID]; !ok {
		return rbac.ErrNotFound
	}
	if _, ok := s.rolePerms[roleID]; !ok {
		s.rolePerms[roleID] = make(map[int64]bool)
	}
	s.rolePerms[roleID][permissionID] = true
	return nil
}

// RemovePermission 取消角色的權限指派。
func (s *Store) RemovePermission(ctx context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	perms, ok := s.rolePerms[roleID]
	if !ok || !perms[permissionID] {
		return rbac.ErrNotFound
	}
	delete(perms, permissionID)
	return nil
}

// ListRolePermissions 列出角色目前擁有的啟用中權限。
func (s *Store) ListRolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rbac.Permission
	for permID := range s.rolePerms[roleID] {
		if p, ok := s.permissions[permID]; ok && p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
