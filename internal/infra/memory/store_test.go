package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"admin-backend/internal/domain/auth"
	"admin-backend/internal/domain/rbac"
)

func TestStore_Users(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	id := s.AddUser(auth.UserDetails{Username: "admin", PasswordHash: "hash", FullName: "Ana", Active: true})

	t.Run("FindByUsername", func(t *testing.T) {
		u, err := s.FindByUsername(ctx, "admin")
		if err != nil {
			t.Fatal(err)
		}
		if u.ID != id || !u.Active {
			t.Errorf("unexpected user: %+v", u)
		}
	})

	t.Run("FindByUsernameMissing", func(t *testing.T) {
		if _, err := s.FindByUsername(ctx, "ghost"); !errors.Is(err, auth.ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("FindWithDetails", func(t *testing.T) {
		u, err := s.FindWithDetailsByID(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if u.FullName != "Ana" {
			t.Errorf("unexpected details: %+v", u)
		}
	})

	t.Run("BlockUnblock", func(t *testing.T) {
		s.SetUserBlocked(id, true)
		u, _ := s.FindWithDetailsByID(ctx, id)
		if !u.Blocked {
			t.Error("user should be blocked")
		}
		s.SetUserBlocked(id, false)
	})
}

func TestStore_Sessions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mkSession := func(t *testing.T, createdAt time.Time) auth.Session {
		t.Helper()
		sess, err := auth.NewSession(1, "hash", "10.0.0.1", "agent", createdAt, createdAt.Add(time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		sess, err = s.Save(ctx, sess)
		if err != nil {
			t.Fatal(err)
		}
		return sess
	}

	t.Run("SaveAssignsID", func(t *testing.T) {
		sess := mkSession(t, now)
		if sess.ID == 0 {
			t.Fatal("expected assigned id")
		}
		got, err := s.FindByID(ctx, sess.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.TokenHash != "hash" {
			t.Errorf("unexpected session: %+v", got)
		}
	})

	t.Run("CountAndCloseOldest", func(t *testing.T) {
		first := mkSession(t, now.Add(time.Minute))
		mkSession(t, now.Add(2*time.Minute))

		n, _ := s.CountActiveForUser(ctx, 1, now.Add(3*time.Minute))
		if n != 3 {
			t.Fatalf("active = %d, want 3", n)
		}

		// 最早建立的 session 應最先被 CloseOldest 關閉。
		if err := s.CloseOldestForUser(ctx, 1, now.Add(3*time.Minute)); err != nil {
			t.Fatal(err)
		}
		closed, _ := s.FindByID(ctx, 1)
		if closed.State != auth.StateClosed {
			t.Errorf("first session state = %s, want CERRADA", closed.State)
		}
		_ = first
		n, _ = s.CountActiveForUser(ctx, 1, now.Add(3*time.Minute))
		if n != 2 {
			t.Errorf("active = %d, want 2", n)
		}
	})

	t.Run("CloseMissing", func(t *testing.T) {
		if err := s.Close(ctx, 999, now); !errors.Is(err, auth.ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("ListSessions", func(t *testing.T) {
		list, err := s.ListSessions(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Errorf("len = %d, want 2", len(list))
		}
	})
}

func TestStore_SeedUsers(t *testing.T) {
	s := NewStore()
	s.SeedUsers()

	u, err := s.FindByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if u.PasswordHash == "cambiar123" {
		t.Error("password should be hashed")
	}
}

func TestStore_Roles(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	role, err := s.CreateRole(ctx, rbac.Role{Name: "SUPERVISOR"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateRole(ctx, rbac.Role{Name: "SUPERVISOR"}); !errors.Is(err, rbac.ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}

	perm, err := s.CreatePermission(ctx, rbac.Permission{Name: "usuarios.listar"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AssignPermission(ctx, role.ID, perm.ID); err != nil {
		t.Fatal(err)
	}

	roles, _ := s.ListRoles(ctx, false)
	if len(roles) != 1 {
		t.Errorf("roles = %+v", roles)
	}

	// 指派時角色與權限都必須存在，與資料庫的 FK 行為一致。
	if err := s.AssignPermission(ctx, 999, perm.ID); !errors.Is(err, rbac.ErrNotFound) {
		t.Errorf("assign to unknown role: err = %v, want ErrNotFound", err)
	}
	if err := s.AssignPermission(ctx, role.ID, 999); !errors.Is(err, rbac.ErrNotFound) {
		t.Errorf("assign unknown permission: err = %v, want ErrNotFound", err)
	}
}
