package postgres

import (
	"context"
	"errors"
	"testing"

	authDomain "admin-backend/internal/domain/auth"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestUserRepo_FindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewUserRepo(db)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM usuarios").
			WithArgs("admin").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "activo", "bloqueado"}).
				AddRow(int64(1), "admin", "hash", true, false))

		u, err := repo.FindByUsername(context.Background(), "admin")
		if err != nil {
			t.Fatalf("FindByUsername failed: %v", err)
		}
		if u.ID != 1 || !u.Active || u.Blocked {
			t.Errorf("unexpected user: %+v", u)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM usuarios").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "activo", "bloqueado"}))

		if _, err := repo.FindByUsername(context.Background(), "ghost"); !errors.Is(err, authDomain.ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})
}

func TestUserRepo_FindWithDetailsByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM usuarios u").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "nombre_completo", "email", "nombre", "activo", "bloqueado"}).
			AddRow(int64(1), "admin", "hash", "Ana Admin", "ana@example.com", "ADMINISTRADOR", true, false))

	repo := NewUserRepo(db)
	u, err := repo.FindWithDetailsByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindWithDetailsByID failed: %v", err)
	}
	if u.RoleName != "ADMINISTRADOR" || u.FullName != "Ana Admin" {
		t.Errorf("unexpected details: %+v", u)
	}
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO usuarios").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := NewUserRepo(db)
	u := authDomain.UserDetails{Username: "admin", PasswordHash: "hash", Active: true}
	if _, err := repo.Create(context.Background(), u, 1); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestUserRepo_SetBlocked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewUserRepo(db)

	t.Run("updates", func(t *testing.T) {
		mock.ExpectExec("UPDATE usuarios SET bloqueado").
			WithArgs(int64(1), true).
			WillReturnResult(sqlmock.NewResult(0, 1))
		if err := repo.SetBlocked(context.Background(), 1, true); err != nil {
			t.Fatalf("SetBlocked failed: %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectExec("UPDATE usuarios SET bloqueado").
			WithArgs(int64(9), false).
			WillReturnResult(sqlmock.NewResult(0, 0))
		if err := repo.SetBlocked(context.Background(), 9, false); !errors.Is(err, authDomain.ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})
}
