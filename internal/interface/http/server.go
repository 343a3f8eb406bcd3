package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	appauth "admin-backend/internal/application/auth"
	"admin-backend/internal/domain/auth"
	"admin-backend/internal/domain/rbac"
	"admin-backend/internal/infra/memory"
	authinfra "admin-backend/internal/infrastructure/auth"
	"admin-backend/internal/infrastructure/config"
	"admin-backend/internal/infrastructure/persistence/postgres"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const seedTimeout = 5 * time.Second

const (
	errCodeBadRequest = "SOLICITUD_INVALIDA"
	errCodeDuplicate  = "NOMBRE_DUPLICADO"
	errCodeNotFound   = "NO_ENCONTRADO"
	errCodeInternal   = "ERROR_INTERNO"
)

// UserDirectory 涵蓋認證查詢與使用者管理操作。
type UserDirectory interface {
	appauth.UserRepository
	Create(ctx context.Context, u auth.UserDetails, roleID int64) (int64, error)
	List(ctx context.Context) ([]auth.UserDetails, error)
	SetBlocked(ctx context.Context, id int64, blocked bool) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// SessionDirectory 在 session port 之上加上管理查詢。
type SessionDirectory interface {
	appauth.SessionRepository
	ListSessions(ctx context.Context, limit int) ([]auth.Session, error)
}

// RBACDirectory 管理角色、權限與其指派。
type RBACDirectory interface {
	CreateRole(ctx context.Context, role rbac.Role) (rbac.Role, error)
	ListRoles(ctx context.Context, includeInactive bool) ([]rbac.Role, error)
	FindRoleByID(ctx context.Context, id int64) (rbac.Role, error)
	UpdateRole(ctx context.Context, role rbac.Role) error
	SetRoleActive(ctx context.Context, id int64, active bool) error
	CreatePermission(ctx context.Context, p rbac.Permission) (rbac.Permission, error)
	ListPermissions(ctx context.Context, includeInactive bool) ([]rbac.Permission, error)
	FindPermissionByID(ctx context.Context, id int64) (rbac.Permission, error)
	SetPermissionActive(ctx context.Context, id int64, active bool) error
	AssignPermission(ctx context.Context, roleID, permissionID int64) error
	RemovePermission(ctx context.Context, roleID, permissionID int64) error
	ListRolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error)
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine     *gin.Engine
	db         *sql.DB
	store      *memory.Store
	users      UserDirectory
	sessions   SessionDirectory
	rbacRepo   RBACDirectory
	blacklist  *authinfra.Blacklist
	loginUC    *appauth.LoginUseCase
	validateUC *appauth.ValidateUseCase
	logoutUC   *appauth.LogoutUseCase
	log        *zap.Logger
}

// NewServer 建立 API 伺服器。db 為 nil 時退回已植入預設帳號的記憶體存儲。
func NewServer(cfg config.Config, db *sql.DB, blacklist *authinfra.Blacklist, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	settings, err := cfg.AuthSettings()
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:        db,
		blacklist: blacklist,
		log:       log,
	}
	if db != nil {
		userRepo := postgres.NewUserRepo(db)
		s.users = userRepo
		s.sessions = postgres.NewSessionRepo(db)
		s.rbacRepo = postgres.NewRBACRepo(db)

		ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		defer cancel()
		if err := userRepo.SeedDefaults(ctx); err != nil {
			log.Warn("seed default accounts failed", zap.Error(err))
		}
	} else {
		store := memory.NewStore()
		store.SeedUsers()
		s.store = store
		s.users = store
		s.sessions = store
		s.rbacRepo = store
	}

	codec := authinfra.NewTokenCodec(settings.Secret(), settings.SessionDuration())
	s.loginUC = appauth.NewLoginUseCase(s.users, s.sessions, authinfra.BcryptHasher{}, codec, settings, log)
	s.validateUC = appauth.NewValidateUseCase(s.users, s.sessions, codec, blacklist, log)
	s.logoutUC = appauth.NewLogoutUseCase(s.sessions, codec, blacklist, log)

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestIDMiddleware(), s.requestLogger(), corsMiddleware())
	s.registerRoutes()
	return s, nil
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store 主要用於測試注入初始資料。
func (s *Server) Store() *memory.Store {
	return s.store
}

func (s *Server) registerRoutes() {
	e := s.engine

	e.GET("/ping", s.handlePing)
	e.GET("/health", s.handleHealth)

	authGroup := e.Group("/auth")
	authGroup.POST("/login", s.handleLogin)
	authGroup.GET("/validate-session", s.handleValidateSession)
	authGroup.POST("/logout", s.handleLogout)
	authGroup.GET("/me", s.handleMe)

	admin := e.Group("/", s.requireAuth())
	admin.GET("/roles", s.handleListRoles)
	admin.POST("/roles", s.handleCreateRole)
	admin.GET("/roles/:id", s.handleGetRole)
	admin.PUT("/roles/:id", s.handleUpdateRole)
	admin.DELETE("/roles/:id", s.handleDeleteRole)
	admin.POST("/roles/:id/restaurar", s.handleRestoreRole)
	admin.GET("/roles/:id/permisos", s.handleListRolePermissions)
	admin.POST("/roles/:id/permisos", s.handleAssignPermission)
	admin.DELETE("/roles/:id/permisos/:permisoId", s.handleRemovePermission)

	admin.GET("/permisos", s.handleListPermissions)
	admin.POST("/permisos", s.handleCreatePermission)
	admin.GET("/permisos/:id", s.handleGetPermission)
	admin.DELETE("/permisos/:id", s.handleDeletePermission)
	admin.POST("/permisos/:id/restaurar", s.handleRestorePermission)

	admin.GET("/usuarios", s.handleListUsers)
	admin.POST("/usuarios", s.handleCreateUser)
	admin.GET("/usuarios/:id", s.handleGetUser)
	admin.PATCH("/usuarios/:id/bloqueo", s.handleSetUserBlocked)
	admin.PATCH("/usuarios/:id/password", s.handleChangePassword)

	admin.GET("/sesiones", s.handleListSessions)
	admin.DELETE("/sesiones/:id", s.handleCloseSession)
	admin.GET("/sesiones/blacklist", s.handleBlacklistStats)
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "not_configured"
	if s.db != nil {
		dbStatus = "unavailable"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err == nil {
			dbStatus = "ok"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"db":        dbStatus,
		"blacklist": s.blacklist.Stats(),
	})
}
