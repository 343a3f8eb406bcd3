package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authinfra "admin-backend/internal/infrastructure/auth"
	"admin-backend/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg config.Config
	cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Auth.SessionDurationMinutes = 30
	cfg.Auth.MaxSessionsPerUser = 5
	cfg.Auth.BlacklistRetentionHours = 24

	blacklist := authinfra.NewBlacklist(24*time.Hour, nil)
	srv, err := NewServer(cfg, nil, blacklist, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func loginAs(t *testing.T, srv *Server, username, password string) string {
	t.Helper()
	w := doJSON(t, srv.Handler(), http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}
	token, _ := decode(t, w)["token"].(string)
	if token == "" {
		t.Fatal("login response missing token")
	}
	return token
}

func TestHandleLogin(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Success", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodPost, "/auth/login", "", map[string]string{
			"username": "admin",
			"password": "cambiar123",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		body := decode(t, w)
		if body["token"] == "" || body["tokenType"] != "Bearer" {
			t.Errorf("unexpected token fields: %+v", body)
		}
		usuario, _ := body["usuario"].(map[string]any)
		if usuario["username"] != "admin" || usuario["rol"] != "ADMINISTRADOR" {
			t.Errorf("unexpected usuario: %+v", usuario)
		}
		if body["mensaje"] != "Bienvenido, Administrador General" {
			t.Errorf("mensaje = %v", body["mensaje"])
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodPost, "/auth/login", "", map[string]string{
			"username": "admin",
			"password": "nope",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", w.Code)
		}
		if decode(t, w)["error_code"] != "CREDENCIALES_INVALIDAS" {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("UnknownUserSameResponse", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodPost, "/auth/login", "", map[string]string{
			"username": "ghost",
			"password": "nope",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", w.Code)
		}
		if decode(t, w)["error_code"] != "CREDENCIALES_INVALIDAS" {
			t.Errorf("unknown user must look like wrong password: %s", w.Body.String())
		}
	})

	t.Run("BlockedUser", func(t *testing.T) {
		u, err := srv.Store().FindByUsername(context.Background(), "operador")
		if err != nil {
			t.Fatal(err)
		}
		srv.Store().SetUserBlocked(u.ID, true)
		defer srv.Store().SetUserBlocked(u.ID, false)

		w := doJSON(t, srv.Handler(), http.MethodPost, "/auth/login", "", map[string]string{
			"username": "operador",
			"password": "cambiar123",
		})
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d", w.Code)
		}
		if decode(t, w)["error_code"] != "USUARIO_BLOQUEADO" {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("BadBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})
}

func TestDeviceFingerprinting(t *testing.T) {
	srv := newTestServer(t)

	b, _ := json.Marshal(map[string]string{"username": "admin", "password": "cambiar123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PostmanRuntime/7.32.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	sesion, _ := decode(t, w)["sesion"].(map[string]any)
	if sesion["deviceName"] != "Postman" {
		t.Errorf("deviceName = %v", sesion["deviceName"])
	}
	deviceID, _ := sesion["deviceId"].(string)
	if len(deviceID) != 16 {
		t.Errorf("derived deviceId = %q, want 16 hex chars", deviceID)
	}

	sessions, err := srv.Store().ListSessions(req.Context(), 1)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("sessions = %v, err = %v", sessions, err)
	}
	if sessions[0].IPAddress != "203.0.113.9" {
		t.Errorf("ip = %q, want first X-Forwarded-For entry", sessions[0].IPAddress)
	}
}

func TestValidateSessionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := loginAs(t, srv, "admin", "cambiar123")

	t.Run("Valid", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodGet, "/auth/validate-session", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		body := decode(t, w)
		if body["valid"] != true {
			t.Fatalf("body = %s", w.Body.String())
		}
		usuario, _ := body["usuario"].(map[string]any)
		if usuario["username"] != "admin" {
			t.Errorf("usuario = %+v", usuario)
		}
	})

	t.Run("MissingHeaderStill200", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodGet, "/auth/validate-session", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, validate must not fail the request", w.Code)
		}
		body := decode(t, w)
		if body["valid"] != false || body["reason"] != "TOKEN_INVALIDO" {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("GarbageToken", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodGet, "/auth/validate-session", "not.a.token", nil)
		body := decode(t, w)
		if body["valid"] != false || body["reason"] != "TOKEN_INVALIDO" {
			t.Errorf("body = %s", w.Body.String())
		}
	})
}

func TestLogoutEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := loginAs(t, srv, "admin", "cambiar123")

	w := doJSON(t, srv.Handler(), http.MethodPost, "/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["mensaje"] != "Sesión cerrada exitosamente" || body["fechaCierre"] == "" {
		t.Errorf("body = %s", w.Body.String())
	}

	t.Run("TokenRevokedAfterLogout", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodGet, "/auth/validate-session", token, nil)
		body := decode(t, w)
		if body["valid"] != false || body["reason"] != "TOKEN_INVALIDADO" {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("DoubleLogout", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodPost, "/auth/logout", token, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404 for already closed session", w.Code)
		}
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", w.Code)
		}
	})
}

func TestMeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := loginAs(t, srv, "operador", "cambiar123")

	w := doJSON(t, srv.Handler(), http.MethodGet, "/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["valid"] != true {
		t.Fatalf("body = %s", w.Body.String())
	}
	usuario, _ := body["usuario"].(map[string]any)
	if usuario["rol"] != "OPERADOR" {
		t.Errorf("usuario = %+v", usuario)
	}
	session, _ := body["session"].(map[string]any)
	if session["expiresAt"] == "" || session["tiempoRestante"] == "" {
		t.Errorf("session = %+v", session)
	}

	t.Run("InvalidPassesThrough", func(t *testing.T) {
		w := doJSON(t, srv.Handler(), http.MethodGet, "/auth/me", "bogus", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if decode(t, w)["valid"] != false {
			t.Errorf("body = %s", w.Body.String())
		}
	})
}

func TestHealthAndPing(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	if decode(t, w)["db"] != "not_configured" {
		t.Errorf("body = %s", w.Body.String())
	}

	w = doJSON(t, srv.Handler(), http.MethodGet, "/ping", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ping status = %d", w.Code)
	}
}
