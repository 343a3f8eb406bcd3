package auth

import (
	"strings"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		s, err := NewSession(7, "hash", "10.0.0.1", "agent", now, now.Add(30*time.Minute))
		if err != nil {
			t.Fatalf("NewSession failed: %v", err)
		}
		if s.State != StateActive {
			t.Errorf("state = %s, want ACTIVA", s.State)
		}
		if !s.LastActivity.Equal(now) || !s.CreatedAt.Equal(now) {
			t.Errorf("timestamps not initialized to now")
		}
	})

	t.Run("expiry not in the future", func(t *testing.T) {
		if _, err := NewSession(7, "hash", "", "", now, now); err == nil {
			t.Fatal("expected error for non-future expiry")
		}
	})

	t.Run("missing user", func(t *testing.T) {
		if _, err := NewSession(0, "hash", "", "", now, now.Add(time.Minute)); err == nil {
			t.Fatal("expected error for missing user id")
		}
	})
}

func TestSessionExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := Session{State: StateActive, ExpiresAt: now}

	// 到期瞬間即為過期。
	if !s.Expired(now) {
		t.Error("session at exact expiry instant should be expired")
	}
	if s.Usable(now) {
		t.Error("session at exact expiry instant should not be usable")
	}
	if !s.Usable(now.Add(-time.Second)) {
		t.Error("session one second before expiry should be usable")
	}
}

func TestSessionStateTransitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("close is terminal", func(t *testing.T) {
		s := Session{State: StateActive, ExpiresAt: now.Add(time.Hour)}
		if err := s.Close(now); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if s.State != StateClosed {
			t.Errorf("state = %s, want CERRADA", s.State)
		}
		if err := s.Close(now); err == nil {
			t.Error("second Close should fail")
		}
		if err := s.MarkExpired(); err == nil {
			t.Error("MarkExpired on closed session should fail")
		}
	})

	t.Run("mark expired", func(t *testing.T) {
		s := Session{State: StateActive, ExpiresAt: now.Add(-time.Hour)}
		if err := s.MarkExpired(); err != nil {
			t.Fatalf("MarkExpired failed: %v", err)
		}
		if s.State != StateExpired {
			t.Errorf("state = %s, want EXPIRADA", s.State)
		}
	})

	t.Run("touch refreshes activity", func(t *testing.T) {
		s := Session{State: StateActive, ExpiresAt: now.Add(time.Hour), LastActivity: now.Add(-time.Minute)}
		if err := s.Touch(now); err != nil {
			t.Fatalf("Touch failed: %v", err)
		}
		if !s.LastActivity.Equal(now) {
			t.Error("Touch did not refresh LastActivity")
		}
		s.State = StateClosed
		if err := s.Touch(now); err == nil {
			t.Error("Touch on closed session should fail")
		}
	})
}

func TestRemainingMinutes(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := Session{State: StateActive, ExpiresAt: now.Add(29*time.Minute + 59*time.Second)}
	if got := s.RemainingMinutes(now); got != 29 {
		t.Errorf("RemainingMinutes = %d, want 29", got)
	}
	s.ExpiresAt = now.Add(-time.Minute)
	if got := s.RemainingMinutes(now); got != 0 {
		t.Errorf("RemainingMinutes after expiry = %d, want 0", got)
	}
}

func TestNewSettings(t *testing.T) {
	secret := strings.Repeat("s", 32)

	cases := []struct {
		name    string
		secret  string
		minutes int
		max     int
		hours   int
		wantErr bool
	}{
		{"valid", secret, 30, 5, 24, false},
		{"short secret", strings.Repeat("s", 31), 30, 5, 24, true},
		{"duration too low", secret, 0, 5, 24, true},
		{"duration too high", secret, 1441, 5, 24, true},
		{"max sessions too low", secret, 30, 0, 24, true},
		{"max sessions too high", secret, 30, 11, 24, true},
		{"retention too low", secret, 30, 5, 0, true},
		{"retention too high", secret, 30, 5, 169, true},
		{"boundary values", secret, 1440, 10, 168, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewSettings(tc.secret, tc.minutes, tc.max, tc.hours)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSettings failed: %v", err)
			}
			if cfg.SessionDuration() != time.Duration(tc.minutes)*time.Minute {
				t.Errorf("SessionDuration = %v", cfg.SessionDuration())
			}
			if cfg.BlacklistRetention() != time.Duration(tc.hours)*time.Hour {
				t.Errorf("BlacklistRetention = %v", cfg.BlacklistRetention())
			}
		})
	}
}
