package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/contextkeys"
)

func guardRequest(t *testing.T, wrap func(http.Handler) http.Handler, id *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	handler := wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/guarded", nil)
	if id != nil {
		req = req.WithContext(contextkeys.WithIdentity(req.Context(), id))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRequireRole(t *testing.T) {
	t.Run("matching role passes", func(t *testing.T) {
		w := guardRequest(t, RequireRole(3), &auth.Identity{Account: "alice", Role: 3})
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("different role rejected", func(t *testing.T) {
		w := guardRequest(t, RequireRole(3), &auth.Identity{Account: "alice", Role: 4})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("no identity rejected", func(t *testing.T) {
		w := guardRequest(t, RequireRole(3), nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestRequireMinimumRole(t *testing.T) {
	cases := []struct {
		name string
		role int
		want int
	}{
		{"above minimum passes", 5, http.StatusOK},
		{"exact minimum passes", 3, http.StatusOK},
		{"below minimum rejected", 2, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := guardRequest(t, RequireMinimumRole(3), &auth.Identity{Account: "alice", Role: tc.role})
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestRequireAccount(t *testing.T) {
	t.Run("matching account passes", func(t *testing.T) {
		w := guardRequest(t, RequireAccount("alice"), &auth.Identity{Account: "alice"})
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("other account rejected", func(t *testing.T) {
		w := guardRequest(t, RequireAccount("alice"), &auth.Identity{Account: "bob"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestGuardCustomStatus(t *testing.T) {
	w := guardRequest(t, RequireMinimumRoleWithStatus(3, http.StatusForbidden), &auth.Identity{Account: "alice", Role: 1})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if w.Body.String() != `{"error":"insufficient permissions"}` {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
}
