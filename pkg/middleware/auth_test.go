package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/auth"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/cache"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/contextkeys"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/pathmatch"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store/sqlite"
)

type testEnv struct {
	middleware *AuthMiddleware
	store      *sqlite.Store
}

func newTestEnv(t *testing.T, rules pathmatch.Rules, config Config) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	matcher, err := pathmatch.New(rules)
	if err != nil {
		t.Fatalf("compiling rules: %v", err)
	}

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	c := cache.NewMemory(st, cache.DefaultMemoryConfig(), nil)
	return &testEnv{
		middleware: NewAuthMiddleware(matcher, c, st, config, logger, nil),
		store:      st,
	}
}

func (e *testEnv) seedAccount(t *testing.T, name, key string, lastValidated time.Time) *auth.Account {
	t.Helper()
	acct := &auth.Account{ID: "id-" + name, Name: name, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if err := e.store.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("seeding account: %v", err)
	}
	if key != "" {
		if err := e.store.CreateKey(context.Background(), acct.ID, key, lastValidated); err != nil {
			t.Fatalf("seeding key: %v", err)
		}
	}
	return acct
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	t.Run("exact exempt path forwards without headers", func(t *testing.T) {
		env := newTestEnv(t, pathmatch.Rules{ExactPaths: []string{"/health"}}, Config{})
		called := false
		handler := env.middleware.Handler(okHandler(&called))

		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if !called {
			t.Error("handler should have been called")
		}
		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("path outside the protected prefix is exempt", func(t *testing.T) {
		env := newTestEnv(t, pathmatch.Rules{ProtectedPrefix: "/api"}, Config{})
		called := false
		handler := env.middleware.Handler(okHandler(&called))

		req := httptest.NewRequest("GET", "/public/page", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if !called {
			t.Error("handler should have been called")
		}
	})

	t.Run("pattern exemption", func(t *testing.T) {
		env := newTestEnv(t, pathmatch.Rules{Patterns: []string{`^/static/.*\.css$`}}, Config{})
		called := false
		handler := env.middleware.Handler(okHandler(&called))

		req := httptest.NewRequest("GET", "/static/site.css", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if !called {
			t.Error("handler should have been called")
		}
	})
}

func TestAuthMiddleware_MissingHeaders(t *testing.T) {
	t.Run("body names both configured headers", func(t *testing.T) {
		env := newTestEnv(t, pathmatch.Rules{}, Config{})
		handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/api/thing", nil)
		req.Header.Set(DefaultAccountHeader, "alice") // key header absent
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, DefaultAccountHeader) || !strings.Contains(body, DefaultKeyHeader) {
			t.Errorf("body should name both headers verbatim, got %s", body)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
	})

	t.Run("custom header names appear in the body", func(t *testing.T) {
		env := newTestEnv(t, pathmatch.Rules{}, Config{AccountHeader: "X-Acct", KeyHeader: "X-Key"})
		handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/api/thing", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		body := w.Body.String()
		if !strings.Contains(body, "X-Acct") || !strings.Contains(body, "X-Key") {
			t.Errorf("body should name the configured headers, got %s", body)
		}
	})

	t.Run("DisableHeaderInfo suppresses header names", func(t *testing.T) {
		env := newTestEnv(t, pathmatch.Rules{}, Config{DisableHeaderInfo: true})
		handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/api/thing", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		body := w.Body.String()
		if strings.Contains(body, DefaultAccountHeader) || strings.Contains(body, DefaultKeyHeader) {
			t.Errorf("body must not leak header names, got %s", body)
		}
		if body != `{"error":"Missing header(s)."}` {
			t.Errorf("unexpected body: %s", body)
		}
	})

	t.Run("empty header values count as missing", func(t *testing.T) {
		env := newTestEnv(t, pathmatch.Rules{}, Config{})
		handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/api/thing", nil)
		req.Header.Set(DefaultAccountHeader, "")
		req.Header.Set(DefaultKeyHeader, "abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})
}

func TestAuthMiddleware_UnknownAccount(t *testing.T) {
	env := newTestEnv(t, pathmatch.Rules{}, Config{})
	handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/thing", nil)
	req.Header.Set(DefaultAccountHeader, "ghost")
	req.Header.Set(DefaultKeyHeader, "whatever")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if w.Body.String() != `{"error":"Account does not exist."}` {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthMiddleware_UnknownKey(t *testing.T) {
	env := newTestEnv(t, pathmatch.Rules{}, Config{})
	env.seedAccount(t, "alice", "real-key", time.Now().UTC())
	handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/thing", nil)
	req.Header.Set(DefaultAccountHeader, "alice")
	req.Header.Set(DefaultKeyHeader, "wrong-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if w.Body.String() != `{"error":"API key does not exist."}` {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthMiddleware_ValidKeyForwardsWithIdentity(t *testing.T) {
	env := newTestEnv(t, pathmatch.Rules{}, Config{
		Expiration:   24 * time.Hour,
		Revalidation: 30 * time.Minute,
	})
	acct := env.seedAccount(t, "alice", "good-key", time.Now().UTC().Add(-time.Minute))

	var got *auth.Identity
	handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = contextkeys.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/thing", nil)
	req.Header.Set(DefaultAccountHeader, "alice")
	req.Header.Set(DefaultKeyHeader, "good-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got == nil {
		t.Fatal("identity missing from request context")
	}
	if got.ID != acct.ID || got.Account != "alice" {
		t.Errorf("wrong identity: %+v", got)
	}
}

func TestAuthMiddleware_Revalidation(t *testing.T) {
	env := newTestEnv(t, pathmatch.Rules{}, Config{
		Expiration:   24 * time.Hour,
		Revalidation: 30 * time.Minute,
	})
	stale := time.Now().UTC().Add(-31 * time.Minute)
	acct := env.seedAccount(t, "alice", "good-key", stale)

	called := false
	handler := env.middleware.Handler(okHandler(&called))

	req := httptest.NewRequest("GET", "/api/thing", nil)
	req.Header.Set(DefaultAccountHeader, "alice")
	req.Header.Set(DefaultKeyHeader, "good-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("request inside the expiration window must forward")
	}
	ts, err := env.store.KeyTimestamp(context.Background(), acct.ID, "good-key")
	if err != nil {
		t.Fatalf("reading timestamp: %v", err)
	}
	if !ts.After(stale) {
		t.Errorf("timestamp should have been refreshed, still %v", ts)
	}
}

func TestAuthMiddleware_Expiration(t *testing.T) {
	env := newTestEnv(t, pathmatch.Rules{}, Config{
		Expiration:   24 * time.Hour,
		Revalidation: 30 * time.Minute,
	})
	acct := env.seedAccount(t, "alice", "old-key", time.Now().UTC().Add(-25*time.Hour))
	// A second account's stale key must be swept by the same rejection.
	other := env.seedAccount(t, "bob", "also-old", time.Now().UTC().Add(-48*time.Hour))

	handler := env.middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/thing", nil)
	req.Header.Set(DefaultAccountHeader, "alice")
	req.Header.Set(DefaultKeyHeader, "old-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if w.Body.String() != `{"error":"Time has run out. Please sign in again."}` {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if _, err := env.store.KeyTimestamp(context.Background(), acct.ID, "old-key"); !errors.Is(err, store.ErrNotFound) {
		t.Error("expired key should have been deleted")
	}
	if _, err := env.store.KeyTimestamp(context.Background(), other.ID, "also-old"); !errors.Is(err, store.ErrNotFound) {
		t.Error("sweep should remove expired keys of other accounts too")
	}
}

func TestAuthMiddleware_ZeroExpirationNeverExpires(t *testing.T) {
	env := newTestEnv(t, pathmatch.Rules{}, Config{})
	env.seedAccount(t, "alice", "ancient-key", time.Now().UTC().Add(-10000*time.Hour))

	called := false
	handler := env.middleware.Handler(okHandler(&called))

	req := httptest.NewRequest("GET", "/api/thing", nil)
	req.Header.Set(DefaultAccountHeader, "alice")
	req.Header.Set(DefaultKeyHeader, "ancient-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called || w.Code != http.StatusOK {
		t.Errorf("zero expiration must always pass, got %d", w.Code)
	}
}

// failingStore errors on every read to prove the middleware fails closed.
type failingStore struct {
	store.Store
}

func (f *failingStore) AccountByName(context.Context, string) (*auth.Account, error) {
	return nil, errors.New("connection refused")
}

func (f *failingStore) KeyTimestamp(context.Context, string, string) (time.Time, error) {
	return time.Time{}, errors.New("connection refused")
}

func TestAuthMiddleware_StoreFailureFailsClosed(t *testing.T) {
	matcher, err := pathmatch.New(pathmatch.Rules{})
	if err != nil {
		t.Fatal(err)
	}
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	fs := &failingStore{}
	c := cache.NewMemory(fs, cache.DefaultMemoryConfig(), nil)
	m := NewAuthMiddleware(matcher, c, fs, Config{}, logger, nil)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/thing", nil)
	req.Header.Set(DefaultAccountHeader, "alice")
	req.Header.Set(DefaultKeyHeader, "key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("store failure must reject 401, not %d", w.Code)
	}
	if w.Body.String() != `{"error":"Account does not exist."}` {
		t.Errorf("store failure must not leak detail, got %s", w.Body.String())
	}
}
