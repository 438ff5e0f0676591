package pathmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("compiles valid rules", func(t *testing.T) {
		m, err := New(Rules{
			ExactPaths: []string{"/health"},
			Patterns:   []string{`^/public/.*$`},
		})
		require.NoError(t, err)
		require.NotNil(t, m)
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		_, err := New(Rules{Patterns: []string{`^/public/(`}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid exempt pattern")
	})
}

func TestExempt(t *testing.T) {
	tests := []struct {
		name   string
		rules  Rules
		path   string
		exempt bool
	}{
		{
			name:   "no rules requires auth everywhere",
			rules:  Rules{},
			path:   "/anything",
			exempt: false,
		},
		{
			name:   "exact match exempts",
			rules:  Rules{ExactPaths: []string{"/health", "/v1/sessions"}},
			path:   "/health",
			exempt: true,
		},
		{
			name:   "exact match is not a prefix match",
			rules:  Rules{ExactPaths: []string{"/health"}},
			path:   "/health/live",
			exempt: false,
		},
		{
			name:   "pattern match exempts",
			rules:  Rules{Patterns: []string{`^/public/`}},
			path:   "/public/docs",
			exempt: true,
		},
		{
			name:   "pattern checked only after exact match fails",
			rules:  Rules{ExactPaths: []string{"/public/docs"}, Patterns: []string{`^/never-matches$`}},
			path:   "/public/docs",
			exempt: true,
		},
		{
			name:   "non-matching pattern requires auth",
			rules:  Rules{Patterns: []string{`^/public/`}},
			path:   "/private/docs",
			exempt: false,
		},
		{
			name:   "path outside protected prefix is exempt",
			rules:  Rules{ProtectedPrefix: "/api"},
			path:   "/static/logo.png",
			exempt: true,
		},
		{
			name:   "path under protected prefix requires auth",
			rules:  Rules{ProtectedPrefix: "/api"},
			path:   "/api/v1/things",
			exempt: false,
		},
		{
			name:   "exact match still exempts under protected prefix",
			rules:  Rules{ProtectedPrefix: "/api", ExactPaths: []string{"/api/health"}},
			path:   "/api/health",
			exempt: true,
		},
		{
			name:   "prefix rule wins before exact rules are consulted",
			rules:  Rules{ProtectedPrefix: "/api", ExactPaths: []string{"/other"}},
			path:   "/elsewhere",
			exempt: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.rules)
			require.NoError(t, err)
			assert.Equal(t, tt.exempt, m.Exempt(tt.path))
		})
	}
}

func TestExemptDeterministic(t *testing.T) {
	m, err := New(Rules{
		ProtectedPrefix: "/api",
		ExactPaths:      []string{"/api/health"},
		Patterns:        []string{`^/api/public/`},
	})
	require.NoError(t, err)

	paths := []string{"/api/health", "/api/public/x", "/api/private", "/outside"}
	for _, p := range paths {
		first := m.Exempt(p)
		for i := 0; i < 50; i++ {
			assert.Equal(t, first, m.Exempt(p), "result changed on repeated call for %s", p)
		}
	}
}
