package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mealqr/console/internal/common"
	"github.com/mealqr/console/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// memStore is an in-memory CredentialStore for tests.
type memStore struct {
	mu     sync.Mutex
	creds  Credentials
	clears int
}

func (m *memStore) Load(ctx context.Context) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *memStore) Save(ctx context.Context, c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = c
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	m.clears++
	return nil
}

func loginHandler(t *testing.T, wantUser, wantPass string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Username != wantUser || body.Password != wantPass {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-123",
			"admin": map[string]string{"username": body.Username, "role": "admin"},
		})
	}
}

func TestSession_LoginStoresCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", loginHandler(t, "admin", "secret"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &memStore{}
	s := NewSession(srv.URL, store, testLogger())

	require.NoError(t, s.Login(context.Background(), "admin", "secret"))
	require.True(t, s.Authenticated())
	require.Equal(t, "admin", s.Username())
	require.Equal(t, "admin", s.Role())
	require.Equal(t, "tok-123", store.creds.Token, "credentials must persist to the store")
}

func TestSession_LoginInvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", loginHandler(t, "admin", "secret"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewSession(srv.URL, nil, testLogger())
	err := s.Login(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	require.False(t, s.Authenticated())
}

func TestSession_LoginServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // immediately, so the port refuses connections

	s := NewSession(srv.URL, nil, testLogger())
	err := s.Login(context.Background(), "admin", "secret")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestSession_StartRestoresPersistedSession(t *testing.T) {
	store := &memStore{creds: Credentials{Token: "tok", Role: "admin", Username: "amira"}}
	s := NewSession("http://unused", store, testLogger())

	require.NoError(t, s.Start(context.Background()))
	require.True(t, s.Authenticated())
	require.Equal(t, "amira", s.Username())
}

func TestSession_DoAttachesBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/settings", func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &memStore{creds: Credentials{Token: "tok-xyz", Role: "admin", Username: "a"}}
	s := NewSession(srv.URL, store, testLogger())
	require.NoError(t, s.Start(context.Background()))

	env, err := s.Do(context.Background(), http.MethodGet, "/api/admin/settings", nil, nil)
	require.NoError(t, err)
	require.True(t, env.Success)
	require.Equal(t, "Bearer tok-xyz", gotAuth.Load())
}

func TestSession_DoWithoutTokenShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := NewSession(srv.URL, nil, testLogger())
	_, err := s.Do(context.Background(), http.MethodGet, "/api/admin/users", nil, nil)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.EqualValues(t, 0, hits.Load(), "anonymous session must not hit the network")
}

func TestSession_401ClearsOnceAndFiresHookOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &memStore{creds: Credentials{Token: "stale", Role: "admin", Username: "a"}}
	s := NewSession(srv.URL, store, testLogger())
	require.NoError(t, s.Start(context.Background()))

	var hookCount atomic.Int32
	s.OnExpired(func() { hookCount.Add(1) })

	// Several concurrent requests race into the same stale token.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Do(context.Background(), http.MethodGet, "/api/admin/users", nil, nil)
			require.True(t, errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotAuthenticated))
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, hookCount.Load(), "navigation-to-login must happen exactly once")
	require.False(t, s.Authenticated())

	// Once cleared, calls short-circuit without reaching the network.
	_, err := s.Do(context.Background(), http.MethodGet, "/api/admin/users", nil, nil)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSession_ErrorTaxonomy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/create-operator", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "username taken"})
	})
	mux.HandleFunc("GET /api/admin/stats-broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &memStore{creds: Credentials{Token: "tok", Role: "admin", Username: "a"}}
	s := NewSession(srv.URL, store, testLogger())
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Do(context.Background(), http.MethodPost, "/api/auth/create-operator", nil, map[string]string{})
	require.True(t, IsValidation(err), "4xx must classify as validation error")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "username taken", apiErr.Message)

	_, err = s.Do(context.Background(), http.MethodGet, "/api/admin/stats-broken", nil, nil)
	require.True(t, IsServer(err), "5xx must classify as server error")

	// Neither classification may clear the session.
	require.True(t, s.Authenticated())
}

func TestSession_LogoutIdempotent(t *testing.T) {
	store := &memStore{creds: Credentials{Token: "tok", Role: "admin", Username: "a"}}
	s := NewSession("http://unused", store, testLogger())
	require.NoError(t, s.Start(context.Background()))

	s.Logout(context.Background())
	s.Logout(context.Background())
	require.False(t, s.Authenticated())
	require.Equal(t, Credentials{}, store.creds)
}
