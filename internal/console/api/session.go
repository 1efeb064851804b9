// Package api is the console's HTTP boundary: the Session holding the
// bearer token and the typed client for every backend endpoint.
//
// The Session is the only component allowed to clear credentials. Every
// other part of the console reaches the network through Session.Do, which
// attaches the token and intercepts authorization failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mealqr/console/internal/common"
	"github.com/mealqr/console/internal/logging"
)

// Credentials are the persisted identity of a logged-in console account.
// Invariant: a non-empty Token implies Role and Username are non-empty.
type Credentials struct {
	Token    string
	Role     string
	Username string
}

// CredentialStore persists credentials across console restarts.
// Implemented by credstore over sqlite; tests use in-memory fakes.
type CredentialStore interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, c Credentials) error
	Clear(ctx context.Context) error
}

// Envelope is the response wrapper used by the backend:
// {"success": bool, "message": string, "data": ...}.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Session owns the authentication token and role for one running console.
//
// State machine: Anonymous -> Authenticated (Login) -> Anonymous (Logout or
// a 401 from any request). There are no other transitions. The expiry hook
// fires at most once per stale token; afterwards requests short-circuit
// with ErrNotAuthenticated without hitting the network.
type Session struct {
	baseURL string
	httpc   *http.Client
	store   CredentialStore
	log     logging.Logger

	mu           sync.Mutex
	creds        Credentials
	expiredFired bool
	onExpired    func()
}

// NewSession builds a session talking to baseURL (scheme://host:port).
// store may be nil for a purely in-memory session (tests).
func NewSession(baseURL string, store CredentialStore, log logging.Logger) *Session {
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Backstop only; per-request deadlines come from caller contexts.
		httpc: &http.Client{Timeout: 30 * time.Second},
		store: store,
		log:   log.With("component", "session"),
	}
}

// OnExpired registers the hook fired (once per stale token) when a 401
// clears the session. The console uses it to navigate back to login.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpired = fn
}

// Start loads any persisted credentials, restoring the prior login after a
// console restart.
func (s *Session) Start(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	creds, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading stored credentials: %w", err)
	}
	s.mu.Lock()
	s.creds = creds
	s.expiredFired = false
	s.mu.Unlock()
	if creds.Token != "" {
		s.log.Info(ctx, "restored persisted session", "username", creds.Username, "role", creds.Role)
	}
	return nil
}

// Stop detaches the expiry hook so nothing fires after teardown. The
// credential store itself is owned, and closed, by the caller.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpired = nil
}

// Authenticated reports whether a token is currently held.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Token != ""
}

// Username returns the logged-in account name, or "".
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Username
}

// Role returns the logged-in account role, or "".
func (s *Session) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Role
}

// Login authenticates against the backend and stores token, role, and
// username on success, both in memory and in the durable store. Invalid
// credentials surface as common.ErrInvalidCredentials; transport failures
// as ErrUnavailable.
func (s *Session) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", common.ErrInvalidCredentials, backendMessage(body))
	}
	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: backendMessage(body)}
	}

	var result struct {
		Token string `json:"token"`
		Admin struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"admin"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if result.Token == "" {
		return fmt.Errorf("%w: empty token in login response", common.ErrInvalidCredentials)
	}

	creds := Credentials{Token: result.Token, Role: result.Admin.Role, Username: result.Admin.Username}
	s.mu.Lock()
	s.creds = creds
	s.expiredFired = false
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, creds); err != nil {
			s.log.Warn(ctx, "persisting credentials failed", "err", err)
		}
	}
	s.log.Info(ctx, "logged in", "username", creds.Username, "role", creds.Role)
	return nil
}

// Logout clears the session unconditionally. Idempotent.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.creds = Credentials{}
	s.expiredFired = false
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.log.Warn(ctx, "clearing stored credentials failed", "err", err)
		}
	}
	s.log.Info(ctx, "logged out")
}

// Do performs an authorized JSON request and returns the decoded envelope.
//
// Failure mapping:
//   - no token held: ErrNotAuthenticated, without a network round trip
//   - transport failure or timeout: wrapped ErrUnavailable
//   - 401: the session clears itself (expiry hook fires once) and
//     ErrSessionExpired is returned
//   - other non-2xx: *Error with status and backend message
func (s *Session) Do(ctx context.Context, method, path string, query url.Values, body any) (Envelope, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, err
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return s.send(ctx, method, path, query, contentType, reader)
}

// DoMultipart performs an authorized request with a prebuilt multipart body.
func (s *Session) DoMultipart(ctx context.Context, method, path, contentType string, body io.Reader) (Envelope, error) {
	return s.send(ctx, method, path, nil, contentType, body)
}

func (s *Session) send(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (Envelope, error) {
	s.mu.Lock()
	token := s.creds.Token
	s.mu.Unlock()
	if token == "" {
		return Envelope{}, ErrNotAuthenticated
	}

	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return Envelope{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		s.expire(ctx)
		return Envelope{}, ErrSessionExpired
	}
	if resp.StatusCode >= 400 {
		return Envelope{}, &Error{Status: resp.StatusCode, Message: backendMessage(raw)}
	}

	var env Envelope
	if len(raw) == 0 {
		// Status-only responses (e.g. DELETE) have no body.
		return Envelope{Success: true}, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding response for %s %s: %w", method, path, err)
	}
	return env, nil
}

// expire clears credentials after a 401. The stored copy is wiped and the
// expiry hook fires exactly once, even when several in-flight requests hit
// 401 with the same stale token.
func (s *Session) expire(ctx context.Context) {
	s.mu.Lock()
	s.creds = Credentials{}
	var fn func()
	if !s.expiredFired {
		s.expiredFired = true
		fn = s.onExpired
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.log.Warn(ctx, "clearing stored credentials failed", "err", err)
		}
	}
	s.log.Warn(ctx, "session expired, credentials cleared")
	if fn != nil {
		fn()
	}
}

// backendMessage extracts the human-readable message from an error body,
// falling back to "" when the body is not the standard envelope.
func backendMessage(raw []byte) string {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Message
}
