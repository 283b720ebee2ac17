// Package session owns the client's authentication state: the bearer token,
// the signed-in user, and the lifecycle around them (hydrate on startup,
// login, token rotation, logout).
//
// The invariant the whole client leans on: authenticated is true exactly when
// both a token and a user are present, and the two are never updated apart.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/internal/token"
	"github.com/hyunwoopark/shopfront/pkg/event"
	"github.com/hyunwoopark/shopfront/pkg/httpclient"
	"github.com/hyunwoopark/shopfront/pkg/kvstore"
	"github.com/hyunwoopark/shopfront/pkg/logger"
	"github.com/hyunwoopark/shopfront/pkg/metrics"
)

// Event names published on the bus. Payload for EventAuthenticated is *User;
// EventAnonymous carries nil.
const (
	EventAuthenticated = "session.authenticated"
	EventAnonymous     = "session.anonymous"
)

const (
	tokenKey     = "auth_token"    // session-scoped token record
	adminFlagKey = "admin_session" // durable flag marking admin sessions

	// withdrawSettleDelay keeps the withdrawing flag up long enough for
	// in-flight UI transitions to settle before it drops.
	withdrawSettleDelay = 400 * time.Millisecond
)

// User is the identity decoded from the bearer token.
type User struct {
	Email   string `json:"email"`
	IsAdmin int    `json:"isAdmin"`
}

// Sender issues an HTTP request with the current token attached. Implemented
// by the gateway; declared here so the two packages don't import each other.
type Sender interface {
	Send(ctx context.Context, method, path string, data interface{}) (*httpclient.Response, error)
}

type tokenRecord struct {
	Token string `json:"token"`
}

// LogoutOptions controls logout behaviour.
type LogoutOptions struct {
	// SkipRemoteCall suppresses the backend logout request. Set by the
	// gateway when the session is already dead server-side.
	SkipRemoteCall bool

	// IsWithdraw marks an account-deletion teardown; a transient flag is
	// exposed so the UI can suppress intermediate screens.
	IsWithdraw bool

	// Reason is recorded in the logs ("user", "unauthorized", "withdraw").
	Reason string
}

// Store holds the authentication state.
type Store struct {
	mu sync.RWMutex

	user          *User
	token         string
	authenticated bool
	loading       bool
	withdrawing   bool

	sessionStore  kvstore.Store
	durable       kvstore.Store
	bus           *event.Bus
	sender        Sender
	withdrawDelay time.Duration
}

// New builds a Store. The process starts in the loading state until Hydrate
// resolves it. sessionStore holds the token record; durable holds the admin
// session flag.
func New(sessionStore, durable kvstore.Store, bus *event.Bus) *Store {
	return &Store{
		loading:       true,
		sessionStore:  sessionStore,
		durable:       durable,
		bus:           bus,
		withdrawDelay: withdrawSettleDelay,
	}
}

// BindSender attaches the request sender (the gateway). Must be called
// before Login, Logout with a remote call, or Request.
func (s *Store) BindSender(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// ─── Accessors ────────────────────────────────────────────────────────────────

// User returns a copy of the signed-in user, or nil when anonymous.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a user is signed in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Loading reports whether hydration has not yet resolved.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Withdrawing reports the transient account-deletion teardown flag.
func (s *Store) Withdrawing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.withdrawing
}

// CurrentToken returns the freshest known token: the in-memory value when
// present, otherwise whatever is persisted. The fallback covers the window
// before hydration completes.
func (s *Store) CurrentToken() string {
	s.mu.RLock()
	tok := s.token
	s.mu.RUnlock()
	if tok != "" {
		return tok
	}

	var rec tokenRecord
	if ok, err := s.sessionStore.Get(tokenKey, &rec); err == nil && ok {
		return rec.Token
	}
	return ""
}

// ─── Lifecycle ────────────────────────────────────────────────────────────────

// Hydrate resolves the initial state from the persisted token record. Every
// branch ends with loading=false, exactly once.
func (s *Store) Hydrate() {
	defer s.finishLoading()

	var rec tokenRecord
	ok, err := s.sessionStore.Get(tokenKey, &rec)
	if err != nil {
		logger.Warn("session: reading persisted token failed", "error", err)
		s.clearLocal()
		return
	}
	if !ok || rec.Token == "" {
		s.clearLocal()
		return
	}

	claims, err := token.Decode(rec.Token)
	if err != nil {
		// Treat an undecodable persisted token as absent.
		logger.Warn("session: persisted token is malformed, clearing", "error", err)
		_ = s.sessionStore.Delete(tokenKey)
		s.clearLocal()
		return
	}

	s.adopt(rec.Token, claims)
}

// Login authenticates against the backend. The new token arrives in the
// designated response header; ErrNoToken when the header is absent,
// ErrInvalidToken when its value cannot be decoded. On success the token is
// adopted and persisted atomically and the user info returned; the caller
// decides the post-login destination from IsAdmin.
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	sender := s.currentSender()
	if sender == nil {
		return nil, ErrNoSender
	}

	resp, err := sender.Send(ctx, http.MethodPost, "/user/login", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Throw(); err != nil {
		return nil, err
	}

	raw, ok := token.StripBearer(resp.Header(config.TokenHeader()))
	if !ok {
		return nil, ErrNoToken
	}

	claims, err := token.Decode(raw)
	if err != nil {
		return nil, &AuthError{Kind: ErrInvalidToken, Err: err}
	}

	user := s.adopt(raw, claims)
	logger.Info("session: logged in", "email", user.Email, "admin", user.IsAdmin)
	return user, nil
}

// AdoptRotatedToken inspects response headers for a freshly issued bearer
// token and, when present, adopts it exactly like a login. Called by the
// gateway on every response; a no-op when the header is absent.
func (s *Store) AdoptRotatedToken(headers http.Header) {
	raw, ok := token.StripBearer(headers.Get(config.TokenHeader()))
	if !ok {
		return
	}

	claims, err := token.Decode(raw)
	if err != nil {
		logger.Warn("session: rotated token is malformed, ignoring", "error", err)
		return
	}

	metrics.TokenRotations.Inc()
	s.adopt(raw, claims)
}

// Logout tears the session down. The remote call is best-effort: its failure
// is logged and swallowed because local state must clear regardless. Returns
// the remote response when one was received, else nil. Idempotent.
func (s *Store) Logout(ctx context.Context, opts LogoutOptions) *httpclient.Response {
	var result *httpclient.Response

	if !opts.SkipRemoteCall {
		if sender := s.currentSender(); sender != nil {
			resp, err := sender.Send(ctx, http.MethodPost, "/user/logout", nil)
			if err != nil {
				logger.Warn("session: remote logout failed", "error", err)
			} else {
				result = resp
			}
		}
	}

	if opts.IsWithdraw {
		s.mu.Lock()
		s.withdrawing = true
		s.mu.Unlock()
		time.AfterFunc(s.withdrawDelay, func() {
			s.mu.Lock()
			s.withdrawing = false
			s.mu.Unlock()
		})
	}

	s.clearLocal()
	_ = s.sessionStore.Delete(tokenKey)
	_ = s.durable.Delete(adminFlagKey)

	reason := opts.Reason
	if reason == "" {
		reason = "user"
	}
	logger.Info("session: logged out", "reason", reason)
	return result
}

// Request issues an authorized request through the gateway. GET passes data
// as query parameters, every other method as a JSON body.
func (s *Store) Request(ctx context.Context, method, path string, data interface{}) (*httpclient.Response, error) {
	sender := s.currentSender()
	if sender == nil {
		return nil, ErrNoSender
	}
	return sender.Send(ctx, method, path, data)
}

// ─── Internals ────────────────────────────────────────────────────────────────

// adopt installs a decoded token: user, token, authenticated and persistence
// all change together, then the transition event fires.
func (s *Store) adopt(raw string, claims *token.Claims) *User {
	user := &User{Email: claims.Email, IsAdmin: claims.IsAdmin()}

	s.mu.Lock()
	wasAuthenticated := s.authenticated
	s.user = user
	s.token = raw
	s.authenticated = true
	s.mu.Unlock()

	if err := s.sessionStore.Set(tokenKey, tokenRecord{Token: raw}); err != nil {
		logger.Warn("session: persisting token failed", "error", err)
	}
	if user.IsAdmin == 1 {
		_ = s.durable.Set(adminFlagKey, true)
	}

	if !wasAuthenticated {
		u := *user
		s.bus.Fire(EventAuthenticated, &u)
	}
	return user
}

// clearLocal drops in-memory identity and fires the anonymous transition if
// one happened.
func (s *Store) clearLocal() {
	s.mu.Lock()
	wasAuthenticated := s.authenticated
	s.user = nil
	s.token = ""
	s.authenticated = false
	s.mu.Unlock()

	if wasAuthenticated {
		s.bus.Fire(EventAnonymous, nil)
	}
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) currentSender() Sender {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sender
}

// SetWithdrawDelay overrides the withdraw settle delay. Used by tests.
func (s *Store) SetWithdrawDelay(d time.Duration) {
	s.mu.Lock()
	s.withdrawDelay = d
	s.mu.Unlock()
}
