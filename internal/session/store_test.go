package session_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/internal/session"
	"github.com/hyunwoopark/shopfront/pkg/event"
	"github.com/hyunwoopark/shopfront/pkg/httpclient"
	"github.com/hyunwoopark/shopfront/pkg/kvstore"
)

func mint(t *testing.T, email, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"email": email, "role": role, "exp": time.Now().Add(time.Hour).Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

// fakeSender stands in for the gateway.
type fakeSender struct {
	resp  *httpclient.Response
	err   error
	calls []string
}

func (f *fakeSender) Send(_ context.Context, method, path string, _ interface{}) (*httpclient.Response, error) {
	f.calls = append(f.calls, method+" "+path)
	return f.resp, f.err
}

func okWithToken(raw string) *httpclient.Response {
	h := http.Header{}
	h.Set(config.TokenHeader(), "Bearer "+raw)
	return &httpclient.Response{StatusCode: 200, Headers: h, Raw: []byte(`{"data":{}}`)}
}

func newStore(t *testing.T) (*session.Store, kvstore.Store, kvstore.Store, *event.Bus) {
	t.Helper()
	sessionKV := kvstore.NewMemory()
	durable := kvstore.NewMemory()
	bus := event.NewBus()
	return session.New(sessionKV, durable, bus), sessionKV, durable, bus
}

func TestHydrateWithoutRecord(t *testing.T) {
	s, _, _, _ := newStore(t)

	if !s.Loading() {
		t.Fatal("store not loading before Hydrate")
	}
	s.Hydrate()

	if s.Loading() {
		t.Error("still loading after Hydrate")
	}
	if s.Authenticated() {
		t.Error("authenticated with no persisted token")
	}
	if s.User() != nil {
		t.Error("user present with no persisted token")
	}
}

func TestHydrateWithPersistedToken(t *testing.T) {
	s, sessionKV, _, bus := newStore(t)

	var gotUser *session.User
	bus.Listen(session.EventAuthenticated, func(p interface{}) {
		gotUser, _ = p.(*session.User)
	})

	raw := mint(t, "admin@example.com", "ROLE_ADMIN")
	if err := sessionKV.Set("auth_token", map[string]string{"token": raw}); err != nil {
		t.Fatal(err)
	}

	s.Hydrate()

	if !s.Authenticated() {
		t.Fatal("not authenticated after hydrating a valid token")
	}
	user := s.User()
	if user == nil || user.Email != "admin@example.com" || user.IsAdmin != 1 {
		t.Errorf("user = %+v", user)
	}
	if gotUser == nil || gotUser.Email != "admin@example.com" {
		t.Errorf("authenticated event payload = %+v", gotUser)
	}
	if got := s.CurrentToken(); got != raw {
		t.Errorf("CurrentToken = %q, want the persisted token", got)
	}
}

func TestHydrateClearsMalformedToken(t *testing.T) {
	s, sessionKV, _, _ := newStore(t)

	if err := sessionKV.Set("auth_token", map[string]string{"token": "garbage"}); err != nil {
		t.Fatal(err)
	}

	s.Hydrate()

	if s.Authenticated() {
		t.Error("authenticated despite malformed token")
	}
	var rec map[string]string
	if ok, _ := sessionKV.Get("auth_token", &rec); ok {
		t.Error("malformed token record not deleted")
	}
	if s.Loading() {
		t.Error("still loading after Hydrate")
	}
}

func TestLoginAdoptsHeaderToken(t *testing.T) {
	s, sessionKV, _, _ := newStore(t)
	raw := mint(t, "user@example.com", "ROLE_USER")
	s.BindSender(&fakeSender{resp: okWithToken(raw)})

	user, err := s.Login(context.Background(), "user@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "user@example.com" || user.IsAdmin != 0 {
		t.Errorf("user = %+v", user)
	}
	if !s.Authenticated() {
		t.Error("not authenticated after login")
	}

	var rec map[string]string
	ok, _ := sessionKV.Get("auth_token", &rec)
	if !ok || rec["token"] != raw {
		t.Errorf("persisted token record = %v", rec)
	}
}

func TestLoginWithoutHeaderToken(t *testing.T) {
	s, _, _, _ := newStore(t)
	s.BindSender(&fakeSender{resp: &httpclient.Response{StatusCode: 200, Headers: http.Header{}, Raw: []byte(`{}`)}})

	if _, err := s.Login(context.Background(), "u@example.com", "pw"); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
	if s.Authenticated() {
		t.Error("authenticated after failed login")
	}
}

func TestLoginWithUndecodableToken(t *testing.T) {
	s, _, _, _ := newStore(t)
	s.BindSender(&fakeSender{resp: okWithToken("not-a-jwt")})

	_, err := s.Login(context.Background(), "u@example.com", "pw")
	if !errors.Is(err, session.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAdoptRotatedToken(t *testing.T) {
	s, _, _, _ := newStore(t)
	s.BindSender(&fakeSender{resp: okWithToken(mint(t, "user@example.com", "ROLE_USER"))})
	if _, err := s.Login(context.Background(), "user@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	rotated := mint(t, "user@example.com", "ROLE_USER")
	h := http.Header{}
	h.Set(config.TokenHeader(), "Bearer "+rotated)
	s.AdoptRotatedToken(h)

	if got := s.CurrentToken(); got != rotated {
		t.Errorf("CurrentToken = %q, want the rotated token", got)
	}
	if !s.Authenticated() {
		t.Error("rotation dropped authentication")
	}

	// Absent header: no-op.
	s.AdoptRotatedToken(http.Header{})
	if got := s.CurrentToken(); got != rotated {
		t.Error("empty rotation header changed the token")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	s, sessionKV, durable, bus := newStore(t)
	s.BindSender(&fakeSender{resp: okWithToken(mint(t, "admin@example.com", "ROLE_ADMIN"))})
	if _, err := s.Login(context.Background(), "admin@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	anonymousFires := 0
	bus.Listen(session.EventAnonymous, func(interface{}) { anonymousFires++ })

	s.Logout(context.Background(), session.LogoutOptions{SkipRemoteCall: true})
	s.Logout(context.Background(), session.LogoutOptions{SkipRemoteCall: true})

	if s.Authenticated() || s.User() != nil || s.CurrentToken() != "" {
		t.Error("state survived logout")
	}
	var rec map[string]string
	if ok, _ := sessionKV.Get("auth_token", &rec); ok {
		t.Error("token record survived logout")
	}
	var flag bool
	if ok, _ := durable.Get("admin_session", &flag); ok {
		t.Error("admin flag survived logout")
	}
	if anonymousFires != 1 {
		t.Errorf("anonymous event fired %d times, want 1", anonymousFires)
	}
}

func TestLogoutSwallowsRemoteFailure(t *testing.T) {
	s, _, _, _ := newStore(t)
	sender := &fakeSender{resp: okWithToken(mint(t, "u@example.com", "ROLE_USER"))}
	s.BindSender(sender)
	if _, err := s.Login(context.Background(), "u@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	sender.resp = nil
	sender.err = errors.New("backend down")
	s.Logout(context.Background(), session.LogoutOptions{Reason: "user logout"})

	if s.Authenticated() {
		t.Error("remote failure prevented local teardown")
	}
}

func TestWithdrawFlagSettles(t *testing.T) {
	s, _, _, _ := newStore(t)
	s.SetWithdrawDelay(10 * time.Millisecond)

	s.Logout(context.Background(), session.LogoutOptions{SkipRemoteCall: true, IsWithdraw: true})

	if !s.Withdrawing() {
		t.Fatal("withdrawing flag not raised")
	}

	deadline := time.Now().Add(time.Second)
	for s.Withdrawing() {
		if time.Now().After(deadline) {
			t.Fatal("withdrawing flag never settled")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestUnboundSenderIsAnError(t *testing.T) {
	s, _, _, _ := newStore(t)

	if _, err := s.Login(context.Background(), "user@shopfront.local", "password123!"); !errors.Is(err, session.ErrNoSender) {
		t.Fatalf("Login without a bound sender: got %v, want ErrNoSender", err)
	}
	if _, err := s.Request(context.Background(), http.MethodGet, "/products", nil); !errors.Is(err, session.ErrNoSender) {
		t.Fatalf("Request without a bound sender: got %v, want ErrNoSender", err)
	}
}
