// Package gateway wraps every outbound request the client makes:
//
//	send(request) = attachAuth(request) |> transport |> handleRotationAndAuth
//
// attachAuth puts the freshest known bearer token on the request.
// handleRotationAndAuth adopts a rotated token from the response headers and
// turns a 401 into a forced logout plus a hard redirect to the login page;
// a 401 at this layer always means the refresh token itself has expired
// (access-token expiry is resolved transparently by the server via rotation).
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/internal/nav"
	"github.com/hyunwoopark/shopfront/internal/session"
	"github.com/hyunwoopark/shopfront/pkg/httpclient"
	"github.com/hyunwoopark/shopfront/pkg/logger"
	"github.com/hyunwoopark/shopfront/pkg/metrics"
)

// SessionExpiredError is returned when the backend answered 401: the session
// is unrecoverable locally and the user has been sent to the login page.
type SessionExpiredError struct {
	Path string // the request path that triggered it
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("gateway: session expired on %s, re-authentication required", e.Path)
}

// Gateway issues authorized requests against the backend.
type Gateway struct {
	base      string
	store     *session.Store
	navigator nav.Navigator
}

// New builds a Gateway over the session store and binds itself as the
// store's sender.
func New(store *session.Store, navigator nav.Navigator) *Gateway {
	g := &Gateway{
		base:      config.APIBaseURL(),
		store:     store,
		navigator: navigator,
	}
	store.BindSender(g)
	return g
}

// Send performs one request. path is joined onto the configured base URL
// unless it is already absolute. For GET, data is encoded as query
// parameters; for every other method it becomes the JSON body.
func (g *Gateway) Send(ctx context.Context, method, path string, data interface{}) (*httpclient.Response, error) {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = g.base + path
	}

	req := httpclient.New(method, url).WithContext(ctx)

	// attachAuth: in-memory token first, persisted fallback pre-hydration.
	if tok := g.store.CurrentToken(); tok != "" {
		req.Bearer(tok)
	}

	if data != nil {
		if method == http.MethodGet {
			req.Query(toQuery(data))
		} else {
			req.Body(data)
		}
	}

	resp, err := req.Send()
	if err != nil {
		// No response received. Connectivity problems are never treated as
		// an auth failure.
		metrics.OutboundRequests.WithLabelValues(method, "transport_error").Inc()
		return nil, err
	}
	metrics.OutboundRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	// handleRotationAndAuth: every response may carry a rotated token.
	g.store.AdoptRotatedToken(resp.Headers)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, g.handleUnauthorized(path)
	}

	return resp, nil
}

// handleUnauthorized tears the session down and hard-navigates to the login
// page matching the current section of the app.
func (g *Gateway) handleUnauthorized(path string) error {
	metrics.ForcedLogouts.Inc()
	logger.Warn("gateway: unauthorized response, forcing logout", "path", path)

	g.store.Logout(context.Background(), session.LogoutOptions{
		SkipRemoteCall: true,
		Reason:         "unauthorized",
	})

	login := "/login"
	if strings.HasPrefix(g.navigator.CurrentPath(), "/admin") {
		login = "/admin/login"
	}
	g.navigator.Redirect(login)

	return &SessionExpiredError{Path: path}
}

// toQuery flattens data into string query parameters. Maps are the expected
// shape; anything else is ignored with a warning since GET bodies are not
// supported.
func toQuery(data interface{}) map[string]string {
	out := map[string]string{}
	switch m := data.(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]interface{}:
		for k, v := range m {
			out[k] = fmt.Sprintf("%v", v)
		}
	default:
		logger.Warn("gateway: unsupported GET data shape, ignoring", "type", fmt.Sprintf("%T", data))
	}
	return out
}
