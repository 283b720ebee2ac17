// Package testkit provides test doubles for the shopfront client.
//
// MockTransport implements http.RoundTripper: it matches outgoing requests
// against scripted stubs and returns synthetic responses instead of touching
// the network. Install it on the shared client before the test:
//
//	mt := testkit.NewTransport(
//	    testkit.Stub{Method: "POST", URL: "/user/login", Status: 200,
//	        Header: map[string]string{"Authorization": "Bearer " + token}},
//	)
//	httpclient.DefaultClient.Transport = mt
//	defer httpclient.ResetTransport()
package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Stub describes one scripted response. URL is matched as a substring of the
// full request URL; empty Method matches any method.
type Stub struct {
	Method string
	URL    string
	Status int
	Body   string            // response body, usually JSON
	Header map[string]string // extra response headers (e.g. the rotation header)
	Err    error             // when set, the round trip fails with this error
}

// Call records one intercepted request.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// MockTransport is a scripted http.RoundTripper.
type MockTransport struct {
	mu    sync.Mutex
	stubs []stubEntry
	calls []Call
}

type stubEntry struct {
	stub  Stub
	count int
}

// NewTransport builds a MockTransport from the given stubs. Stubs are
// matched in order; the first match wins and may be hit repeatedly.
func NewTransport(stubs ...Stub) *MockTransport {
	mt := &MockTransport{}
	for _, s := range stubs {
		mt.stubs = append(mt.stubs, stubEntry{stub: s})
	}
	return mt
}

// RoundTrip intercepts the outgoing request and returns a synthetic response.
// Requests with no matching stub get a 404 so a missing stub fails loudly in
// assertions rather than panicking mid-flow.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls = append(mt.calls, Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})

	for i := range mt.stubs {
		entry := &mt.stubs[i]
		if entry.stub.Method != "" && entry.stub.Method != req.Method {
			continue
		}
		if !strings.Contains(req.URL.String(), entry.stub.URL) {
			continue
		}

		entry.count++
		if entry.stub.Err != nil {
			return nil, entry.stub.Err
		}
		return buildResponse(req, entry.stub), nil
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader(`{"message":"no stub configured"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Calls returns every intercepted request in order.
func (mt *MockTransport) Calls() []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	out := make([]Call, len(mt.calls))
	copy(out, mt.calls)
	return out
}

// CallsTo returns the intercepted requests whose URL contains fragment.
func (mt *MockTransport) CallsTo(fragment string) []Call {
	var out []Call
	for _, c := range mt.Calls() {
		if strings.Contains(c.URL, fragment) {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many intercepted requests matched fragment.
func (mt *MockTransport) CallCount(fragment string) int {
	return len(mt.CallsTo(fragment))
}

// Unused returns a description of every stub that was never hit.
func (mt *MockTransport) Unused() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var out []string
	for _, e := range mt.stubs {
		if e.count == 0 {
			out = append(out, fmt.Sprintf("%s %s", e.stub.Method, e.stub.URL))
		}
	}
	return out
}

func buildResponse(req *http.Request, s Stub) *http.Response {
	code := s.Status
	if code == 0 {
		code = http.StatusOK
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	for k, v := range s.Header {
		header.Set(k, v)
	}

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.Body))),
		Request:    req,
	}
}
