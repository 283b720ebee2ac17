package httpclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendAndDecode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("query page = %q", r.URL.Query().Get("page"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"hat"}`))
	}))
	defer ts.Close()

	resp, err := Get(ts.URL).
		Bearer("tok").
		Query(map[string]string{"page": "2"}).
		Send()
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := resp.JSON(&body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "hat" {
		t.Errorf("Name = %q", body.Name)
	}
}

func TestTransportErrorOnRefusedConnection(t *testing.T) {
	_, err := Get("http://127.0.0.1:1/unreachable").Send()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsTransportError(err) {
		t.Errorf("err = %v, want *TransportError", err)
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatal("cannot unwrap TransportError")
	}
	if te.Method != http.MethodGet {
		t.Errorf("Method = %q", te.Method)
	}
}

func TestThrowAndServerMessage(t *testing.T) {
	resp := &Response{StatusCode: 400, Raw: []byte(`{"status":400,"message":"재고 부족"}`)}

	err := resp.Throw()
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Throw = %v, want *StatusError", err)
	}
	if se.StatusCode != 400 {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if got := se.ServerMessage(); got != "재고 부족" {
		t.Errorf("ServerMessage = %q", got)
	}
}

func TestServerMessageFallsBackToErrorField(t *testing.T) {
	se := &StatusError{StatusCode: 500, Body: []byte(`{"error":"boom"}`)}
	if got := se.ServerMessage(); got != "boom" {
		t.Errorf("ServerMessage = %q", got)
	}

	se = &StatusError{StatusCode: 500, Body: []byte(`not json`)}
	if got := se.ServerMessage(); got != "" {
		t.Errorf("ServerMessage on junk body = %q, want empty", got)
	}
}

func TestThrowPassesOn2xx(t *testing.T) {
	resp := &Response{StatusCode: 201}
	if err := resp.Throw(); err != nil {
		t.Errorf("Throw on 201 = %v", err)
	}
}
