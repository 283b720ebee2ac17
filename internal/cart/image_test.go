package cart_test

import (
	"testing"

	"github.com/hyunwoopark/shopfront/internal/cart"
)

func TestResolveImageURL(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"plain string", "https://img.example.com/a.jpg", "https://img.example.com/a.jpg"},
		{"json object string", `{"url":"https://img.example.com/b.jpg"}`, "https://img.example.com/b.jpg"},
		{"json array string", `[{"url":"https://img.example.com/c.jpg"}]`, "https://img.example.com/c.jpg"},
		{"decoded object", map[string]interface{}{"url": "https://img.example.com/d.jpg"}, "https://img.example.com/d.jpg"},
		{"decoded object imageUrl", map[string]interface{}{"imageUrl": "https://img.example.com/e.jpg"}, "https://img.example.com/e.jpg"},
		{"decoded array", []interface{}{map[string]interface{}{"src": "https://img.example.com/f.jpg"}}, "https://img.example.com/f.jpg"},
		{"unparseable json falls back raw", `{"url": broke`, `{"url": broke`},
		{"object without url fields", map[string]interface{}{"width": 200.0}, ""},
		{"nil", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cart.ResolveImageURL(tc.in); got != tc.want {
				t.Errorf("ResolveImageURL(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
