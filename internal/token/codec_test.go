package token

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mint(t *testing.T, email, role string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"email": email, "role": role, "exp": expiresAt.Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestDecode(t *testing.T) {
	raw := mint(t, "user@example.com", "ROLE_USER", time.Now().Add(time.Hour))

	claims, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("email = %q, want user@example.com", claims.Email)
	}
	if claims.Role != "ROLE_USER" {
		t.Errorf("role = %q, want ROLE_USER", claims.Role)
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	raw := mint(t, "a@b.com", "ROLE_ADMIN", time.Now().Add(time.Hour))

	first, err := Decode(raw)
	if err != nil {
		t.Fatalf("first Decode: %v", err)
	}
	second, err := Decode(raw)
	if err != nil {
		t.Fatalf("second Decode: %v", err)
	}
	if !reflect.DeepEqual(*first, *second) && (first.Email != second.Email || first.Role != second.Role) {
		t.Errorf("same input decoded differently: %+v vs %+v", first, second)
	}
}

func TestDecodeExpiredToken(t *testing.T) {
	// Validity is the server's call; the client still reads the identity.
	raw := mint(t, "user@example.com", "ROLE_USER", time.Now().Add(-time.Hour))

	claims, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode of expired token: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.b.c"} {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestDecodeMissingEmail(t *testing.T) {
	claims := jwt.MapClaims{"role": "ROLE_USER"}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestIsAdmin(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{"ROLE_ADMIN", 1},
		{"admin", 1},
		{"Admin", 1},
		{"ROLE_USER", 0},
		{"user", 0},
		{"", 0},
		{"administrator", 0},
	}
	for _, tc := range cases {
		c := &Claims{Role: tc.role}
		if got := c.IsAdmin(); got != tc.want {
			t.Errorf("IsAdmin(%q) = %d, want %d", tc.role, got, tc.want)
		}
	}
}

func TestStripBearer(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer abc.def.ghi  ", "abc.def.ghi", true},
		{"abc.def.ghi", "abc.def.ghi", true}, // prefixless values pass through
		{"", "", false},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, ok := StripBearer(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("StripBearer(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
