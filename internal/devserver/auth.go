package devserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/internal/token"
	"github.com/hyunwoopark/shopfront/pkg/logger"
	"github.com/hyunwoopark/shopfront/pkg/response"
	"github.com/hyunwoopark/shopfront/pkg/validate"
)

type ctxKey string

const accountKey ctxKey = "devserver.account"

type signupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required,min=2,max=50"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		response.Error(w, http.StatusConflict, "email already registered")
		return
	}
	s.createAccount(req.Email, req.Name, "ROLE_USER", req.Password)
	response.Created(w, map[string]string{"email": req.Email})
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(req.Password)) != nil {
		response.Error(w, http.StatusBadRequest, "invalid email or password")
		return
	}

	signed, err := s.mint(acc)
	if err != nil {
		logger.WithCtx(r.Context()).Error("devserver: minting token failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set(config.TokenHeader(), "Bearer "+signed)
	response.Success(w, map[string]interface{}{
		"email": acc.Email,
		"name":  acc.Name,
		"role":  acc.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens: nothing to revoke server-side. The client drops its
	// copy; the endpoint exists so that drop has a remote acknowledgement.
	response.Success(w, map[string]string{"message": "logged out"})
}

type sendResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleSendPasswordResetEmail(w http.ResponseWriter, r *http.Request) {
	var req sendResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[req.Email]; !ok {
		// Same response either way so the endpoint cannot be used to probe
		// which emails exist.
		response.Success(w, map[string]string{"message": "reset email sent"})
		return
	}

	code := newResetCode()
	s.resetCodes[req.Email] = code
	// No mailer here: the code goes to the server log instead.
	logger.Info("devserver: password reset code issued", "email", req.Email, "code", code)
	response.Success(w, map[string]string{"message": "reset email sent"})
}

type resetPasswordRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Code        string `json:"code"        validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.Email]
	if !ok || s.resetCodes[req.Email] != req.Code {
		response.Error(w, http.StatusBadRequest, "invalid reset code")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	acc.PasswordHash = hash
	delete(s.resetCodes, req.Email)
	response.Success(w, map[string]string{"message": "password updated"})
}

// ─── Session handling ─────────────────────────────────────────────────────────

// requireSession authenticates the bearer token and slides the session: the
// response carries a token with a fresh expiry in the rotation header. An
// expired token means the client idled past the TTL and gets 401, the one
// status the client treats as "session over".
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := token.StripBearer(r.Header.Get("Authorization"))
		if !ok {
			response.Unauthorized(w)
			return
		}

		claims := &token.Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(config.JWTSecret()), nil
		})
		if err != nil {
			response.Unauthorized(w)
			return
		}

		s.mu.Lock()
		acc, ok := s.accounts[claims.Email]
		s.mu.Unlock()
		if !ok {
			response.Unauthorized(w)
			return
		}

		if rotated, err := s.mint(acc); err == nil {
			w.Header().Set(config.TokenHeader(), "Bearer "+rotated)
		} else {
			logger.WithCtx(r.Context()).Error("devserver: rotating token failed", "error", err)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, acc)))
	})
}

func sessionAccount(ctx context.Context) *account {
	acc, _ := ctx.Value(accountKey).(*account)
	return acc
}

func (s *Server) mint(acc *account) (string, error) {
	now := time.Now()
	claims := &token.Claims{
		Email: acc.Email,
		Role:  acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret()))
}

func (s *Server) createAccount(email, name, role, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err) // only reachable with an invalid cost constant
	}
	s.accounts[email] = &account{
		Email:        email,
		Name:         name,
		Role:         strings.ToUpper(role),
		PasswordHash: hash,
	}
}

func newResetCode() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
