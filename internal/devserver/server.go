// Package devserver is a self-contained stub backend for local development.
// It implements the same endpoint contract the real storefront backend
// exposes (header-carried login tokens, sliding rotation on every
// authenticated response, 401 once a session goes idle past the TTL) so the
// CLI and the scenario tests can run end-to-end against localhost.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/pkg/logger"
	"github.com/hyunwoopark/shopfront/pkg/metrics"
	"github.com/hyunwoopark/shopfront/pkg/reqid"
	"github.com/hyunwoopark/shopfront/pkg/response"
)

// sessionTTL is the sliding idle window. Every authenticated response
// carries a token stamped with a fresh expiry; a client idle longer than
// this gets 401 on its next request.
const sessionTTL = 30 * time.Minute

type account struct {
	Email        string
	Name         string
	Role         string
	PasswordHash []byte
}

type paymentRecord struct {
	ImpUID      string `json:"impUid"`
	MerchantUID string `json:"merchantUid"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
}

type orderRecord struct {
	Email       string
	MerchantUID string
	ImpUID      string
	TotalPrice  int64
	PlacedAt    time.Time
}

// Server holds all state in memory; restarting it resets the world.
type Server struct {
	mu         sync.Mutex
	accounts   map[string]*account
	resetCodes map[string]string
	payments   map[string]paymentRecord
	stock      map[int64]int
	orders     []orderRecord

	router chi.Router
}

func New() *Server {
	s := &Server{
		accounts:   map[string]*account{},
		resetCodes: map[string]string{},
		payments:   map[string]paymentRecord{},
		stock:      map[int64]int{},
	}
	s.seed()
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(reqid.Middleware())
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "up"})
	})
	r.Get("/metrics", metrics.Handler())

	r.Post("/user/signup", s.handleSignup)
	r.Post("/user/login", s.handleLogin)
	r.Post("/user/sendPasswordResetEmail", s.handleSendPasswordResetEmail)
	r.Post("/user/resetPassword", s.handleResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/user/logout", s.handleLogout)
		r.Post("/payment/verify/{impUid}", s.handleVerifyPayment)
		r.Post("/order/insertOrder", s.handleInsertOrder)
	})

	// Development-only: lets the operator stand in for the payment gateway.
	r.Post("/devserver/payments", s.handleSeedPayment)

	s.router = r
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + config.DevserverPort(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("devserver: listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// seed plants a catalogue's worth of stock and a couple of accounts so the
// CLI works out of the box. Password for both accounts is "password123!".
func (s *Server) seed() {
	for id, qty := range map[int64]int{101: 12, 102: 4, 103: 0, 201: 30, 202: 1} {
		s.stock[id] = qty
	}
	s.createAccount("admin@shopfront.local", "Admin", "ROLE_ADMIN", "password123!")
	s.createAccount("user@shopfront.local", "Demo User", "ROLE_USER", "password123!")
}

// ─── Middleware ───────────────────────────────────────────────────────────────

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.WithCtx(r.Context()).Info("devserver: request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithCtx(r.Context()).Error("devserver: panic recovered", "panic", rec)
				response.Error(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
