package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyunwoopark/shopfront/internal/api"
	"github.com/hyunwoopark/shopfront/pkg/logger"
	"github.com/hyunwoopark/shopfront/pkg/response"
)

// handleSeedPayment registers a payment as if the gateway had settled it.
// In production the gateway notifies the backend; here the operator (or a
// test) does it with one POST before running the confirmation flow.
func (s *Server) handleSeedPayment(w http.ResponseWriter, r *http.Request) {
	var rec paymentRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if rec.ImpUID == "" || rec.MerchantUID == "" {
		response.Error(w, http.StatusBadRequest, "impUid and merchantUid are required")
		return
	}
	if rec.Status == "" {
		rec.Status = "paid"
	}

	s.mu.Lock()
	s.payments[rec.ImpUID] = rec
	s.mu.Unlock()
	response.Created(w, rec)
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	impUID := chi.URLParam(r, "impUid")

	s.mu.Lock()
	rec, ok := s.payments[impUID]
	s.mu.Unlock()
	if !ok {
		response.Error(w, http.StatusNotFound, "no payment found for impUid")
		return
	}
	response.Success(w, rec)
}

func (s *Server) handleInsertOrder(w http.ResponseWriter, r *http.Request) {
	var order api.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(order.Products) == 0 {
		response.Error(w, http.StatusBadRequest, "order has no products")
		return
	}

	acc := sessionAccount(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: check every line before touching stock.
	for _, line := range order.Products {
		if s.stock[line.ProductItemID] < line.OriginalQuantity {
			response.Error(w, http.StatusBadRequest, "재고 부족")
			return
		}
	}
	for _, line := range order.Products {
		s.stock[line.ProductItemID] -= line.OriginalQuantity
	}

	s.orders = append(s.orders, orderRecord{
		Email:       acc.Email,
		MerchantUID: order.MerchantUID,
		ImpUID:      order.ImpUID,
		TotalPrice:  order.TotalPrice,
		PlacedAt:    time.Now(),
	})
	logger.WithCtx(r.Context()).Info("devserver: order placed",
		"email", acc.Email,
		"merchantUid", order.MerchantUID,
		"total", order.TotalPrice,
	)
	response.Success(w, map[string]string{"merchantUid": order.MerchantUID})
}
