package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyunwoopark/shopfront/internal/api"
	"github.com/hyunwoopark/shopfront/internal/nav"
	"github.com/hyunwoopark/shopfront/pkg/httpclient"
	"github.com/hyunwoopark/shopfront/pkg/kvstore"
	"github.com/hyunwoopark/shopfront/pkg/logger"
	"github.com/hyunwoopark/shopfront/pkg/metrics"
)

// Flow states. The transition NotStarted→Running happens exactly once per
// Flow, before any network work, so a duplicated redirect landing cannot
// confirm the same payment twice.
const (
	stateNotStarted int32 = iota
	stateRunning
	stateDone
)

// Observable statuses, in the order a successful run passes through them.
const (
	StatusIdle      = "idle"
	StatusChecking  = "checking"
	StatusVerifying = "verifying"
	StatusOrdering  = "placing order"
	StatusComplete  = "complete"
	StatusFailed    = "failed"
)

// MismatchError means the redirect's merchantUid does not belong to the
// staged checkout. The staged record is left untouched: the real redirect
// for it may still arrive.
type MismatchError struct {
	Staged string
	Got    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("payment: merchantUid mismatch: staged %q, redirect carried %q", e.Staged, e.Got)
}

// ProcessingError means verification or order placement failed after the
// payment window closed. The staged record has been discarded. The payment
// may already be consumed, so the flow never retries it.
type ProcessingError struct {
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("payment: processing failed: %s", e.Message)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Backend is the slice of the API client the flow needs.
type Backend interface {
	VerifyPayment(ctx context.Context, impUID string) (*api.Verification, error)
	InsertOrder(ctx context.Context, order api.OrderRequest) error
}

// CartClearer empties the cart after a confirmed order.
type CartClearer interface {
	Clear() error
}

// Flow settles one payment redirect. Build a fresh Flow per landing; Run is
// a no-op after the first call.
type Flow struct {
	state atomic.Int32

	backend Backend
	cart    CartClearer
	store   kvstore.Store
	nav     nav.Navigator
	delay   time.Duration

	mu      sync.Mutex
	status  string
	message string
}

func NewFlow(backend Backend, cart CartClearer, store kvstore.Store, navigator nav.Navigator) *Flow {
	return &Flow{
		backend: backend,
		cart:    cart,
		store:   store,
		nav:     navigator,
		delay:   2 * time.Second,
		status:  StatusIdle,
	}
}

// SetRedirectDelay overrides the pause before the final navigation.
func (f *Flow) SetRedirectDelay(d time.Duration) { f.delay = d }

// Status returns the current observable step, plus the user-facing message
// when the flow has failed.
func (f *Flow) Status() (status, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.message
}

// Run confirms the payment the redirect reported. Only the first call does
// anything; later calls return nil immediately regardless of the first
// call's outcome.
func (f *Flow) Run(ctx context.Context, impUID, merchantUID string) error {
	if !f.state.CompareAndSwap(stateNotStarted, stateRunning) {
		return nil
	}
	defer f.state.Store(stateDone)

	f.setStatus(StatusChecking, "")

	staged, found, err := Load(f.store)
	if err != nil {
		return f.abort(fmt.Errorf("payment: run: %w", err))
	}
	if !found {
		return f.abort(errors.New("payment: run: no staged checkout"))
	}
	if impUID == "" {
		return f.abort(errors.New("payment: run: redirect carried no impUid"))
	}
	if staged.MerchantUID != merchantUID {
		metrics.PaymentConfirmations.WithLabelValues("mismatch").Inc()
		err := &MismatchError{Staged: staged.MerchantUID, Got: merchantUID}
		f.setStatus(StatusFailed, "payment record mismatch")
		f.nav.Go("/order")
		return err
	}

	f.setStatus(StatusVerifying, "")
	verification, err := f.backend.VerifyPayment(ctx, impUID)
	if err != nil {
		return f.fail(err)
	}
	if verification.Status != "paid" {
		return f.fail(fmt.Errorf("payment: gateway reported status %q", verification.Status))
	}
	if expected := staged.total(); verification.Amount != expected {
		return f.fail(fmt.Errorf("payment: amount mismatch: paid %d, order totals %d", verification.Amount, expected))
	}

	f.setStatus(StatusOrdering, "")
	if err := f.backend.InsertOrder(ctx, f.orderRequest(staged, impUID)); err != nil {
		return f.fail(err)
	}

	if err := Discard(f.store); err != nil {
		logger.Warn("payment: discarding settled checkout failed", "error", err)
	}
	if err := f.cart.Clear(); err != nil {
		logger.Warn("payment: clearing cart after order failed", "error", err)
	}

	metrics.PaymentConfirmations.WithLabelValues("success").Inc()
	f.setStatus(StatusComplete, "")
	time.Sleep(f.delay)
	f.nav.Go("/order/complete")
	return nil
}

// ─── Internals ────────────────────────────────────────────────────────────────

// abort handles step-1 failures: nothing was sent to the backend, so the
// staged record stays where it is.
func (f *Flow) abort(err error) error {
	metrics.PaymentConfirmations.WithLabelValues("failed").Inc()
	f.setStatus(StatusFailed, deriveMessage(err))
	f.nav.Go("/order")
	return err
}

// fail handles failures after the payment window: the payment may already be
// consumed, so the staged record is discarded unconditionally and never
// retried.
func (f *Flow) fail(err error) error {
	if derr := Discard(f.store); derr != nil {
		logger.Warn("payment: discarding failed checkout failed", "error", derr)
	}

	msg := deriveMessage(err)
	metrics.PaymentConfirmations.WithLabelValues("failed").Inc()
	f.setStatus(StatusFailed, msg)
	time.Sleep(f.delay)
	f.nav.Go("/order")
	return &ProcessingError{Message: msg, Err: err}
}

func (f *Flow) setStatus(status, message string) {
	f.mu.Lock()
	f.status = status
	f.message = message
	f.mu.Unlock()
}

// deriveMessage prefers the backend's structured message, then the plain
// error text, then a generic fallback.
func deriveMessage(err error) string {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		if msg := se.ServerMessage(); msg != "" {
			return msg
		}
	}
	if err != nil {
		return err.Error()
	}
	return "payment processing failed"
}

func (f *Flow) orderRequest(staged Pending, impUID string) api.OrderRequest {
	lines := make([]api.OrderLine, 0, len(staged.OrderData.Products))
	var total int64
	for _, p := range staged.OrderData.Products {
		final := p.FinalPrice()
		total += final
		lines = append(lines, api.OrderLine{
			ProductItemID:    p.ProductItemID,
			OriginalQuantity: p.Quantity,
			Price:            p.Price,
			DiscountRate:     p.DiscountRate,
			FinalPrice:       final,
			Size:             p.Size,
			Color:            p.Color,
		})
	}

	info := staged.PaymentInfo
	return api.OrderRequest{
		MerchantUID:     staged.MerchantUID,
		ImpUID:          impUID,
		Products:        lines,
		ReceiverName:    info.BuyerName,
		ReceiverPhone:   info.BuyerTel,
		Address:         info.BuyerAddr,
		AddressDetail:   "",
		Zipcode:         info.BuyerPostcode,
		DeliveryMessage: info.DeliveryRequest,
		ShippingFee:     staged.OrderData.ShippingFee,
		TotalPrice:      total + staged.OrderData.ShippingFee,
	}
}

// total is the amount the gateway should have charged.
func (p Pending) total() int64 {
	var sum int64
	for _, line := range p.OrderData.Products {
		sum += line.FinalPrice()
	}
	return sum + p.OrderData.ShippingFee
}
