// Package api wraps the storefront backend endpoints that do not belong to
// the session lifecycle. Calls go through a Doer so every request picks up
// the gateway's token handling.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hyunwoopark/shopfront/pkg/httpclient"
)

// Doer issues one authenticated request. *gateway.Gateway satisfies it.
type Doer interface {
	Send(ctx context.Context, method, path string, data interface{}) (*httpclient.Response, error)
}

// Client is a thin typed layer over the backend's JSON endpoints.
type Client struct {
	doer Doer
}

func New(doer Doer) *Client {
	return &Client{doer: doer}
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, email, password, name string) error {
	resp, err := c.doer.Send(ctx, http.MethodPost, "/user/signup", map[string]interface{}{
		"email":    email,
		"password": password,
		"name":     name,
	})
	if err != nil {
		return fmt.Errorf("api: signup: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("api: signup: %w", err)
	}
	return nil
}

// SendPasswordResetEmail asks the backend to mail a reset code to email.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) error {
	resp, err := c.doer.Send(ctx, http.MethodPost, "/user/sendPasswordResetEmail", map[string]interface{}{
		"email": email,
	})
	if err != nil {
		return fmt.Errorf("api: send password reset email: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("api: send password reset email: %w", err)
	}
	return nil
}

// ResetPassword exchanges the mailed code for a new password.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	resp, err := c.doer.Send(ctx, http.MethodPost, "/user/resetPassword", map[string]interface{}{
		"email":       email,
		"code":        code,
		"newPassword": newPassword,
	})
	if err != nil {
		return fmt.Errorf("api: reset password: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("api: reset password: %w", err)
	}
	return nil
}

// Verification is the payment gateway's record of a completed payment, as
// relayed by the backend.
type Verification struct {
	ImpUID      string `json:"impUid"`
	MerchantUID string `json:"merchantUid"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
}

// VerifyPayment asks the backend to confirm impUID with the payment gateway
// and returns the gateway's record.
func (c *Client) VerifyPayment(ctx context.Context, impUID string) (*Verification, error) {
	resp, err := c.doer.Send(ctx, http.MethodPost, "/payment/verify/"+impUID, nil)
	if err != nil {
		return nil, fmt.Errorf("api: verify payment: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return nil, fmt.Errorf("api: verify payment: %w", err)
	}

	// The backend wraps payloads in a {data: ...} envelope; some deployments
	// return the record bare. Accept both.
	var wrapped struct {
		Data Verification `json:"data"`
	}
	if err := resp.JSON(&wrapped); err == nil && wrapped.Data.ImpUID != "" {
		return &wrapped.Data, nil
	}
	var v Verification
	if err := resp.JSON(&v); err != nil {
		return nil, fmt.Errorf("api: verify payment: %w", err)
	}
	return &v, nil
}

// OrderLine is one purchased variant as the order endpoint expects it.
type OrderLine struct {
	ProductItemID    int64  `json:"productItemId"`
	OriginalQuantity int    `json:"originalQuantity"`
	Price            int64  `json:"price"`
	DiscountRate     int    `json:"discountRate"`
	FinalPrice       int64  `json:"finalPrice"`
	Size             string `json:"size"`
	Color            string `json:"color"`
}

// OrderRequest is the full order record persisted after a verified payment.
type OrderRequest struct {
	MerchantUID     string      `json:"merchantUid"`
	ImpUID          string      `json:"impUid"`
	Products        []OrderLine `json:"products"`
	ReceiverName    string      `json:"receiverName"`
	ReceiverPhone   string      `json:"receiverPhone"`
	Address         string      `json:"address"`
	AddressDetail   string      `json:"addressDetail"`
	Zipcode         string      `json:"zipcode"`
	DeliveryMessage string      `json:"deliveryMessage"`
	ShippingFee     int64       `json:"shippingFee"`
	TotalPrice      int64       `json:"totalPrice"`
}

// InsertOrder persists the order on the backend. The backend is the
// authority on stock; it may still refuse here even after verification.
func (c *Client) InsertOrder(ctx context.Context, order OrderRequest) error {
	resp, err := c.doer.Send(ctx, http.MethodPost, "/order/insertOrder", order)
	if err != nil {
		return fmt.Errorf("api: insert order: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("api: insert order: %w", err)
	}
	return nil
}
