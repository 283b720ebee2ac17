// Package payment stages a checkout before the external payment window and
// settles it after the redirect comes back. The staged record is the bridge
// across the hard navigation: written before handing off to the payment
// window, consumed exactly once by ConfirmationFlow.
package payment

import (
	"fmt"

	"github.com/hyunwoopark/shopfront/pkg/kvstore"
	"github.com/hyunwoopark/shopfront/pkg/validate"
)

// stagedKey is the single durable slot for the in-flight checkout. One
// checkout at a time; staging again overwrites.
const stagedKey = "pending_payment"

// Info carries the buyer and delivery fields collected at checkout.
type Info struct {
	Method          string `json:"method"          validate:"required"`
	BuyerName       string `json:"buyerName"       validate:"required,min=2,max=50"`
	BuyerTel        string `json:"buyerTel"        validate:"required,min=9"`
	BuyerPostcode   string `json:"buyerPostcode"   validate:"required,digits=5"`
	BuyerAddr       string `json:"buyerAddr"       validate:"required"`
	DeliveryRequest string `json:"deliveryRequest" validate:"nullable,max=200"`
}

// StagedProduct is one cart line frozen at checkout time.
type StagedProduct struct {
	ProductItemID int64  `json:"productItemId"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
	DiscountRate  int    `json:"discountRate"`
	Size          string `json:"size"`
	Color         string `json:"color"`
}

// FinalPrice is the per-line amount after discount.
func (p StagedProduct) FinalPrice() int64 {
	unit := p.Price * int64(100-p.DiscountRate) / 100
	return unit * int64(p.Quantity)
}

// OrderData is the purchasable content of the staged checkout.
type OrderData struct {
	Products    []StagedProduct `json:"products"`
	ShippingFee int64           `json:"shippingFee"`
}

// Pending is the staged checkout record.
type Pending struct {
	MerchantUID string    `json:"merchantUid" validate:"required"`
	PaymentInfo Info      `json:"paymentInfo"`
	OrderData   OrderData `json:"orderData"`
}

// Stage validates and persists the record under the fixed key, replacing any
// previous staging.
func Stage(store kvstore.Store, p Pending) error {
	if errs := validate.Struct(p.PaymentInfo); validate.HasErrors(errs) {
		return fmt.Errorf("payment: stage: invalid payment info: %v", errs)
	}
	if p.MerchantUID == "" {
		return fmt.Errorf("payment: stage: merchantUid is required")
	}
	if len(p.OrderData.Products) == 0 {
		return fmt.Errorf("payment: stage: no products")
	}
	if err := store.Set(stagedKey, p); err != nil {
		return fmt.Errorf("payment: stage: %w", err)
	}
	return nil
}

// Load reads the staged record; found is false when nothing is staged.
func Load(store kvstore.Store) (p Pending, found bool, err error) {
	found, err = store.Get(stagedKey, &p)
	if err != nil {
		return Pending{}, false, fmt.Errorf("payment: load staged: %w", err)
	}
	return p, found, nil
}

// Discard removes the staged record. Discarding when nothing is staged is a
// no-op.
func Discard(store kvstore.Store) error {
	if err := store.Delete(stagedKey); err != nil {
		return fmt.Errorf("payment: discard staged: %w", err)
	}
	return nil
}
