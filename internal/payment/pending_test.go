package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyunwoopark/shopfront/internal/payment"
	"github.com/hyunwoopark/shopfront/pkg/kvstore"
)

func TestStageLoadDiscard(t *testing.T) {
	store := kvstore.NewMemory()

	_, found, err := payment.Load(store)
	require.NoError(t, err)
	assert.False(t, found, "nothing staged yet")

	staged := stagedFixture()
	require.NoError(t, payment.Stage(store, staged))

	got, found, err := payment.Load(store)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, staged.MerchantUID, got.MerchantUID)
	assert.Equal(t, staged.OrderData.ShippingFee, got.OrderData.ShippingFee)
	assert.Len(t, got.OrderData.Products, 2)

	require.NoError(t, payment.Discard(store))
	_, found, err = payment.Load(store)
	require.NoError(t, err)
	assert.False(t, found)

	// A second discard is a no-op.
	require.NoError(t, payment.Discard(store))
}

func TestStageOverwritesPrevious(t *testing.T) {
	store := kvstore.NewMemory()

	first := stagedFixture()
	require.NoError(t, payment.Stage(store, first))

	second := stagedFixture()
	second.MerchantUID = "mid_2002"
	require.NoError(t, payment.Stage(store, second))

	got, found, err := payment.Load(store)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "mid_2002", got.MerchantUID, "one checkout slot: staging replaces")
}

func TestStageValidation(t *testing.T) {
	store := kvstore.NewMemory()

	missing := stagedFixture()
	missing.PaymentInfo.BuyerName = ""
	assert.Error(t, payment.Stage(store, missing), "buyer name is required")

	badPostcode := stagedFixture()
	badPostcode.PaymentInfo.BuyerPostcode = "4524"
	assert.Error(t, payment.Stage(store, badPostcode), "postcode must be 5 digits")

	noUID := stagedFixture()
	noUID.MerchantUID = ""
	assert.Error(t, payment.Stage(store, noUID))

	empty := stagedFixture()
	empty.OrderData.Products = nil
	assert.Error(t, payment.Stage(store, empty))

	_, found, _ := payment.Load(store)
	assert.False(t, found, "invalid checkouts must never persist")
}

func TestStagedProductFinalPrice(t *testing.T) {
	p := payment.StagedProduct{Quantity: 2, Price: 10000, DiscountRate: 25}
	assert.Equal(t, int64(15000), p.FinalPrice())

	noDiscount := payment.StagedProduct{Quantity: 3, Price: 5000}
	assert.Equal(t, int64(15000), noDiscount.FinalPrice())
}
