package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyunwoopark/shopfront/internal/cart"
	"github.com/hyunwoopark/shopfront/internal/payment"
	"github.com/hyunwoopark/shopfront/pkg/collection"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Checkout and settle payment redirects",
}

var checkoutFlags struct {
	merchantUID string
	method      string
	buyerName   string
	buyerTel    string
	postcode    string
	addr        string
	request     string
	shippingFee int64
}

// shopfront order checkout
var orderCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Stage the current cart for payment",
	Long: "Freezes the cart and delivery details into the staged checkout record.\n" +
		"Pay in the gateway's window, then settle the redirect with\n" +
		"'shopfront order confirm'.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		items := a.cart.Items()
		if len(items) == 0 {
			return fmt.Errorf("cart is empty")
		}

		f := checkoutFlags
		if f.merchantUID == "" {
			f.merchantUID = fmt.Sprintf("mid_%d", time.Now().UnixMilli())
		}

		staged := payment.Pending{
			MerchantUID: f.merchantUID,
			PaymentInfo: payment.Info{
				Method:          f.method,
				BuyerName:       f.buyerName,
				BuyerTel:        f.buyerTel,
				BuyerPostcode:   f.postcode,
				BuyerAddr:       f.addr,
				DeliveryRequest: f.request,
			},
			OrderData: payment.OrderData{
				Products: collection.Map(items, func(it cart.Item) payment.StagedProduct {
					return payment.StagedProduct{
						ProductItemID: it.ProductItemID,
						Name:          it.Name,
						Quantity:      it.Quantity,
						Price:         it.UnitPrice,
						Size:          it.Size,
						Color:         it.Color,
					}
				}),
				ShippingFee: f.shippingFee,
			},
		}

		if err := payment.Stage(a.durable, staged); err != nil {
			return err
		}
		fmt.Printf("Checkout staged under merchantUid %s\n", f.merchantUID)
		fmt.Printf("Amount due: %d\n", a.cart.TotalPrice()+f.shippingFee)
		return nil
	},
}

var confirmDelay time.Duration

// shopfront order confirm
var orderConfirmCmd = &cobra.Command{
	Use:   "confirm <imp-uid> <merchant-uid>",
	Short: "Settle a payment redirect against the staged checkout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		flow := payment.NewFlow(a.api, a.cart, a.durable, a.nav)
		flow.SetRedirectDelay(confirmDelay)

		err = flow.Run(cmd.Context(), args[0], args[1])
		status, message := flow.Status()
		if err != nil {
			if message != "" {
				fmt.Println(message)
			}
			return err
		}
		fmt.Println("Order placed:", status)
		return nil
	},
}

func init() {
	f := orderCheckoutCmd.Flags()
	f.StringVar(&checkoutFlags.merchantUID, "merchant-uid", "", "merchant uid (generated when empty)")
	f.StringVar(&checkoutFlags.method, "method", "card", "payment method")
	f.StringVar(&checkoutFlags.buyerName, "buyer-name", "", "receiver name")
	f.StringVar(&checkoutFlags.buyerTel, "buyer-tel", "", "receiver phone")
	f.StringVar(&checkoutFlags.postcode, "postcode", "", "5-digit postcode")
	f.StringVar(&checkoutFlags.addr, "addr", "", "delivery address")
	f.StringVar(&checkoutFlags.request, "request", "", "delivery request note")
	f.Int64Var(&checkoutFlags.shippingFee, "shipping-fee", 0, "shipping fee")

	orderConfirmCmd.Flags().DurationVar(&confirmDelay, "delay", 2*time.Second, "pause before the final navigation")

	orderCmd.AddCommand(orderCheckoutCmd)
	orderCmd.AddCommand(orderConfirmCmd)
}
