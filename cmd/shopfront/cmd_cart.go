package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyunwoopark/shopfront/internal/cart"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the signed-in user's cart",
}

var cartAddFlags struct {
	productID    int64
	name         string
	categoryID   int64
	categoryCode string
	productCode  string
	price        int64
	image        string
	size         string
	color        string
	stock        int
	qty          int
}

// shopfront cart add
var cartAddCmd = &cobra.Command{
	Use:   "add <product-item-id>",
	Short: "Add a product variant to the cart (same variant merges quantities)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product-item-id %q", args[0])
		}

		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		f := cartAddFlags
		err = a.cart.AddItem(
			cart.Product{
				ID:           f.productID,
				Name:         f.name,
				CategoryID:   f.categoryID,
				CategoryCode: f.categoryCode,
				ProductCode:  f.productCode,
				Price:        f.price,
				Image:        f.image,
			},
			cart.ProductItem{ID: itemID, Size: f.size, Color: f.color, StockQuantity: f.stock},
			f.qty,
		)
		if err != nil {
			return err
		}
		fmt.Printf("Added %d × %s (%s/%s)\n", f.qty, f.name, f.size, f.color)
		return nil
	},
}

// shopfront cart rm
var cartRmCmd = &cobra.Command{
	Use:   "rm <product-item-id>",
	Short: "Remove a variant from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product-item-id %q", args[0])
		}

		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.cart.RemoveItem(itemID); err != nil {
			return err
		}
		fmt.Println("Removed.")
		return nil
	},
}

// shopfront cart set
var cartSetCmd = &cobra.Command{
	Use:   "set <product-item-id> <quantity>",
	Short: "Set a variant's quantity (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product-item-id %q", args[0])
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}

		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.cart.SetQuantity(itemID, qty); err != nil {
			return err
		}
		fmt.Println("Updated.")
		return nil
	},
}

// shopfront cart ls
var cartLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		items := a.cart.Items()
		if len(items) == 0 {
			fmt.Println("Cart is empty.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("%-8d %-30s %s/%s  ×%d  %d\n",
				it.ProductItemID, it.Name, it.Size, it.Color, it.Quantity, it.UnitPrice*int64(it.Quantity))
		}
		fmt.Printf("Total: %d items, %d\n", a.cart.TotalCount(), a.cart.TotalPrice())
		return nil
	},
}

// shopfront cart partitions
var cartPartitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "List users with a saved cart in the durable store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		emails, err := a.cart.SavedPartitions()
		if err != nil {
			return err
		}
		if len(emails) == 0 {
			fmt.Println("No saved carts.")
			return nil
		}
		for _, email := range emails {
			fmt.Println(email)
		}
		return nil
	},
}

// shopfront cart clear
var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.cart.Clear(); err != nil {
			return err
		}
		fmt.Println("Cart cleared.")
		return nil
	},
}

func init() {
	f := cartAddCmd.Flags()
	f.Int64Var(&cartAddFlags.productID, "product-id", 0, "product id")
	f.StringVar(&cartAddFlags.name, "name", "", "product name")
	f.Int64Var(&cartAddFlags.categoryID, "category-id", 0, "category id")
	f.StringVar(&cartAddFlags.categoryCode, "category-code", "", "category code")
	f.StringVar(&cartAddFlags.productCode, "product-code", "", "product code")
	f.Int64Var(&cartAddFlags.price, "price", 0, "unit price")
	f.StringVar(&cartAddFlags.image, "image", "", "image URL or JSON")
	f.StringVar(&cartAddFlags.size, "size", "", "variant size")
	f.StringVar(&cartAddFlags.color, "color", "", "variant color")
	f.IntVar(&cartAddFlags.stock, "stock", 0, "stock quantity at add time")
	f.IntVar(&cartAddFlags.qty, "qty", 1, "quantity to add")

	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRmCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartLsCmd)
	cartCmd.AddCommand(cartPartitionsCmd)
	cartCmd.AddCommand(cartClearCmd)
}
