package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shopfront",
	Short: "shopfront - headless storefront client",
	Long: "shopfront talks to a storefront backend from the terminal: sign in,\n" +
		"manage your cart, and settle payment redirects. State lives under\n" +
		"STATE_DIR (default ~/.shopfront), so sessions survive between runs.",
}

var apiBaseFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBaseFlag, "api", "", "backend base URL (overrides API_BASE_URL)")

	// Account
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(whoamiCmd)

	// Shopping
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(orderCmd)

	// Local backend
	rootCmd.AddCommand(devserverCmd)
}
