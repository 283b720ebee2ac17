package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/internal/devserver"
)

// shopfront devserver
var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run the local stub backend",
	Long: "Serves the storefront endpoint contract on localhost with in-memory\n" +
		"state: bcrypt accounts, header-carried login tokens, sliding token\n" +
		"rotation, and stock-checked order placement. Seed gateway payments\n" +
		"with POST /devserver/payments before confirming an order.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("devserver on :%s (accounts: user@shopfront.local / admin@shopfront.local, password \"password123!\")\n",
			config.DevserverPort())
		return devserver.New().Start(ctx)
	},
}
