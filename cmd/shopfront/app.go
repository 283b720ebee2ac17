package main

import (
	"os"

	"github.com/hyunwoopark/shopfront/config"
	"github.com/hyunwoopark/shopfront/internal/api"
	"github.com/hyunwoopark/shopfront/internal/cart"
	"github.com/hyunwoopark/shopfront/internal/gateway"
	"github.com/hyunwoopark/shopfront/internal/nav"
	"github.com/hyunwoopark/shopfront/internal/session"
	"github.com/hyunwoopark/shopfront/pkg/event"
	"github.com/hyunwoopark/shopfront/pkg/kvstore"
	"github.com/hyunwoopark/shopfront/pkg/logger"
)

// app is the wired client a command runs against.
type app struct {
	session *session.Store
	gateway *gateway.Gateway
	api     *api.Client
	cart    *cart.Store
	durable kvstore.Store
	nav     *nav.Terminal

	close func()
}

// boot loads config, wires the stores and gateway, and hydrates the session
// from disk. The cart subscribes to session events before hydration so a
// persisted sign-in loads its cart partition immediately.
func boot() (*app, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	if apiBaseFlag != "" {
		config.Set("API_BASE_URL", apiBaseFlag)
	}

	closeSink := func() {}
	if uri := config.MongoLogURI(); uri != "" {
		host, _ := os.Hostname()
		h, err := logger.NewMongoHandler(uri, "shopfront", "client_logs", host)
		if err != nil {
			logger.Warn("central log sink unavailable", "error", err)
		} else {
			logger.EnableCentralSink(h)
			closeSink = h.Close
		}
	}

	durable, err := kvstore.Open()
	if err != nil {
		closeSink()
		return nil, err
	}

	bus := event.NewBus()
	sess := session.New(kvstore.OpenSession(), durable, bus)
	cartStore := cart.New(durable, bus)
	navigator := nav.NewTerminal(os.Stdout)
	gw := gateway.New(sess, navigator)

	sess.Hydrate()

	return &app{
		session: sess,
		gateway: gw,
		api:     api.New(gw),
		cart:    cartStore,
		durable: durable,
		nav:     navigator,
		close:   closeSink,
	}, nil
}
