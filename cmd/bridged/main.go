package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spanbridge/go-spanbridge/env"
	"github.com/spanbridge/go-spanbridge/event"
	"github.com/spanbridge/go-spanbridge/publicapi"
	"github.com/spanbridge/go-spanbridge/server"
	"github.com/spanbridge/go-spanbridge/service/bridge"
	"github.com/spanbridge/go-spanbridge/service/catalog"
	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/service/persist/leveldb"
	"github.com/spanbridge/go-spanbridge/service/preflight"
	appchainrpc "github.com/spanbridge/go-spanbridge/service/rpc/appchain"
	homerpc "github.com/spanbridge/go-spanbridge/service/rpc/home"
	"github.com/spanbridge/go-spanbridge/service/sentryutil"
	"github.com/spanbridge/go-spanbridge/service/wallet"
	"github.com/spf13/viper"
)

func init() {
	env.RegisterValidation("BRIDGE_CATALOG_URL", "required,url")
	env.RegisterValidation("BRIDGE_HOME_RPC", "required,url")
	env.RegisterValidation("WALLET_SIGNER_URL", "required,url")
}

func main() {
	setDefaults()
	env.MustValidateEnv()
	logger.InitWithDefaults(env.GetString("ENV"))
	sentryutil.InitSentry()
	defer sentryutil.RecoverAndRaise(nil)

	ctx := context.Background()
	appchainID := persist.AppchainID(env.GetString("BRIDGE_APPCHAIN_ID"))

	repo, err := leveldb.NewTransferRepository(env.GetString("BRIDGE_DB_PATH"))
	if err != nil {
		logger.For(nil).Fatalf("failed to open transfer ledger: %s", err)
	}
	defer repo.Close()

	assets, err := catalog.NewHTTPCatalog(env.GetString("BRIDGE_CATALOG_URL"), nil, viper.GetDuration("BRIDGE_CATALOG_TTL"))
	if err != nil {
		logger.For(nil).Fatalf("failed to create asset catalog: %s", err)
	}

	descriptor, err := assets.Appchain(ctx, appchainID)
	if err != nil {
		logger.For(nil).Fatalf("failed to load appchain descriptor: %s", err)
	}

	home := homerpc.NewClient(env.GetString("BRIDGE_HOME_RPC"), nil)
	appchain, err := appchainrpc.Dial(ctx, descriptor.RPCEndpoint)
	if err != nil {
		logger.For(nil).Fatalf("failed to connect to appchain rpc: %s", err)
	}
	defer appchain.Close()

	protocolFee, err := decimal.NewFromString(env.GetString("BRIDGE_PROTOCOL_FEE"))
	if err != nil {
		logger.For(nil).Fatalf("invalid BRIDGE_PROTOCOL_FEE: %s", err)
	}

	events := event.NewDispatcher()
	events.AddHandler(event.HandlerFunc(logTransferEvent))

	checker := preflight.NewValidator(home, appchain, protocolFee)
	signer := wallet.NewRemoteSigner(env.GetString("WALLET_SIGNER_URL"), env.GetString("WALLET_ACCOUNT_ID"), nil)
	orchestrator := bridge.NewOrchestrator(repo, events, signer)

	poller := bridge.NewPoller(repo, home, appchain, events, appchainID, descriptor.AnchorContract, viper.GetDuration("BRIDGE_POLL_INTERVAL"))
	poller.Start(ctx)
	defer poller.Stop()

	api := publicapi.New(repo, assets, checker, orchestrator, events)
	router := server.CoreInit(api)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", env.GetInt("PORT")),
		Handler: router,
	}

	go func() {
		logger.For(nil).Infof("bridged listening on %s for appchain %s", srv.Addr, appchainID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.For(nil).Fatalf("server error: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.For(nil).Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.For(nil).Errorf("forced shutdown: %s", err)
	}
}

func logTransferEvent(ctx context.Context, e event.TransferEvent) {
	logger.For(ctx).WithField("key", e.Record.Key()).WithField("status", e.Record.Status).Info("transfer status changed")
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("PORT", 4000)
	viper.SetDefault("BRIDGE_DB_PATH", "bridged.db")
	viper.SetDefault("BRIDGE_CATALOG_URL", "http://localhost:8090")
	viper.SetDefault("BRIDGE_CATALOG_TTL", 5*time.Minute)
	viper.SetDefault("BRIDGE_APPCHAIN_ID", "barnacle")
	viper.SetDefault("BRIDGE_HOME_RPC", "https://rpc.testnet.example.org")
	viper.SetDefault("BRIDGE_POLL_INTERVAL", bridge.DefaultPollInterval)
	viper.SetDefault("BRIDGE_PROTOCOL_FEE", "0.5")
	viper.SetDefault("WALLET_SIGNER_URL", "http://localhost:8091")
	viper.SetDefault("WALLET_ACCOUNT_ID", "")
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.2)

	viper.AutomaticEnv()
}
