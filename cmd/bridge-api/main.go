// Command bridge-api serves the REST surface over the bridge state
// machine.
package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/most-network/bridge/cmd/bridge-api/server"
	"github.com/most-network/bridge/core"
	"github.com/most-network/bridge/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	lvl, err := logrus.ParseLevel(utils.EnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	entry := logrus.NewEntry(log)

	owner, err := core.ParseAccountID(utils.EnvOrDefault("BRIDGE_OWNER", "0x"+"11"+repeat("00", 31)))
	if err != nil {
		entry.WithError(err).Fatal("invalid BRIDGE_OWNER")
	}

	store := core.NewMemStore()
	native := core.NewFakeNativeLedger()
	oracle := core.OracleConfig{
		MinPrice:        1,
		MaxPrice:        1_000_000,
		DefaultGasPrice: 1_000,
		RelayGasUsage:   21_000,
		FreshnessWindow: core.StaleThreshold,
	}
	bridge := core.NewBridge(store, native, core.NopBroadcaster{}, owner, oracle, entry)

	bootstrapPath := utils.EnvOrDefault("BRIDGE_BOOTSTRAP_FILE", "")
	bootstrapCfg, err := loadBootstrapConfig(bootstrapPath)
	if err != nil {
		entry.WithError(err).Fatal("failed to load bootstrap config")
	}
	if err := applyBootstrap(bridge, owner, bootstrapCfg); err != nil {
		entry.WithError(err).Fatal("failed to apply bootstrap config")
	}

	srv := server.New(bridge, entry)
	addr := utils.EnvOrDefault("BRIDGE_API_ADDR", ":8090")

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	entry.WithField("addr", addr).Info("bridge api listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		entry.WithError(err).Fatal("bridge api exited")
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
