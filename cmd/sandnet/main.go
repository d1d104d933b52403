// Command sandnet serves a local wallet daemon and ledger node for development.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/thrylos-labs/sandnet/config"
	"github.com/thrylos-labs/sandnet/sandbox"
	"github.com/thrylos-labs/sandnet/utils"
)

const roundInterval = 4 * time.Second

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	envPath := flag.String("env", ".env", "Path to the environment file")
	kmdAddr := flag.String("kmd", ":4002", "Listen address of the wallet daemon")
	algodAddr := flag.String("algod", ":4001", "Listen address of the ledger node")
	autoRounds := flag.Bool("rounds", true, "Produce a round every few seconds")
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		utils.Log.Panicf("%v", err)
	}
	utils.ConfigureLogger(os.Getenv("LOG_LEVEL"), os.Getenv("SYSLOG_ENDPOINT"))

	network, err := sandbox.NewNetwork(sandbox.NetworkConfig{
		KMDToken:       getenv("KMD_TOKEN", ""),
		AlgodToken:     getenv("ALGOD_TOKEN", ""),
		WalletName:     getenv("WALLET_NAME", config.DefaultWalletName),
		WalletPassword: os.Getenv("WALLET_PASSWORD"),
		Mnemonic:       os.Getenv("SANDNET_MNEMONIC"),
	})
	if err != nil {
		utils.Log.Panicf("failed to start sandnet: %v", err)
	}
	utils.Log.Infof("Wallet %q (%s) holds account %s", getenv("WALLET_NAME", config.DefaultWalletName), network.WalletID, network.Account.Address)

	// Setup CORS so browser tooling on localhost can reach both services
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-KMD-API-Token", "X-Algo-API-Token"},
	})

	servers := []*http.Server{
		{Addr: *kmdAddr, Handler: c.Handler(network.Wallets), ReadHeaderTimeout: 10 * time.Second},
		{Addr: *algodAddr, Handler: c.Handler(network.Ledger), ReadHeaderTimeout: 10 * time.Second},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, srv := range servers {
		go func(srv *http.Server) {
			utils.Log.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				utils.Log.Errorf("server on %s failed: %v", srv.Addr, err)
				stop()
			}
		}(srv)
	}

	if *autoRounds {
		go func() {
			ticker := time.NewTicker(roundInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					network.Ledger.AdvanceRound()
				}
			}
		}()
	}

	<-ctx.Done()
	utils.Log.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.LogError("shutdown", err)
		}
	}
}
