// Command local-near runs an in-memory NEAR node hosting the blob store contract.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/test/testnear"
)

const (
	defaultHost     = "localhost"
	defaultPort     = "3030"
	defaultContract = "blobstore.local"
)

func main() {
	var (
		host        string
		port        string
		listenAll   bool
		maxBlobSize int
		blockTime   time.Duration
		startHeight uint64
		contract    string
		account     string
		seed        string
	)
	flag.StringVar(&port, "port", defaultPort, "listening port")
	flag.StringVar(&host, "host", defaultHost, "listening address")
	flag.BoolVar(&listenAll, "listen-all", false, "listen on all network interfaces (0.0.0.0) instead of just localhost")
	flag.IntVar(&maxBlobSize, "max-blob-size", testnear.DefaultMaxBlobSize, "maximum blob size in bytes")
	flag.DurationVar(&blockTime, "block-time", time.Second, "time between empty blocks (0 disables)")
	flag.Uint64Var(&startHeight, "start-height", 1, "height of the genesis block")
	flag.StringVar(&contract, "contract", defaultContract, "account the blob store contract is deployed at")
	flag.StringVar(&account, "account", "", "account to register an access key for")
	flag.StringVar(&seed, "seed", "", "seed of the access key registered for -account")
	flag.Parse()

	if listenAll {
		host = "0.0.0.0"
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("component", "local-near").Logger()

	chain := testnear.NewChain(contract,
		testnear.WithStartHeight(startHeight),
		testnear.WithMaxBlobSize(maxBlobSize),
		testnear.WithLogger(logger),
	)
	if account != "" {
		if seed == "" {
			logger.Error().Msg("-account requires -seed")
			os.Exit(1)
		}
		pk := near.SecretKeyFromSeed(seed).PublicKey()
		chain.AddAccessKey(account, pk, 0)
		logger.Info().Str("account", account).Stringer("public_key", pk).Msg("registered access key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if blockTime > 0 {
		go produceBlocks(ctx, chain, blockTime)
	}

	addr := net.JoinHostPort(host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain.NewNode(),
		ReadHeaderTimeout: 2 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("error while serving JSON-RPC")
			os.Exit(1)
		}
	}()

	logger.Info().Str("host", host).Str("port", port).Str("contract", contract).Int("maxBlobSize", maxBlobSize).Dur("blockTime", blockTime).Msg("Listening on")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	fmt.Println("\nShutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error shutting down server")
	}
}

func produceBlocks(ctx context.Context, chain *testnear.Chain, blockTime time.Duration) {
	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chain.ProduceBlock()
		}
	}
}
