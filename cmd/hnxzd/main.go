package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hnxzledger/config"
	"hnxzledger/core"
	"hnxzledger/core/events"
	"hnxzledger/core/types"
	"hnxzledger/crypto"
	"hnxzledger/observability/logging"
	"hnxzledger/storage"
)

// slogEmitter forwards every ledger event to the process logger.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	attrs := make([]any, 0, 8)
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	e.logger.Info(evt.EventType(), attrs...)
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DataBackend)) {
	case config.BackendBolt:
		return storage.NewBoltDB(cfg.DataDir + "/ledger.db")
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	default:
		return storage.NewLevelDB(cfg.DataDir)
	}
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	authorityFlag := flag.String("authority", "", "Bech32 address of the administrative authority")
	sponsorFlag := flag.String("sponsor", "", "Bech32 address the paymaster settles as")
	metricsAddr := flag.String("metrics", ":9464", "Listen address for the Prometheus metrics endpoint")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("HNXZ_ENV"))
	logger := logging.Setup("hnxzd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	authority, err := crypto.DecodeAddress(strings.TrimSpace(*authorityFlag))
	if err != nil {
		logger.Error("Invalid authority address", slog.Any("error", err))
		os.Exit(1)
	}
	sponsor, err := crypto.DecodeAddress(strings.TrimSpace(*sponsorFlag))
	if err != nil {
		logger.Error("Invalid sponsor address", slog.Any("error", err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		panic(fmt.Sprintf("Failed to prepare data directory: %v", err))
	}
	db, err := openDatabase(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	var authorityKey, sponsorKey [20]byte
	copy(authorityKey[:], authority.Bytes())
	copy(sponsorKey[:], sponsor.Bytes())

	ledger := core.NewLedger(db, authorityKey, sponsorKey)
	if err := ledger.ApplyConfig(cfg); err != nil {
		panic(fmt.Sprintf("Failed to apply config: %v", err))
	}
	ledger.SetEmitter(slogEmitter{logger: logger.With(slog.String("component", "events"))})

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics endpoint failed", slog.Any("error", err))
		}
	}()

	logger.Info("Ledger started",
		slog.String("backend", cfg.DataBackend),
		slog.String("authority", authority.String()),
		slog.String("sponsor", sponsor.String()),
		slog.String("metrics", *metricsAddr),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
}
