package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/tckz/go-view-counter/internal/config"
	"github.com/tckz/go-view-counter/internal/counter"
	"github.com/tckz/go-view-counter/internal/log"
	"go.uber.org/zap"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optLogLevel = flag.String("log-level", "info", "info|warn|error")
	optConfig   = flag.String("config", "", "path/to/config.yaml")
)

func init() {
	godotenv.Load()

	flag.Parse()

	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar().With(zap.String("app", myName))
}

func main() {
	logger.Infof("ver=%s, args=%s", version, os.Args)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*optConfig)
	if err != nil {
		logger.Fatalf("*** config.Load: %v", err)
	}

	// Redis and Datastore create records on first write; only SQLite has a
	// table to create up front.
	if cfg.Counter.Backend != "sqlite" {
		logger.Infof("backend=%s needs no provisioning", cfg.Counter.Backend)
		return
	}

	cfg.Counter.SQLite.Provision = true
	s, err := counter.Open(ctx, cfg.Counter)
	if err != nil {
		logger.Fatalf("*** counter.Open: %v", err)
	}
	defer s.Close()

	logger.Infof("table=%s provisioned, dsn=%s", cfg.Counter.Table, cfg.Counter.SQLite.DSN)
}
