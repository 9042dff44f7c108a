package main

import (
	"context"
	"flag"
	"fmt"
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
	optName     = flag.String("name", "views", "counter name")
	optField    = flag.String("field", counter.CountField, "field to increment")
	optTimes    = flag.Int("n", 1, "how many times to increment")
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

	s, err := counter.Open(ctx, cfg.Counter)
	if err != nil {
		logger.Fatalf("*** counter.Open: %v", err)
	}
	defer s.Close()

	var n int64
	for i := 0; i < *optTimes; i++ {
		n, err = s.Increment(ctx, *optName, *optField)
		if err != nil {
			logger.Errorf("Increment: %v", err)
			return
		}
	}

	fmt.Fprintf(os.Stdout, "%s.%s=%d\n", *optName, *optField, n)
}
