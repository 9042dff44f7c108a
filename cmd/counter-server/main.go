package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tckz/go-view-counter/internal/config"
	"github.com/tckz/go-view-counter/internal/counter"
	"github.com/tckz/go-view-counter/internal/handler"
	"github.com/tckz/go-view-counter/internal/log"
	"go.uber.org/zap"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optConfig = flag.String("config", "", "path/to/config.yaml")
	cfg       config.Config
)

func init() {
	godotenv.Load()

	flag.Parse()

	c, err := config.Load(*optConfig)
	if err != nil {
		panic(err)
	}
	cfg = c

	logger = log.Must(log.NewLogger(
		log.WithLogLevel(cfg.LogLevel),
		log.WithOutputFile(cfg.LogFile, 100, 3),
	)).Sugar().With(zap.String("app", myName))
}

func main() {
	logger.Infof("ver=%s, args=%s", version, os.Args)
	defer logger.Infof("done")

	if err := cfg.Counter.Validate(); err != nil {
		logger.Fatalf("*** Validate: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider := counter.NewProvider(cfg.Counter)
	defer provider.Close()

	mux := http.NewServeMux()
	handler.New(provider, handler.WithLogger(logger.Desugar())).Routes(mux)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Infof("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorf("Shutdown: %v", err)
		}
	}()

	logger.Infof("listen=%s, backend=%s, table=%s", cfg.Listen, cfg.Counter.Backend, cfg.Counter.Table)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("*** ListenAndServe: %v", err)
	}
}
