package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/tckz/go-view-counter/internal/config"
	"github.com/tckz/go-view-counter/internal/counter"
	"github.com/tckz/go-view-counter/internal/event"
	"github.com/tckz/go-view-counter/internal/log"
	"github.com/tckz/go-view-counter/internal/marker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optWorkers      = flag.Int("workers", 8, "Number of workers")
	optLogLevel     = flag.String("log-level", "info", "info|warn|error")
	optConfig       = flag.String("config", "", "path/to/config.yaml")
	optSubscription = flag.String("subscription", "", "subscription name")
	optRedis        = flag.String("redis", "", "addr:port of redis shared by subscribers for dedup")
	optMarkerTTL    = flag.Duration("marker-ttl", marker.DefaultTTL, "how long a processed message id is remembered")
)

func init() {
	godotenv.Load()

	flag.Parse()

	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar().With(zap.String("app", myName))
}

func main() {
	logger.Infof("ver=%s, args=%s", version, os.Args)
	defer logger.Infof("done")

	if *optSubscription == "" {
		logger.Fatalf("*** --subscription must be specified.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*optConfig)
	if err != nil {
		logger.Fatalf("*** config.Load: %v", err)
	}

	store, err := counter.Open(ctx, cfg.Counter)
	if err != nil {
		logger.Fatalf("*** counter.Open: %v", err)
	}
	defer store.Close()

	pjID := os.Getenv("PROJECT_ID")

	cl, err := pubsub.NewClient(ctx, pjID)
	if err != nil {
		logger.Fatalf("*** pubsub.NewClient: %v", err)
	}
	defer cl.Close()

	var processMarker marker.ProcessMarker
	if *optRedis == "" {
		processMarker = marker.NewLocalMarker(*optMarkerTTL)
	} else {
		rcl := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:        []string{*optRedis},
			DialTimeout:  time.Second * 2,
			ReadTimeout:  time.Second * 2,
			WriteTimeout: time.Second * 2,
			PoolSize:     200,
			PoolTimeout:  time.Second * 5,
		})
		defer rcl.Close()
		processMarker = marker.NewRedisMarker(rcl, "view-event-processed:", *optMarkerTTL)
	}

	applier := &event.Applier{Store: store, Marker: processMarker}

	subs := cl.Subscription(*optSubscription)
	subs.ReceiveSettings.NumGoroutines = *optWorkers

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return subs.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
			v, err := event.Parse(msg)
			if err != nil {
				// Redelivery cannot fix a malformed payload.
				logger.Errorf("msgID=%s Parse: %v", msg.ID, err)
				msg.Ack()
				return
			}

			n, applied, err := applier.Apply(ctx, msg.ID, v)
			if err != nil {
				logger.Errorf("msgID=%s Apply: %v", msg.ID, err)
				msg.Nack()
				return
			}
			if !applied {
				logger.Infof("msgID=%s already marked to be processed by other", msg.ID)
				msg.Ack()
				return
			}
			if n%1000 == 0 {
				logger.Infof("%s.%s=%d", v.Name, v.Field, n)
			}
			msg.Ack()
		})
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Infof("Received signal: %v", s)
	case <-ctx.Done():
	}
	cancel()

	logger.Infof("Waiting goroutines exit")
	if err := eg.Wait(); err != nil {
		logger.Errorf("Wait: %v", err)
	}
}
