package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/tckz/go-view-counter/internal/handler"
	"github.com/tckz/go-view-counter/internal/log"
	vh "github.com/tckz/vegetahelper"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optRate = &vh.RateFlag{
		Rate: &vegeta.Rate{
			Freq: 30,
			Per:  1 * time.Second,
		}}
	optDuration = flag.Duration("duration", 10*time.Second, "Duration of the test [0 = forever]")
	optOutput   = flag.String("output", "", "/path/to/results.bin or 'stdout'")
	optWorkers  = flag.Uint64("workers", vegeta.DefaultWorkers, "Number of workers")
	optLogLevel = flag.String("log-level", "info", "info|warn|error")
	optURL      = flag.String("url", "http://localhost:8080"+handler.Path, "URL of the views endpoint")
)

func init() {
	godotenv.Load()

	flag.Var(optRate, "rate", "Number of requests per time unit")
	flag.Parse()

	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar().With(zap.String("app", myName))
}

type nopWriteCloser struct {
	io.Writer
}

func (c nopWriteCloser) Close() error {
	return nil
}

func openResultFile(out string) (io.WriteCloser, error) {
	switch out {
	case "stdout":
		return &nopWriteCloser{os.Stdout}, nil
	default:
		return os.Create(out)
	}
}

type viewsBody struct {
	Views *int64 `json:"views"`
	Error string `json:"error"`
}

func call(ctx context.Context, cl *http.Client, method string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, method, *optURL, nil)
	if err != nil {
		return 0, err
	}
	res, err := cl.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	var body viewsBody
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode: status=%d, %w", res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK || body.Views == nil {
		return 0, fmt.Errorf("status=%d, error=%s", res.StatusCode, body.Error)
	}
	return *body.Views, nil
}

func main() {
	logger.Infof("ver=%s, args=%s", version, os.Args)

	if *optOutput == "" {
		logger.Fatalf("*** --output must be specified.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cl := &http.Client{Timeout: 10 * time.Second}

	before, err := call(ctx, cl, http.MethodGet)
	if err != nil {
		logger.Fatalf("*** GET before attack: %v", err)
	}

	var succeeded int64
	atk := vh.NewAttacker(func(ctx context.Context) (result *vh.HitResult, retErr error) {
		if _, err := call(ctx, cl, http.MethodPost); err != nil {
			return nil, err
		}
		atomic.AddInt64(&succeeded, 1)
		return result, nil
	}, vh.WithWorkers(*optWorkers))
	res := atk.Attack(ctx, *optRate.Rate, *optDuration, "increment-views")

	out, err := openResultFile(*optOutput)
	if err != nil {
		logger.Fatal(err)
	}
	defer out.Close()
	enc := vegeta.NewEncoder(out)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT)

loop:
	for {
		select {
		case s := <-sig:
			logger.Infof("Received signal: %s", s)
			cancel()
			// keep loop until 'res' is closed.
		case r, ok := <-res:
			if !ok {
				break loop
			}
			if err := enc.Encode(r); err != nil {
				logger.Errorf("*** Encode: %v", err)
				break loop
			}
		}
	}

	after, err := call(context.Background(), cl, http.MethodGet)
	if err != nil {
		logger.Fatalf("*** GET after attack: %v", err)
	}

	// Exact only when nothing else writes the counter during the attack.
	n := atomic.LoadInt64(&succeeded)
	lost := before + n - after
	logger.Infof("before=%s, after=%s, succeeded=%s, lost=%d",
		humanize.Comma(before), humanize.Comma(after), humanize.Comma(n), lost)
	if lost != 0 {
		logger.Warnf("counter moved by %d, expected %d", after-before, n)
	}

	cancel()
}
