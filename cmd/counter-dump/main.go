package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/datastore"
	"github.com/joho/godotenv"
	"github.com/tckz/go-view-counter/internal/counter"
	"github.com/tckz/go-view-counter/internal/log"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optLogLevel  = flag.String("log-level", "info", "info|warn|error")
	optNameSpace = flag.String("ns", "", "namespace")
	optKind      = flag.String("kind", counter.DefaultTable, "kind holding the counters")
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

	pjID := os.Getenv("PROJECT_ID")

	cl, err := datastore.NewClient(context.Background(), pjID)
	if err != nil {
		logger.Fatalf("*** datastore.NewClient: %v", err)
	}
	defer cl.Close()

	q := datastore.NewQuery(*optKind).Namespace(*optNameSpace)
	it := cl.Run(ctx, q)
	total := 0
	for {
		var props datastore.PropertyList
		key, err := it.Next(&props)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			logger.Errorf("Next: %v", err)
			return
		}
		total++

		fields := make([]string, 0, len(props))
		for _, p := range props {
			if p.Name == counter.KeyAttribute {
				continue
			}
			fields = append(fields, fmt.Sprintf("%s=%v", p.Name, p.Value))
		}
		sort.Strings(fields)
		fmt.Printf("%s\t%s\n", key.Name, strings.Join(fields, " "))
	}

	logger.Infof("done, records=%d", total)
}
