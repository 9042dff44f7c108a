// Package handler turns counter reads and increments into JSON responses.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/tckz/go-view-counter/internal/counter"
	"go.uber.org/zap"
)

const (
	ViewsKey = "views"

	msgGetFailed       = "Failed to retrieve views"
	msgIncrementFailed = "Failed to increment views"
)

// Response is a gateway style envelope: status, headers and a JSON body.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// StoreProvider hands out the store a request should use.
type StoreProvider interface {
	Store(ctx context.Context) (counter.Store, error)
}

type Handler struct {
	provider StoreProvider
	logger   *zap.Logger
}

type Option func(h *Handler)

func WithLogger(l *zap.Logger) Option {
	return Option(func(h *Handler) {
		h.logger = l
	})
}

func New(p StoreProvider, opts ...Option) *Handler {
	h := &Handler{
		provider: p,
		logger:   zap.NewNop(),
	}
	for _, e := range opts {
		e(h)
	}
	return h
}

func headers() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

func respond(status int, body interface{}) Response {
	b, err := json.Marshal(body)
	if err != nil {
		// Only maps of strings and ints are passed in.
		panic(err)
	}
	return Response{StatusCode: status, Headers: headers(), Body: string(b)}
}

func views(n int64) Response {
	return respond(http.StatusOK, map[string]int64{ViewsKey: n})
}

func failure(msg string) Response {
	return respond(http.StatusInternalServerError, map[string]string{"error": msg})
}

// GetViews reads the "views" counter.
func (h *Handler) GetViews(ctx context.Context) Response {
	logger := h.logger.With(zap.String("requestID", uuid.New().String()), zap.String("op", "get"))

	s, err := h.provider.Store(ctx)
	if err != nil {
		logger.Error("Error getting views", zap.Error(err))
		return failure(msgGetFailed)
	}
	n, err := s.Get(ctx, ViewsKey)
	if err != nil {
		logger.Error("Error getting views", zap.Error(err))
		return failure(msgGetFailed)
	}
	logger.Debug("views", zap.Int64("views", n))
	return views(n)
}

// IncrementViews adds one to the count field of the "views" counter.
func (h *Handler) IncrementViews(ctx context.Context) Response {
	return h.IncrementCol(ctx, ViewsKey, counter.CountField)
}

// IncrementCol adds one to field of the named counter. The new value is
// reported under "views" whatever counter was incremented, so both
// endpoints share one response shape.
func (h *Handler) IncrementCol(ctx context.Context, name, field string) Response {
	logger := h.logger.With(
		zap.String("requestID", uuid.New().String()),
		zap.String("op", "increment"),
		zap.String("name", name),
		zap.String("field", field),
	)

	s, err := h.provider.Store(ctx)
	if err != nil {
		logger.Error("Error incrementing views", zap.Error(err))
		return failure(msgIncrementFailed)
	}
	n, err := s.Increment(ctx, name, field)
	if err != nil {
		logger.Error("Error incrementing views", zap.Error(err))
		return failure(msgIncrementFailed)
	}
	logger.Debug("incremented", zap.Int64("value", n))
	return views(n)
}
