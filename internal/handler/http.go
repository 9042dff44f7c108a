package handler

import (
	"io"
	"net/http"
)

// Path is where both endpoints are mounted.
const Path = "/views"

func write(w http.ResponseWriter, res Response) {
	for k, v := range res.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(res.StatusCode)
	_, _ = io.WriteString(w, res.Body)
}

// ReadHandler serves GetViews. The request body is ignored.
func (h *Handler) ReadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		write(w, h.GetViews(r.Context()))
	})
}

// WriteHandler serves IncrementViews. The request body is ignored.
func (h *Handler) WriteHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		write(w, h.IncrementViews(r.Context()))
	})
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	for k, v := range headers() {
		w.Header().Set(k, v)
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

// Routes mounts the endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.Handle("GET "+Path, h.ReadHandler())
	mux.Handle("POST "+Path, h.WriteHandler())
	mux.HandleFunc("OPTIONS "+Path, preflight)
}
