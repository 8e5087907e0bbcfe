package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"copytrader/src/executors"
	"copytrader/src/lifecycle"
	"copytrader/src/model"
	"copytrader/src/repository"
)

const defaultHistoryLimit = 50

// HistoryStore serves the persisted copy trade log. Nil when the database is
// disabled; the history endpoints then answer 503.
type HistoryStore interface {
	FindRecent(ctx context.Context, opts repository.SearchOptions) ([]model.CopyTradeLog, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// NewRouter builds the status routes.
func NewRouter(stats *executors.Stats, orders *lifecycle.Manager, history HistoryStore) chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("\"/healthcheck\" error")
		}
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, stats.Snapshot())
	})

	r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, orders.Tracked())
	})

	r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
		if history == nil {
			http.Error(w, "database disabled", http.StatusServiceUnavailable)
			return
		}

		opts := repository.SearchOptions{
			TraderAddress: r.URL.Query().Get("trader"),
			Status:        r.URL.Query().Get("status"),
			Limit:         defaultHistoryLimit,
		}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			opts.Limit = limit
		}

		entries, err := history.FindRecent(r.Context(), opts)
		if err != nil {
			logger.WithError(err).Error("\"/history\" error")
			http.Error(w, "history lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, entries)
	})

	r.Get("/history/summary", func(w http.ResponseWriter, r *http.Request) {
		if history == nil {
			http.Error(w, "database disabled", http.StatusServiceUnavailable)
			return
		}

		counts, err := history.CountByStatus(r.Context())
		if err != nil {
			logger.WithError(err).Error("\"/history/summary\" error")
			http.Error(w, "history lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, counts)
	})

	return r
}

// StartServer exposes the health and status endpoints until ctx is
// cancelled.
func StartServer(ctx context.Context, port string, stats *executors.Stats, orders *lifecycle.Manager, history HistoryStore) {
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(stats, orders, history),
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down status server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("error encoding response")
	}
}
