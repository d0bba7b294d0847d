package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settleup/internal/engine"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/remote"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/logging"
)

const port = 8080

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/settleup.db")
	remoteURL := getEnv("REMOTE_URL", "http://localhost:54321")
	remoteKey := getEnv("REMOTE_API_KEY", "")
	remoteToken := getEnv("REMOTE_TOKEN", "")
	userID := getEnv("SYNC_USER_ID", "")
	if userID == "" {
		slog.Error("SYNC_USER_ID is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	clock := engine.SystemClock()
	tracker := engine.NewTracker()
	remoteStore := remote.New(remoteURL, remoteKey, remoteToken)
	monitor := engine.NewMonitor(remoteURL, 10*time.Second, clock)
	eng := engine.New(store, remoteStore, monitor, tracker, clock, userID)
	scheduler := engine.NewScheduler(eng, tracker, monitor, clock)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go monitor.Run(ctx)
	go scheduler.Run(ctx)

	groups := service.NewGroupService(store)
	expenses := service.NewExpenseService(store)

	mux := http.NewServeMux()
	registerRoutes(mux, store, groups, expenses, tracker, scheduler)
	mux.Handle("/metrics", promhttp.Handler())

	loggedHandler := middleware.Logging(mux)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{Addr: addr, Handler: h2cHandler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("Server starting", "address", addr, "user_id", userID, "remote", remoteURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func registerRoutes(
	mux *http.ServeMux,
	store storage.Store,
	groups *service.GroupService,
	expenses *service.ExpenseService,
	tracker *engine.Tracker,
	scheduler *engine.Scheduler,
) {
	mux.HandleFunc("GET /api/sync/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tracker.Snapshot())
	})

	mux.HandleFunc("POST /api/sync/trigger", func(w http.ResponseWriter, r *http.Request) {
		scheduler.Wake("manual")
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("POST /api/groups", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string `json:"user_id"`
			UserName    string `json:"user_name"`
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		group, err := groups.CreateGroup(r.Context(), req.UserID, req.UserName, req.Name, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, group)
	})

	mux.HandleFunc("POST /api/groups/join", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID     string `json:"user_id"`
			UserName   string `json:"user_name"`
			InviteCode string `json:"invite_code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		group, err := groups.JoinGroup(r.Context(), req.UserID, req.UserName, req.InviteCode)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	})

	mux.HandleFunc("GET /api/groups", func(w http.ResponseWriter, r *http.Request) {
		list, err := groups.Groups(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("GET /api/groups/{id}/members", func(w http.ResponseWriter, r *http.Request) {
		list, err := groups.Members(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("GET /api/groups/{id}/expenses", func(w http.ResponseWriter, r *http.Request) {
		list, err := expenses.GroupExpenses(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("GET /api/groups/{id}/balances", func(w http.ResponseWriter, r *http.Request) {
		list, err := expenses.Balances(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("GET /api/groups/{id}/settlements", func(w http.ResponseWriter, r *http.Request) {
		list, err := expenses.Settlements(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("POST /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string `json:"user_id"`
			GroupID   string `json:"group_id"`
			Title     string `json:"title"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
			Category  string `json:"category"`
			PaidBy    string `json:"paid_by"`
			SplitKind string `json:"split_type"`
			Splits    []struct {
				UserID string `json:"user_id"`
				Amount int64  `json:"amount"`
			} `json:"splits"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		in := service.CreateExpenseInput{
			GroupID:   req.GroupID,
			Title:     req.Title,
			Amount:    req.Amount,
			Currency:  req.Currency,
			Category:  req.Category,
			PaidBy:    req.PaidBy,
			SplitKind: req.SplitKind,
		}
		for _, sp := range req.Splits {
			in.Splits = append(in.Splits, service.SplitInput{UserID: sp.UserID, Amount: sp.Amount})
		}
		expense, err := expenses.AddExpense(r.Context(), req.UserID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, expense)
	})

	mux.HandleFunc("GET /api/expenses/{id}/splits", func(w http.ResponseWriter, r *http.Request) {
		list, err := expenses.Splits(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("DELETE /api/expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := expenses.RemoveExpense(r.Context(), r.URL.Query().Get("user_id"), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/settlements", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			GroupID  string `json:"group_id"`
			FromUser string `json:"from_user"`
			ToUser   string `json:"to_user"`
			Amount   int64  `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		settlement, err := expenses.RecordSettlement(r.Context(), req.UserID, req.GroupID, req.FromUser, req.ToUser, req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, settlement)
	})

	mux.HandleFunc("POST /api/signout", func(w http.ResponseWriter, r *http.Request) {
		if err := store.ClearAll(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		slog.Info("local data cleared")
		w.WriteHeader(http.StatusNoContent)
	})
}
