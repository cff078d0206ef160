package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/transfer-ledger/internal/api/httpx"
	"github.com/baharkarakas/transfer-ledger/internal/api/validate"
	"github.com/baharkarakas/transfer-ledger/internal/auth"
	"github.com/baharkarakas/transfer-ledger/internal/config"
	"github.com/baharkarakas/transfer-ledger/internal/metrics"
	"github.com/baharkarakas/transfer-ledger/internal/middleware"
	"github.com/baharkarakas/transfer-ledger/internal/models"
)

// TransferLogic is what the router needs from the transfer engine.
type TransferLogic interface {
	Accept(ctx context.Context, transferID, actingUserID string) (models.Transfer, error)
	Reject(ctx context.Context, transferID, actingUserID string) (models.Transfer, error)
	Get(ctx context.Context, transferID, requestingUserID string) (models.Transfer, error)
	List(ctx context.Context, userID string, status *models.TransferStatus, page, limit int) (models.TransferPage, error)
	Leaderboard(ctx context.Context, by string) ([]models.LeaderboardEntry, error)
	Create(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (models.Transfer, error)
}

type BalanceLogic interface {
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
}

func NewRouter(cfg config.Config, tm *auth.TokenManager, transfers TransferLogic, balances BalanceLogic) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authmw := middleware.NewAuthMiddleware(tm, cfg.Env)

	r.Route("/api/v1", func(r chi.Router) {
		// Dev convenience: mint a token for a seeded user. Authentication
		// proper lives outside this service.
		if cfg.Env == "dev" {
			r.Post("/auth/token", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					UserID string `json:"user_id"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "user_id required", nil)
					return
				}
				token, exp, err := tm.Generate(req.UserID)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"token": token, "expires_at": exp})
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth)

			// ---------- transfers ----------
			r.Get("/transfers", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var status *models.TransferStatus
				if raw := r.URL.Query().Get("status"); raw != "" {
					s := models.TransferStatus(raw)
					status = &s
				}
				page := validate.QueryInt(r.URL.Query().Get("page"), 1)
				limit := validate.QueryInt(r.URL.Query().Get("limit"), 10)

				pageResp, err := transfers.List(r.Context(), uid, status, page, limit)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, pageResp)
			})

			r.Post("/transfers", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var req struct {
					ReceiverID string          `json:"receiver_id"`
					Amount     decimal.Decimal `json:"amount"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
					return
				}
				var errs validate.Errs
				if e := validate.Required("receiver_id", req.ReceiverID); e != nil {
					errs = append(errs, *e)
				}
				if e := validate.PositiveAmount("amount", req.Amount); e != nil {
					errs = append(errs, *e)
				}
				if len(errs) > 0 {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", errs.Error(), errs)
					return
				}
				tr, err := transfers.Create(r.Context(), uid, req.ReceiverID, req.Amount)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, tr)
			})

			r.Get("/transfers/{id}", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				tr, err := transfers.Get(r.Context(), chi.URLParam(r, "id"), uid)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, tr)
			})

			r.Post("/transfers/{id}/accept", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				tr, err := transfers.Accept(r.Context(), chi.URLParam(r, "id"), uid)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "Transfer accepted", "transfer": tr})
			})

			r.Post("/transfers/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				tr, err := transfers.Reject(r.Context(), chi.URLParam(r, "id"), uid)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "Transfer rejected", "transfer": tr})
			})

			// ---------- balance ----------
			r.Post("/deposit", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				amount, ok := decodeAmount(w, r)
				if !ok {
					return
				}
				balance, err := balances.Deposit(r.Context(), uid, amount)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "Deposit successful", "balance": balance})
			})

			r.Post("/withdraw", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				amount, ok := decodeAmount(w, r)
				if !ok {
					return
				}
				balance, err := balances.Withdraw(r.Context(), uid, amount)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "Withdrawal successful", "balance": balance})
			})

			// ---------- leaderboard ----------
			r.Get("/leaderboard/top-transfers", func(w http.ResponseWriter, r *http.Request) {
				by := r.URL.Query().Get("by")
				if by == "" {
					by = "count"
				}
				entries, err := transfers.Leaderboard(r.Context(), by)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, entries)
			})
		})
	})

	return r
}

func decodeAmount(w http.ResponseWriter, r *http.Request) (decimal.Decimal, bool) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
		return decimal.Zero, false
	}
	if e := validate.PositiveAmount("amount", req.Amount); e != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", e.Msg, []validate.ErrField{*e})
		return decimal.Zero, false
	}
	return req.Amount, true
}
