package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/store"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b.ID = 0
	b.Category = sanitizeInput(b.Category)

	if err := b.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.svc.CreateBudget(r.Context(), userID, b)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create budget", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to create budget")
		return
	}

	s.invalidateUserCaches(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b.ID = id
	b.Category = sanitizeInput(b.Category)

	if err := b.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.svc.UpdateBudget(r.Context(), userID, b)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update budget", "error", err, "user_id", userID, "budget_id", id)
		writeError(w, http.StatusInternalServerError, "failed to update budget")
		return
	}

	s.invalidateUserCaches(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.DeleteBudget(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete budget", "error", err, "user_id", userID, "budget_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}

	s.invalidateUserCaches(userID)
	w.WriteHeader(http.StatusNoContent)
}

// handleListBudgets returns the period slot's budgets with live status
// computed against the caller's spending.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := s.budgetReports(r, userID, year, month, "list", s.svc.Preset())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list budgets", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

type budgetSummaryResponse struct {
	Budgets     []ledger.BudgetReport `json:"budgets"`
	TotalBudget core.Money            `json:"total_budget"`
	TotalSpent  core.Money            `json:"total_spent"`
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := s.budgetReports(r, userID, year, month, "summary", ledger.PresetSummary)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build budget summary", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to build budget summary")
		return
	}

	resp := budgetSummaryResponse{Budgets: reports}
	for _, rep := range reports {
		resp.TotalBudget.Cents += rep.Budget.Amount.Cents
		resp.TotalSpent.Cents += rep.Status.Spent.Cents
	}
	writeJSON(w, http.StatusOK, resp)
}

// budgetReports serves status reports through the per-user cache. The
// view name is part of the key since list and summary classify
// against different presets.
func (s *Server) budgetReports(r *http.Request, userID int64, year, month int, view string, preset ledger.Preset) ([]ledger.BudgetReport, error) {
	key := fmt.Sprintf("%d:%04d-%02d:%s", userID, year, month, view)
	if cached, ok := s.reportCache.Get(key); ok {
		return cached, nil
	}

	reports, err := s.svc.BudgetReports(r.Context(), userID, year, month, preset)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []ledger.BudgetReport{}
	}
	s.reportCache.Set(key, reports)
	return reports, nil
}
