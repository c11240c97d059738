package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/service"
)

type monthlySummaryResponse struct {
	Income     core.Money `json:"income"`
	Expense    core.Money `json:"expense"`
	NetSavings core.Money `json:"net_savings"`
}

func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := s.svc.MonthlySummary(r.Context(), userID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build monthly summary", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to build monthly summary")
		return
	}
	writeJSON(w, http.StatusOK, monthlySummaryResponse{
		Income:     sum.Income,
		Expense:    sum.Expense,
		NetSavings: sum.Net(),
	})
}

func (s *Server) handleCategoryAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := core.KindExpense
	if v := r.URL.Query().Get("type"); v != "" {
		kind = core.Kind(v)
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
	}

	totals, err := s.svc.CategoryBreakdown(r.Context(), userID, kind, service.MonthRange(year, month))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build category breakdown", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to build category breakdown")
		return
	}
	if totals == nil {
		totals = []ledger.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, totals)
}

type netSavingsPoint struct {
	Bucket  string     `json:"bucket"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Net     core.Money `json:"net"`
}

func (s *Server) handleNetSavings(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	size := ledger.BucketDay
	if v := r.URL.Query().Get("granularity"); v != "" {
		switch v {
		case "day":
			size = ledger.BucketDay
		case "month":
			size = ledger.BucketMonth
		default:
			writeError(w, http.StatusBadRequest, "granularity must be day or month")
			return
		}
	}

	rng, err := dateRangeFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	buckets, err := s.svc.NetSavingsSeries(r.Context(), userID, size, rng)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build net savings series", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to build net savings series")
		return
	}

	points := make([]netSavingsPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, netSavingsPoint{
			Bucket:  b.Key,
			Income:  b.Income,
			Expense: b.Expense,
			Net:     b.Net(),
		})
	}
	writeJSON(w, http.StatusOK, points)
}

// dateRangeFromQuery reads an explicit from/to range, falling back to
// the requested (or current) calendar month.
func dateRangeFromQuery(r *http.Request) (ledger.DateRange, error) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		return ledger.DateRange{}, err
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		return ledger.DateRange{}, err
	}
	if from != nil && to != nil {
		if to.Before(from.Time) {
			return ledger.DateRange{}, fmt.Errorf("to must not precede from")
		}
		return ledger.DateRange{From: *from, To: *to}, nil
	}
	if from != nil || to != nil {
		return ledger.DateRange{}, fmt.Errorf("from and to must be provided together")
	}

	year, month, err := parseYearMonth(r)
	if err != nil {
		return ledger.DateRange{}, err
	}
	return service.MonthRange(year, month), nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%d:%04d-%02d", userID, year, month)
	if cached, ok := s.dashboardCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	dash, err := s.svc.Dashboard(r.Context(), userID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build dashboard", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	s.dashboardCache.Set(key, dash)
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleAdvisories(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	advisories, err := s.svc.Advisories(r.Context(), userID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build advisories", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to build advisories")
		return
	}
	if advisories == nil {
		advisories = []ledger.Advisory{}
	}
	writeJSON(w, http.StatusOK, advisories)
}
