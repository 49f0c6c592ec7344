package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"parkops/dates"
	"parkops/service"
)

// Handlers groups the HTTP handler methods and their dependencies.
type Handlers struct {
	auditService   service.AuditService
	cashBagService service.CashBagService
	healthCheck    func() error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// dateWindow reads optional start_date/end_date bounds, rejecting malformed
// dates. Empty strings pass through; the services apply their defaults.
func dateWindow(startDate, endDate string) (string, string, error) {
	for _, date := range []string{startDate, endDate} {
		if date == "" {
			continue
		}
		if _, err := dates.Parse(date); err != nil {
			return "", "", errors.New("dates must be YYYY-MM-DD")
		}
	}
	return startDate, endDate, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.healthCheck(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *Handlers) RunAudit(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	startDate, endDate, err := dateWindow(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.auditService.CreateCardPaymentAudit(r.Context(), startDate, endDate)
	if err != nil {
		log.WithError(err).Error("Audit run failed")
		writeError(w, http.StatusInternalServerError, "audit run failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (h *Handlers) AuditHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startDate, endDate, err := dateWindow(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.auditService.GetCardAuditReport(r.Context(), startDate, endDate)
	if err != nil {
		log.WithError(err).Error("Audit history query failed")
		writeError(w, http.StatusInternalServerError, "audit history query failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) RunCashBagAssignments(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	startDate, endDate, err := dateWindow(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assignments, err := h.cashBagService.CreateAssignments(r.Context(), startDate, endDate)
	if err != nil {
		log.WithError(err).Error("Cash bag assignment run failed")
		writeError(w, http.StatusInternalServerError, "cash bag assignment run failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(assignments),
		"assignments": assignments,
	})
}

func (h *Handlers) ListCashBags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startDate, endDate, err := dateWindow(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assignments, err := h.cashBagService.ListAssignments(r.Context(), startDate, endDate)
	if err != nil {
		log.WithError(err).Error("Cash bag listing failed")
		writeError(w, http.StatusInternalServerError, "cash bag listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(assignments),
		"assignments": assignments,
	})
}

func (h *Handlers) ListUnverifiedCashBags(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.cashBagService.ListUnverified(r.Context())
	if err != nil {
		log.WithError(err).Error("Unverified cash bag listing failed")
		writeError(w, http.StatusInternalServerError, "cash bag listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(assignments),
		"assignments": assignments,
	})
}

func (h *Handlers) GetCashBag(w http.ResponseWriter, r *http.Request) {
	bagID := chi.URLParam(r, "bagID")

	bag, err := h.cashBagService.GetBag(r.Context(), bagID)
	if err != nil {
		if errors.Is(err, service.ErrBagNotFound) {
			writeError(w, http.StatusNotFound, "cash bag not found")
			return
		}
		log.WithError(err).Error("Cash bag lookup failed")
		writeError(w, http.StatusInternalServerError, "cash bag lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, bag)
}

type verifyRequest struct {
	CountedAmount *int64 `json:"counted_amount"`
	CountedBy     string `json:"counted_by"`
	Notes         string `json:"notes"`
}

func (h *Handlers) VerifyCashBag(w http.ResponseWriter, r *http.Request) {
	bagID := chi.URLParam(r, "bagID")

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CountedAmount == nil {
		writeError(w, http.StatusBadRequest, "counted_amount is required")
		return
	}
	if req.CountedBy == "" {
		writeError(w, http.StatusBadRequest, "counted_by is required")
		return
	}

	verification, err := h.cashBagService.VerifyBag(r.Context(), bagID, *req.CountedAmount, req.CountedBy, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBagNotFound):
			writeError(w, http.StatusNotFound, "cash bag not found")
		case errors.Is(err, service.ErrBagAlreadyVerified):
			writeError(w, http.StatusConflict, "cash bag already verified")
		default:
			log.WithError(err).Error("Cash bag verification failed")
			writeError(w, http.StatusInternalServerError, "cash bag verification failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, verification)
}
