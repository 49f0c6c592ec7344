package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"parkops/service"
)

// NewRouter creates the chi router with the admin routes mounted.
func NewRouter(auditService service.AuditService, cashBagService service.CashBagService, healthCheck func() error) http.Handler {
	h := &Handlers{
		auditService:   auditService,
		cashBagService: cashBagService,
		healthCheck:    healthCheck,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/healthz", h.Health)

	r.Route("/audit", func(r chi.Router) {
		r.Post("/run", h.RunAudit)
		r.Get("/history", h.AuditHistory)
	})

	r.Route("/cash-bags", func(r chi.Router) {
		r.Post("/run", h.RunCashBagAssignments)
		r.Get("/", h.ListCashBags)
		r.Get("/unverified", h.ListUnverifiedCashBags)
		r.Get("/{bagID}", h.GetCashBag)
		r.Post("/{bagID}/verify", h.VerifyCashBag)
	})

	return r
}
