package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"parkops/api"
	"parkops/clients"
	"parkops/config"
	"parkops/database"
	"parkops/dates"
	"parkops/repository"
	"parkops/service"
)

// app wires the shared dependency graph used by the server and the job
// commands.
type app struct {
	cfg *config.Config
	db  *database.DB

	auditService   service.AuditService
	cashBagService service.CashBagService
}

func buildApp(ctx context.Context) (*app, error) {
	cfg := config.Get()

	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	paycloud, err := clients.NewPaycloudClient(
		cfg.PaycloudBaseURL,
		cfg.PaycloudAppID,
		cfg.PaycloudMerchantNo,
		cfg.PaycloudTerminals,
		cfg.PaycloudPrivateKey,
		cfg.PaycloudGatewayPublicKey,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize paycloud client: %w", err)
	}
	loyverse := clients.NewLoyverseClient(cfg.LoyverseAPIKey)
	aronium, err := repository.NewAroniumRepository(cfg.AroniumDBPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open aronium ledger: %w", err)
	}

	runDate, err := dates.Today(cfg.Timezone)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to resolve run date: %w", err)
	}

	auditRepo := repository.NewCardPaymentAuditRepository(db)
	cashBagRepo := repository.NewCashBagRepository(db)

	return &app{
		cfg:            cfg,
		db:             db,
		auditService:   service.NewAuditService(paycloud, loyverse, aronium, auditRepo, runDate),
		cashBagService: service.NewCashBagService(loyverse, aronium, cashBagRepo, runDate),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

// Run starts the admin HTTP server and blocks until the context is
// cancelled.
func Run(ctx context.Context) error {
	log.Println("Starting parkops server...")

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	router := api.NewRouter(a.auditService, a.cashBagService, func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return a.db.Ping(pingCtx)
	})

	server := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", a.cfg.ListenAddr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
