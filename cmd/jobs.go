package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"parkops/bot"
	"parkops/clients"
	"parkops/config"
	"parkops/dates"
	"parkops/service"
)

// RunHideEvent hides one event date on the ticketing platform via the
// browser bot.
func RunHideEvent(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("hide-event", flag.ContinueOnError)
	eventID := flags.String("event", "", "event id on the ticketing platform (required)")
	date := flags.String("date", "", "date to hide, YYYY-MM-DD (required)")
	retries := flags.Int("retries", bot.DefaultHideRetries, "attempt budget for the hide workflow")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *eventID == "" || *date == "" {
		flags.Usage()
		return errors.New("-event and -date are required")
	}
	targetDate, err := dates.Parse(*date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	cfg := config.Get()
	session := bot.NewSession(bot.NewChromeLauncher())
	if err := session.Start(ctx, 0); err != nil {
		return err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			log.Printf("Failed to stop browser: %v", err)
		}
	}()

	quicketBot := bot.NewQuicketBot(session, cfg.QuicketEmail, cfg.QuicketPassword)
	return quicketBot.HideEvent(ctx, *eventID, targetDate, *retries)
}

// RunAudit runs the card payment reconciliation for the given window.
func RunAudit(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("audit", flag.ContinueOnError)
	startDate := flags.String("start", "", "window start, YYYY-MM-DD (default: each source's own window)")
	endDate := flags.String("end", "", "window end, YYYY-MM-DD")
	if err := flags.Parse(args); err != nil {
		return err
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.auditService.CreateCardPaymentAudit(ctx, *startDate, *endDate)
	if err != nil {
		return err
	}
	log.Printf("Audit complete: %d records written", len(records))
	for _, record := range records {
		if record.Variance != 0 {
			log.Printf("  %s: variance %d cents", record.AuditDate.Format("2006-01-02"), record.Variance)
		}
	}
	return nil
}

// RunCashBags creates cash bag assignments for the given window.
func RunCashBags(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("cash-bags", flag.ContinueOnError)
	startDate := flags.String("start", "", "window start, YYYY-MM-DD (default: yesterday)")
	endDate := flags.String("end", "", "window end, YYYY-MM-DD (default: yesterday)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	assignments, err := a.cashBagService.CreateAssignments(ctx, *startDate, *endDate)
	if err != nil {
		return err
	}
	log.Printf("Created %d cash bag assignments", len(assignments))
	for _, assignment := range assignments {
		log.Printf("  %s %s/%s expecting %d cents",
			assignment.BagID, assignment.SourceSystem, assignment.SourceIdentifier, assignment.ExpectedAmount)
	}
	return nil
}

// RunInventory syncs online ticket sales onto POS stock levels for one
// date.
func RunInventory(ctx context.Context, args []string) error {
	cfg := config.Get()

	today, err := dates.Today(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to resolve run date: %w", err)
	}

	flags := flag.NewFlagSet("inventory", flag.ContinueOnError)
	date := flags.String("date", today, "event date to sync, YYYY-MM-DD")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if _, err := dates.Parse(*date); err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	ticketing := clients.NewQuicketClient(cfg.QuicketAPIKey, cfg.QuicketUserToken)
	loyverse := clients.NewLoyverseClient(cfg.LoyverseAPIKey)
	sync := service.NewInventorySyncService(
		ticketing,
		loyverse,
		cfg.LoyverseStoreID,
		cfg.GazeboVariants,
		cfg.VisitorVariantID,
		cfg.VisitorCapacity,
	)
	return sync.Sync(ctx, *date)
}
