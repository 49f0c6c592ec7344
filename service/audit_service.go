package service

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"parkops/dates"
	"parkops/models"
)

// reportDefaultDays is the audit history window when no range is given.
const reportDefaultDays = 30

// varianceThreshold is the absolute variance (in cents) above which a day
// counts as "with variance" in report summaries.
const varianceThreshold = 1

// auditService reconciles daily card totals across the three payment
// sources and persists one variance record per date. A run is
// all-or-nothing: any adapter or persistence failure aborts it.
type auditService struct {
	terminal  TerminalAdapter
	primary   PrimaryPOSAdapter
	secondary SecondaryPOSAdapter
	repo      CardPaymentAuditRepository
	runDate   string // process run date, fixed at startup
}

// NewAuditService creates the card payment audit engine. runDate is the ISO
// date the process was started with; it anchors default report windows.
func NewAuditService(terminal TerminalAdapter, primary PrimaryPOSAdapter, secondary SecondaryPOSAdapter, repo CardPaymentAuditRepository, runDate string) AuditService {
	return &auditService{
		terminal:  terminal,
		primary:   primary,
		secondary: secondary,
		repo:      repo,
		runDate:   runDate,
	}
}

// CreateCardPaymentAudit fetches daily card totals from all three sources,
// merges them over the union of dates and persists the variance records as
// one batch. With an explicit range it returns all records in that range;
// otherwise it returns the rows just created by re-querying their date span.
func (s *auditService) CreateCardPaymentAudit(ctx context.Context, startDate, endDate string) ([]*models.CardPaymentAudit, error) {
	terminalTotals, err := s.terminal.DailyCardPayments(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch terminal card payments: %w", err)
	}

	loyverseTotals, err := s.primary.DailyCardPayments(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch loyverse card payments: %w", err)
	}

	aroniumTotals, err := s.secondary.DailyCardPayments(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aronium card payments: %w", err)
	}

	records, err := buildAuditRecords(terminalTotals, loyverseTotals, aroniumTotals)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		log.Warn("Card payment audit produced no records - no source reported any dates")
	} else {
		if err := s.repo.CreateBatch(ctx, records); err != nil {
			return nil, fmt.Errorf("failed to persist audit records: %w", err)
		}
		log.Infof("Created %d card payment audit records", len(records))
	}

	// An explicit range returns everything stored in it, including rows
	// that predate this run.
	if startDate != "" && endDate != "" {
		start, err := dates.Parse(startDate)
		if err != nil {
			return nil, err
		}
		end, err := dates.Parse(endDate)
		if err != nil {
			return nil, err
		}
		return s.repo.GetByDateRange(ctx, start, end)
	}

	if len(records) == 0 {
		return []*models.CardPaymentAudit{}, nil
	}

	// No explicit range: re-query the span of the rows just written.
	first, last := records[0].AuditDate, records[len(records)-1].AuditDate
	return s.repo.GetByDateRange(ctx, first, last)
}

// buildAuditRecords merges the three per-source totals. The union of all
// dates is iterated ascending; amounts for a date missing from a source
// default to zero at combination time.
func buildAuditRecords(terminal, loyverse, aronium []*models.DailyTotal) ([]*models.CardPaymentAudit, error) {
	seen := make(map[string]bool)
	for _, totals := range [][]*models.DailyTotal{terminal, loyverse, aronium} {
		for _, t := range totals {
			seen[t.Date] = true
		}
	}

	allDates := make([]string, 0, len(seen))
	for date := range seen {
		allDates = append(allDates, date)
	}
	// ISO date strings order lexicographically == chronologically.
	sort.Strings(allDates)

	terminalByDate := totalsByDate(terminal)
	loyverseByDate := totalsByDate(loyverse)
	aroniumByDate := totalsByDate(aronium)

	records := make([]*models.CardPaymentAudit, 0, len(allDates))
	for _, date := range allDates {
		auditDate, err := dates.Parse(date)
		if err != nil {
			return nil, fmt.Errorf("source reported unparseable date: %w", err)
		}

		terminalAmt := terminalByDate[date]
		loyverseAmt := loyverseByDate[date]
		aroniumAmt := aroniumByDate[date]

		posTotal := loyverseAmt + aroniumAmt
		records = append(records, &models.CardPaymentAudit{
			AuditDate:      auditDate,
			PaycloudAmount: terminalAmt,
			LoyverseAmount: loyverseAmt,
			AroniumAmount:  aroniumAmt,
			POSTotal:       posTotal,
			Variance:       terminalAmt - posTotal,
		})
	}

	return records, nil
}

func totalsByDate(totals []*models.DailyTotal) map[string]int64 {
	byDate := make(map[string]int64, len(totals))
	for _, t := range totals {
		byDate[t.Date] = t.Amount
	}
	return byDate
}

// GetCardAuditReport returns persisted audit records for the range (default
// the last 30 days up to the run date) together with summary statistics.
func (s *auditService) GetCardAuditReport(ctx context.Context, startDate, endDate string) (*models.CardAuditReport, error) {
	if endDate == "" {
		endDate = s.runDate
	}
	if startDate == "" {
		var err error
		startDate, err = dates.AddDays(endDate, -reportDefaultDays)
		if err != nil {
			return nil, err
		}
	}

	start, err := dates.Parse(startDate)
	if err != nil {
		return nil, err
	}
	end, err := dates.Parse(endDate)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit records: %w", err)
	}

	return &models.CardAuditReport{
		Summary: summarize(records),
		Records: records,
	}, nil
}

// summarize reduces a record set to its report statistics. All statistics
// operate over the absolute value of the variance.
func summarize(records []*models.CardPaymentAudit) *models.CardAuditSummary {
	summary := &models.CardAuditSummary{TotalDays: len(records)}
	for _, r := range records {
		v := r.Variance
		if v < 0 {
			v = -v
		}
		if v > varianceThreshold {
			summary.DaysWithVariance++
		}
		summary.TotalVariance += v
		if v > summary.LargestVariance {
			summary.LargestVariance = v
		}
	}
	if summary.TotalDays > 0 {
		summary.AverageVariance = summary.TotalVariance / int64(summary.TotalDays)
	}
	return summary
}
