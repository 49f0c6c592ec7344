package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"parkops/models"
	"parkops/service"
)

const (
	loyverseBaseURL  = "https://api.loyverse.com/v1.0/"
	loyversePageSize = 250

	paymentTypeCard = "NONINTEGRATEDCARD"
	paymentTypeCash = "CASH"

	receiptTypeRefund = "REFUND"
)

// LoyverseClient reads receipts from the Loyverse cloud POS and writes
// inventory levels back to it.
type LoyverseClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewLoyverseClient(apiKey string) *LoyverseClient {
	return &LoyverseClient{
		baseURL:    loyverseBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type loyversePayment struct {
	Type        string      `json:"type"`
	MoneyAmount json.Number `json:"money_amount"`
}

type loyverseReceipt struct {
	ReceiptDate string            `json:"receipt_date"`
	ReceiptType string            `json:"receipt_type"`
	Payments    []loyversePayment `json:"payments"`
}

// DailyCardPayments returns the net card total per receipt day. Refund
// receipts subtract from the day they were refunded on.
func (c *LoyverseClient) DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error) {
	receipts, err := c.receipts(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	totalsByDate := make(map[string]int64)
	for _, receipt := range receipts {
		day := isoDay(receipt.ReceiptDate)
		for _, payment := range receipt.Payments {
			if payment.Type != paymentTypeCard {
				continue
			}
			amount, err := amountToCents(payment.MoneyAmount.String())
			if err != nil {
				return nil, fmt.Errorf("unparseable payment amount %q: %w", payment.MoneyAmount, err)
			}
			if receipt.ReceiptType == receiptTypeRefund {
				totalsByDate[day] -= amount
			} else {
				totalsByDate[day] += amount
			}
		}
	}

	totals := make([]*models.DailyTotal, 0, len(totalsByDate))
	for date, amount := range totalsByDate {
		totals = append(totals, &models.DailyTotal{Date: date, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals, nil
}

// DailyCashTotals returns the cash drawer picture per receipt day: gross
// cash sales, cash refunds handed back, and the expected remainder.
func (c *LoyverseClient) DailyCashTotals(ctx context.Context, startDate, endDate string) ([]*models.CashDayTotal, error) {
	receipts, err := c.receipts(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	totalsByDate := make(map[string]*models.CashDayTotal)
	for _, receipt := range receipts {
		day := isoDay(receipt.ReceiptDate)
		for _, payment := range receipt.Payments {
			if payment.Type != paymentTypeCash {
				continue
			}
			amount, err := amountToCents(payment.MoneyAmount.String())
			if err != nil {
				return nil, fmt.Errorf("unparseable payment amount %q: %w", payment.MoneyAmount, err)
			}
			total, ok := totalsByDate[day]
			if !ok {
				total = &models.CashDayTotal{Date: day}
				totalsByDate[day] = total
			}
			if receipt.ReceiptType == receiptTypeRefund {
				total.RefundTotal += amount
				total.RefundCount++
			} else {
				total.SalesTotal += amount
			}
		}
	}

	totals := make([]*models.CashDayTotal, 0, len(totalsByDate))
	for _, total := range totalsByDate {
		total.ExpectedCash = total.SalesTotal - total.RefundTotal
		totals = append(totals, total)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals, nil
}

// UpdateInventory writes stock levels in one batch.
func (c *LoyverseClient) UpdateInventory(ctx context.Context, levels []*service.StockLevel) error {
	payload := map[string]any{"inventory_levels": levels}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode inventory levels: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"inventory", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inventory update failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inventory update returned status %d", resp.StatusCode)
	}
	log.WithField("levels", len(levels)).Info("Updated POS inventory")
	return nil
}

// receipts pages through all receipts in the window, following the
// cursor until the API stops returning one.
func (c *LoyverseClient) receipts(ctx context.Context, startDate, endDate string) ([]loyverseReceipt, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(loyversePageSize))
	if startDate != "" {
		params.Set("created_at_min", startDate+"T00:00:00Z")
	}
	if endDate != "" {
		params.Set("created_at_max", endDate+"T23:59:59Z")
	}

	var all []loyverseReceipt
	cursor := ""
	for {
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"receipts?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("receipts request failed: %w", err)
		}
		var page struct {
			Receipts []loyverseReceipt `json:"receipts"`
			Cursor   string            `json:"cursor"`
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("receipts request returned status %d", resp.StatusCode)
		}
		if err != nil {
			return nil, fmt.Errorf("malformed receipts response: %w", err)
		}

		all = append(all, page.Receipts...)
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	return all, nil
}

