package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parkops/service"
)

const quicketBaseURL = "https://api.quicket.co.za/api/"

// QuicketClient reads events and guest lists from the Quicket REST API.
// The browser bot handles the operations the API does not expose; this
// client only reads.
type QuicketClient struct {
	baseURL    string
	apiKey     string
	userToken  string
	httpClient *http.Client
}

func NewQuicketClient(apiKey, userToken string) *QuicketClient {
	return &QuicketClient{
		baseURL:    quicketBaseURL,
		apiKey:     apiKey,
		userToken:  userToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// EventIDForDate finds the organiser event with a schedule entry on the
// given day, or "" when none is scheduled.
func (c *QuicketClient) EventIDForDate(ctx context.Context, date string) (string, error) {
	var response struct {
		Results []struct {
			ID        json.Number `json:"id"`
			Schedules []struct {
				StartDate string `json:"startDate"`
			} `json:"schedules"`
		} `json:"results"`
	}
	if err := c.get(ctx, "users/me/events", &response); err != nil {
		return "", fmt.Errorf("failed to list events: %w", err)
	}

	for _, event := range response.Results {
		for _, schedule := range event.Schedules {
			if isoDay(schedule.StartDate) == date {
				return event.ID.String(), nil
			}
		}
	}
	return "", nil
}

// Tickets returns the event's guest tickets for the given day.
func (c *QuicketClient) Tickets(ctx context.Context, eventID, date string) ([]*service.Ticket, error) {
	var response struct {
		Results []struct {
			OrderID           json.Number       `json:"OrderId"`
			TicketInformation map[string]string `json:"TicketInformation"`
		} `json:"results"`
	}
	if err := c.get(ctx, "events/"+url.PathEscape(eventID)+"/guests", &response); err != nil {
		return nil, fmt.Errorf("failed to fetch guest list: %w", err)
	}

	var tickets []*service.Ticket
	for _, guest := range response.Results {
		info := guest.TicketInformation
		if info == nil || isoDay(info["EventDate"]) != date {
			continue
		}
		name := strings.TrimSpace(info["First name"] + " " + info["Surname"])
		tickets = append(tickets, &service.Ticket{
			OrderID:        guest.OrderID.String(),
			TicketType:     info["Ticket Type"],
			PurchaserName:  name,
			PurchaserEmail: info["Purchaser Email"],
		})
	}
	return tickets, nil
}

func (c *QuicketClient) get(ctx context.Context, endpoint string, out any) error {
	requestURL := c.baseURL + endpoint + "?api_key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("usertoken", c.userToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

// isoDay extracts the calendar day from an ISO timestamp.
func isoDay(timestamp string) string {
	day, _, _ := strings.Cut(timestamp, "T")
	return day
}
