package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuicketTestServer(t *testing.T, routes map[string]string) *QuicketClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user-token", r.Header.Get("usertoken"))
		assert.Equal(t, "api-key", r.URL.Query().Get("api_key"))
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))
	t.Cleanup(server.Close)

	client := NewQuicketClient("api-key", "user-token")
	client.baseURL = server.URL + "/"
	return client
}

func TestQuicketClient_EventIDForDate(t *testing.T) {
	client := newQuicketTestServer(t, map[string]string{
		"/users/me/events": `{"results": [
			{"id": 111, "schedules": [{"startDate": "2025-12-24T09:00:00"}]},
			{"id": 222, "schedules": [
				{"startDate": "2025-12-25T09:00:00"},
				{"startDate": "2025-12-26T09:00:00"}]}
		]}`,
	})

	eventID, err := client.EventIDForDate(context.Background(), "2025-12-26")
	require.NoError(t, err)
	assert.Equal(t, "222", eventID)

	eventID, err = client.EventIDForDate(context.Background(), "2026-01-01")
	require.NoError(t, err)
	assert.Empty(t, eventID)
}

func TestQuicketClient_TicketsFiltersByDay(t *testing.T) {
	client := newQuicketTestServer(t, map[string]string{
		"/events/222/guests": `{"results": [
			{"OrderId": 9001, "TicketInformation": {
				"EventDate": "2025-12-26T09:00:00",
				"Ticket Type": "Day Visitor",
				"First name": "thandi", "Surname": "ngwenya",
				"Purchaser Email": "thandi@example.com"}},
			{"OrderId": 9002, "TicketInformation": {
				"EventDate": "2025-12-27T09:00:00",
				"Ticket Type": "Day Visitor",
				"Purchaser Email": "other@example.com"}},
			{"OrderId": 9003, "TicketInformation": {
				"EventDate": "2025-12-26T09:00:00",
				"Ticket Type": "Gazebo 4",
				"Purchaser Email": "thandi@example.com"}}
		]}`,
	})

	tickets, err := client.Tickets(context.Background(), "222", "2025-12-26")

	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "9001", tickets[0].OrderID)
	assert.Equal(t, "Day Visitor", tickets[0].TicketType)
	assert.Equal(t, "thandi ngwenya", tickets[0].PurchaserName)
	assert.Equal(t, "thandi@example.com", tickets[0].PurchaserEmail)
	assert.Equal(t, "Gazebo 4", tickets[1].TicketType)
}
