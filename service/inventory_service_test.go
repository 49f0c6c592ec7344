package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInventorySync_MapsTicketsToStockLevels(t *testing.T) {
	ticketing := new(MockTicketingAdapter)
	inventory := new(MockInventoryWriter)

	ticketing.On("EventIDForDate", mock.Anything, "2025-12-26").Return("222", nil)
	ticketing.On("Tickets", mock.Anything, "222", "2025-12-26").Return([]*Ticket{
		{OrderID: "9001", TicketType: "Day Visitor"},
		{OrderID: "9002", TicketType: "Day Visitor"},
		{OrderID: "9003", TicketType: "Gazebo 4"},
		{OrderID: "9004", TicketType: "Gazebo 7"},
		{OrderID: "9005", TicketType: "Unknown Gazebo"},
	}, nil)

	var written []*StockLevel
	inventory.On("UpdateInventory", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			written = args.Get(1).([]*StockLevel)
		}).
		Return(nil)

	sync := NewInventorySyncService(ticketing, inventory, "store-1",
		map[string]string{"Gazebo 4": "variant-g4", "Gazebo 7": "variant-g7"},
		"variant-visitor", 200)

	err := sync.Sync(context.Background(), "2025-12-26")

	require.NoError(t, err)
	require.Len(t, written, 3)
	// Booked gazebos go out of stock; unknown gazebo types are skipped.
	assert.Equal(t, &StockLevel{VariantID: "variant-g4", StoreID: "store-1", StockAfter: 0}, written[0])
	assert.Equal(t, &StockLevel{VariantID: "variant-g7", StoreID: "store-1", StockAfter: 0}, written[1])
	// Two online visitors leave 198 walk-in slots.
	assert.Equal(t, &StockLevel{VariantID: "variant-visitor", StoreID: "store-1", StockAfter: 198}, written[2])
	inventory.AssertExpectations(t)
}

func TestInventorySync_NoEventScheduled(t *testing.T) {
	ticketing := new(MockTicketingAdapter)
	inventory := new(MockInventoryWriter)

	ticketing.On("EventIDForDate", mock.Anything, "2025-12-26").Return("", nil)

	sync := NewInventorySyncService(ticketing, inventory, "store-1", nil, "", 0)

	err := sync.Sync(context.Background(), "2025-12-26")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event scheduled")
	inventory.AssertNotCalled(t, "UpdateInventory", mock.Anything, mock.Anything)
}

func TestInventorySync_VisitorCapacityFloorsAtZero(t *testing.T) {
	ticketing := new(MockTicketingAdapter)
	inventory := new(MockInventoryWriter)

	ticketing.On("EventIDForDate", mock.Anything, "2025-12-26").Return("222", nil)
	tickets := make([]*Ticket, 0, 5)
	for i := 0; i < 5; i++ {
		tickets = append(tickets, &Ticket{TicketType: "Day Visitor"})
	}
	ticketing.On("Tickets", mock.Anything, "222", "2025-12-26").Return(tickets, nil)

	var written []*StockLevel
	inventory.On("UpdateInventory", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			written = args.Get(1).([]*StockLevel)
		}).
		Return(nil)

	sync := NewInventorySyncService(ticketing, inventory, "store-1", nil, "variant-visitor", 3)

	err := sync.Sync(context.Background(), "2025-12-26")

	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, 0, written[0].StockAfter)
}
