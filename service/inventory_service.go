package service

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// inventorySyncService pushes online ticket sales onto cloud POS stock
// levels: gazebos booked online are marked out of stock so the tills cannot
// double-sell them, and walk-in visitor capacity is decremented by the
// online visitor ticket count.
type inventorySyncService struct {
	ticketing TicketingAdapter
	inventory InventoryWriter

	storeID   string
	gazeboMap map[string]string // ticket type name -> POS variant id

	// visitorVariantID and visitorCapacity describe the walk-in visitor
	// stock item; empty variant id disables the capacity sync.
	visitorVariantID string
	visitorCapacity  int
}

// NewInventorySyncService creates the ticket-to-stock sync.
func NewInventorySyncService(ticketing TicketingAdapter, inventory InventoryWriter, storeID string, gazeboMap map[string]string, visitorVariantID string, visitorCapacity int) InventorySyncer {
	return &inventorySyncService{
		ticketing:        ticketing,
		inventory:        inventory,
		storeID:          storeID,
		gazeboMap:        gazeboMap,
		visitorVariantID: visitorVariantID,
		visitorCapacity:  visitorCapacity,
	}
}

// Sync updates POS stock for the given date from the ticketing platform's
// guest list. Plain mapping plus API calls; failures propagate.
func (s *inventorySyncService) Sync(ctx context.Context, date string) error {
	eventID, err := s.ticketing.EventIDForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to resolve event for %s: %w", date, err)
	}
	if eventID == "" {
		return fmt.Errorf("no event scheduled for %s", date)
	}

	tickets, err := s.ticketing.Tickets(ctx, eventID, date)
	if err != nil {
		return fmt.Errorf("failed to fetch tickets for event %s: %w", eventID, err)
	}

	var levels []*StockLevel
	visitorCount := 0

	for _, ticket := range tickets {
		ticketType := strings.ToLower(ticket.TicketType)
		switch {
		case strings.Contains(ticketType, "gazebo"):
			variantID, ok := s.gazeboMap[ticket.TicketType]
			if !ok {
				log.Warnf("Unknown gazebo ticket type %q - skipping", ticket.TicketType)
				continue
			}
			// Booked online: zero walk-in stock for that gazebo.
			levels = append(levels, &StockLevel{
				VariantID:  variantID,
				StoreID:    s.storeID,
				StockAfter: 0,
			})
		case strings.Contains(ticketType, "visitor"):
			visitorCount++
		}
	}

	if s.visitorVariantID != "" {
		remaining := s.visitorCapacity - visitorCount
		if remaining < 0 {
			remaining = 0
		}
		levels = append(levels, &StockLevel{
			VariantID:  s.visitorVariantID,
			StoreID:    s.storeID,
			StockAfter: remaining,
		})
	}

	if len(levels) == 0 {
		log.Infof("No inventory changes for %s", date)
		return nil
	}

	if err := s.inventory.UpdateInventory(ctx, levels); err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}
	log.Infof("Synced %d stock levels for %s (%d online visitors)", len(levels), date, visitorCount)

	return nil
}
