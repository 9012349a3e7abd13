package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/round-cube/parking-system/parking"
	"github.com/round-cube/parking-system/shared"
)

type Publisher interface {
	PublishJSON(ctx context.Context, v any) error
}

// RMQNotifier publishes shared.Entrance and shared.Exit events for parked
// and departed vehicles. The ticket id is used as parking id so an entrance
// and its exit can be matched downstream.
type RMQNotifier struct {
	entrances Publisher
	exits     Publisher
	now       func() time.Time
}

var _ parking.Notifier = (*RMQNotifier)(nil)

func NewRMQNotifier(entrances, exits Publisher) *RMQNotifier {
	return &RMQNotifier{entrances: entrances, exits: exits, now: time.Now}
}

func (n *RMQNotifier) NotifyEntrance(ctx context.Context, ticket *parking.Ticket) error {
	id, err := eventID("ETR:")
	if err != nil {
		return err
	}
	return n.entrances.PublishJSON(ctx, shared.Entrance{
		VehiclePlate:  ticket.VehicleRegNumber,
		EntryDateTime: ticket.InTime.UTC().Format(time.RFC3339),
		EntryId:       id,
		ParkingId:     ticket.ID,
		SpotType:      spotType(ticket),
		Ts:            n.now().UTC().Format(time.RFC3339),
	})
}

func (n *RMQNotifier) NotifyExit(ctx context.Context, ticket *parking.Ticket) error {
	id, err := eventID("EXT:")
	if err != nil {
		return err
	}
	return n.exits.PublishJSON(ctx, shared.Exit{
		VehiclePlate: ticket.VehicleRegNumber,
		ExitDateTime: ticket.OutTime.UTC().Format(time.RFC3339),
		EntryId:      id,
		ParkingId:    ticket.ID,
		SpotType:     spotType(ticket),
		Price:        roundCents(ticket.Price),
		Ts:           n.now().UTC().Format(time.RFC3339),
	})
}

func spotType(ticket *parking.Ticket) string {
	if ticket.ParkingSpot == nil {
		return ""
	}
	return string(ticket.ParkingSpot.Type)
}

func roundCents(price float64) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(price, 'f', 2, 64), 64)
	return rounded
}

func eventID(prefix string) (string, error) {
	v7, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return prefix + v7.String(), nil
}
