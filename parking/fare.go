package parking

import (
	"errors"
	"fmt"
)

const (
	CarRatePerHour  = 1.5
	BikeRatePerHour = 1.0

	freeParkingMinutes = 30
	recurringDiscount  = 0.95
)

var ErrInvalidArgument = errors.New("invalid argument")

// CalculateFare sets ticket.Price without the recurring user discount.
func CalculateFare(ticket *Ticket) error {
	return CalculateFareWithDiscount(ticket, false)
}

// CalculateFareWithDiscount sets ticket.Price from the time spent parked.
// Stays of 30 minutes or less are free; longer stays are billed per hour
// at the spot type's rate, less 5% when discount is set.
func CalculateFareWithDiscount(ticket *Ticket, discount bool) error {
	if ticket.OutTime.IsZero() || ticket.OutTime.Before(ticket.InTime) {
		return fmt.Errorf("%w: out time provided is incorrect: %v", ErrInvalidArgument, ticket.OutTime)
	}
	if ticket.ParkingSpot == nil {
		return fmt.Errorf("%w: ticket %s has no parking spot", ErrInvalidArgument, ticket.ID)
	}

	minutes := ticket.OutTime.Sub(ticket.InTime).Minutes()
	if minutes <= freeParkingMinutes {
		ticket.Price = 0
		return nil
	}

	var rate float64
	switch ticket.ParkingSpot.Type {
	case Car:
		rate = CarRatePerHour
	case Bike:
		rate = BikeRatePerHour
	default:
		return fmt.Errorf("%w: unknown parking type %q", ErrInvalidArgument, ticket.ParkingSpot.Type)
	}

	price := minutes / 60 * rate
	if discount {
		price *= recurringDiscount
	}
	ticket.Price = price
	return nil
}
