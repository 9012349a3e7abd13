package parking

import (
	"fmt"
	"time"
)

type ParkingType string

const (
	Car  ParkingType = "CAR"
	Bike ParkingType = "BIKE"
)

// ParseParkingType maps a stored type name back to a ParkingType.
func ParseParkingType(s string) (ParkingType, error) {
	switch ParkingType(s) {
	case Car, Bike:
		return ParkingType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown parking type %q", ErrInvalidArgument, s)
	}
}

type ParkingSpot struct {
	ID        int
	Type      ParkingType
	Available bool
}

type Ticket struct {
	ID               string
	VehicleRegNumber string
	ParkingSpot      *ParkingSpot
	InTime           time.Time
	// OutTime is zero while the vehicle is still parked.
	OutTime time.Time
	Price   float64
}

func (t *Ticket) IsOpen() bool {
	return t.OutTime.IsZero()
}
