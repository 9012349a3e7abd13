package parking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrTicketNotUpdated = errors.New("unable to update ticket")
	// ErrSpotTaken is returned by a SpotStore asked to occupy a spot another
	// terminal occupied first.
	ErrSpotTaken            = errors.New("parking spot already taken")
	ErrVehicleAlreadyParked = errors.New("vehicle already has an open ticket")
)

const claimAttempts = 3

type SpotStore interface {
	// GetNextAvailableSlot returns the id of a free spot of the given type,
	// or a value <= 0 when the parking is full.
	GetNextAvailableSlot(ctx context.Context, t ParkingType) (int, error)
	UpdateParking(ctx context.Context, spot *ParkingSpot) error
}

type TicketStore interface {
	// GetTicket returns the open ticket of a vehicle or ErrTicketNotFound.
	GetTicket(ctx context.Context, vehicleRegNumber string) (*Ticket, error)
	GetTicketCount(ctx context.Context, vehicleRegNumber string) (int, error)
	SaveTicket(ctx context.Context, ticket *Ticket) error
	UpdateTicket(ctx context.Context, ticket *Ticket) error
}

type InputReader interface {
	ReadSelection() int
	ReadVehicleRegistrationNumber() (string, error)
}

type Notifier interface {
	NotifyEntrance(ctx context.Context, ticket *Ticket) error
	NotifyExit(ctx context.Context, ticket *Ticket) error
}

type Service struct {
	input    InputReader
	spots    SpotStore
	tickets  TicketStore
	notifier Notifier
	now      func() time.Time
	logger   *log.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(input InputReader, spots SpotStore, tickets TicketStore, opts ...Option) *Service {
	s := &Service{
		input:   input,
		spots:   spots,
		tickets: tickets,
		now:     time.Now,
		logger:  log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetNextAvailableSpot asks for the vehicle type and returns a free spot of
// that type, or nil when the selection is invalid or nothing is free.
func (s *Service) GetNextAvailableSpot(ctx context.Context) *ParkingSpot {
	parkingType, err := selectionToType(s.input.ReadSelection())
	if err != nil {
		s.logger.Errorf("error parsing user input for type of vehicle: %s", err)
		return nil
	}

	return s.nextSpot(ctx, parkingType)
}

func (s *Service) nextSpot(ctx context.Context, parkingType ParkingType) *ParkingSpot {
	start := time.Now()
	id, err := s.spots.GetNextAvailableSlot(ctx, parkingType)
	StoreLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Errorf("error fetching next available %s slot: %s", parkingType, err)
		return nil
	}
	if id <= 0 {
		s.logger.Warnf("no %s slot available, parking is full", parkingType)
		return nil
	}
	return &ParkingSpot{ID: id, Type: parkingType, Available: true}
}

func selectionToType(selection int) (ParkingType, error) {
	switch selection {
	case 1:
		return Car, nil
	case 2:
		return Bike, nil
	default:
		return "", fmt.Errorf("%w: incorrect vehicle type selection %d", ErrInvalidArgument, selection)
	}
}

// ProcessIncomingVehicle parks a vehicle and returns its new ticket. It
// returns a nil ticket and no error when no spot could be allocated.
func (s *Service) ProcessIncomingVehicle(ctx context.Context) (*Ticket, error) {
	spot := s.GetNextAvailableSpot(ctx)
	if spot == nil {
		RejectedEntries.Inc()
		return nil, nil
	}

	reg, err := s.input.ReadVehicleRegistrationNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to read vehicle registration number: %w", err)
	}

	start := time.Now()
	_, err = s.tickets.GetTicket(ctx, reg)
	StoreLatency.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrVehicleAlreadyParked, reg)
	case !errors.Is(err, ErrTicketNotFound):
		return nil, fmt.Errorf("failed to check open ticket of %s: %w", reg, err)
	}

	count, err := s.ticketCount(ctx, reg)
	if err != nil {
		return nil, err
	}

	id, err := newTicketID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket id: %w", err)
	}

	if spot, err = s.occupy(ctx, spot); err != nil {
		return nil, err
	}
	if spot == nil {
		RejectedEntries.Inc()
		return nil, nil
	}

	ticket := &Ticket{
		ID:               id,
		VehicleRegNumber: reg,
		ParkingSpot:      spot,
		InTime:           s.now(),
	}

	start = time.Now()
	err = s.tickets.SaveTicket(ctx, ticket)
	StoreLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		spot.Available = true
		if rerr := s.updateParking(ctx, spot); rerr != nil {
			s.logger.Errorf("failed to release spot %d after ticket save error: %s", spot.ID, rerr)
		}
		return nil, fmt.Errorf("failed to save ticket for %s: %w", reg, err)
	}

	entry := s.logger.WithFields(log.Fields{
		"vehicle_plate": reg,
		"ticket_id":     ticket.ID,
		"spot_id":       spot.ID,
		"spot_type":     spot.Type,
		"in_time":       ticket.InTime.UTC().Format(time.RFC3339),
	})
	if count > 0 {
		entry = entry.WithField("recurring", true)
	}
	entry.Info("vehicle parked")
	EntriesTotal.WithLabelValues(string(spot.Type)).Inc()

	if s.notifier != nil {
		if err := s.notifier.NotifyEntrance(ctx, ticket); err != nil {
			s.logger.Errorf("failed to publish entrance of %s: %s", reg, err)
		}
	}
	return ticket, nil
}

// ProcessExitingVehicle closes the open ticket of a vehicle and frees its
// spot. The spot is only released once the completed ticket is stored.
func (s *Service) ProcessExitingVehicle(ctx context.Context) (*Ticket, error) {
	reg, err := s.input.ReadVehicleRegistrationNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to read vehicle registration number: %w", err)
	}

	start := time.Now()
	ticket, err := s.tickets.GetTicket(ctx, reg)
	StoreLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket for %s: %w", reg, err)
	}

	count, err := s.ticketCount(ctx, reg)
	if err != nil {
		return nil, err
	}

	ticket.OutTime = s.now()
	// the ticket being closed is part of the count
	if err := CalculateFareWithDiscount(ticket, count > 1); err != nil {
		return nil, err
	}

	start = time.Now()
	err = s.tickets.UpdateTicket(ctx, ticket)
	StoreLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrTicketNotUpdated, ticket.ID, err)
	}

	spot := ticket.ParkingSpot
	spot.Available = true
	if err := s.updateParking(ctx, spot); err != nil {
		s.logger.WithFields(log.Fields{
			"vehicle_plate": reg,
			"ticket_id":     ticket.ID,
			"spot_id":       spot.ID,
		}).WithError(err).Error("ticket closed but spot still marked occupied, spot is stranded")
		return nil, fmt.Errorf("failed to free spot %d: %w", spot.ID, err)
	}

	s.logger.WithFields(log.Fields{
		"vehicle_plate": reg,
		"ticket_id":     ticket.ID,
		"spot_id":       spot.ID,
		"out_time":      ticket.OutTime.UTC().Format(time.RFC3339),
		"price":         ticket.Price,
		"discount":      count > 1,
	}).Info("vehicle exited")
	ExitsTotal.WithLabelValues(string(spot.Type)).Inc()
	FareAmount.Observe(ticket.Price)

	if s.notifier != nil {
		if err := s.notifier.NotifyExit(ctx, ticket); err != nil {
			s.logger.Errorf("failed to publish exit of %s: %s", reg, err)
		}
	}
	return ticket, nil
}

// occupy marks spot as taken. When another terminal took it first the next
// free spot of the same type is tried. A nil spot means the parking filled up.
func (s *Service) occupy(ctx context.Context, spot *ParkingSpot) (*ParkingSpot, error) {
	for attempt := 1; ; attempt++ {
		spot.Available = false
		err := s.updateParking(ctx, spot)
		if err == nil {
			return spot, nil
		}
		if !errors.Is(err, ErrSpotTaken) || attempt == claimAttempts {
			return nil, fmt.Errorf("failed to occupy spot %d: %w", spot.ID, err)
		}
		s.logger.Warnf("spot %d was taken by another terminal, looking for another one", spot.ID)
		if spot = s.nextSpot(ctx, spot.Type); spot == nil {
			return nil, nil
		}
	}
}

func (s *Service) updateParking(ctx context.Context, spot *ParkingSpot) error {
	start := time.Now()
	defer func() { StoreLatency.Observe(time.Since(start).Seconds()) }()
	return s.spots.UpdateParking(ctx, spot)
}

func (s *Service) ticketCount(ctx context.Context, reg string) (int, error) {
	start := time.Now()
	defer func() { StoreLatency.Observe(time.Since(start).Seconds()) }()
	count, err := s.tickets.GetTicketCount(ctx, reg)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets of %s: %w", reg, err)
	}
	return count, nil
}

func newTicketID() (string, error) {
	v7, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return "TKT:" + v7.String(), nil
}
