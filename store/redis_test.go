package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/round-cube/parking-system/parking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedis(rdb), mr
}

func TestSeedSpots(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.SeedSpots(ctx, 3, 2))

	car, err := s.GetNextAvailableSlot(ctx, parking.Car)
	require.NoError(t, err)
	assert.Equal(t, 1, car)

	bike, err := s.GetNextAvailableSlot(ctx, parking.Bike)
	require.NoError(t, err)
	assert.Equal(t, 4, bike)

	spot, err := s.GetSpot(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, &parking.ParkingSpot{ID: 5, Type: parking.Bike, Available: true}, spot)
}

func TestSeedSpots_KeepsExistingState(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.SeedSpots(ctx, 1, 0))
	require.NoError(t, s.UpdateParking(ctx, &parking.ParkingSpot{ID: 1, Type: parking.Car, Available: false}))

	require.NoError(t, s.SeedSpots(ctx, 1, 0))

	spot, err := s.GetSpot(ctx, 1)
	require.NoError(t, err)
	assert.False(t, spot.Available)
}

func TestUpdateParking(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.SeedSpots(ctx, 2, 0))

	require.NoError(t, s.UpdateParking(ctx, &parking.ParkingSpot{ID: 1, Type: parking.Car, Available: false}))
	next, err := s.GetNextAvailableSlot(ctx, parking.Car)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	require.NoError(t, s.UpdateParking(ctx, &parking.ParkingSpot{ID: 2, Type: parking.Car, Available: false}))
	next, err = s.GetNextAvailableSlot(ctx, parking.Car)
	require.NoError(t, err)
	assert.Zero(t, next)

	require.NoError(t, s.UpdateParking(ctx, &parking.ParkingSpot{ID: 1, Type: parking.Car, Available: true}))
	next, err = s.GetNextAvailableSlot(ctx, parking.Car)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestUpdateParking_ReleasesLock(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, s.SeedSpots(ctx, 1, 0))

	require.NoError(t, s.UpdateParking(ctx, &parking.ParkingSpot{ID: 1, Type: parking.Car, Available: false}))
	assert.False(t, mr.Exists("LOCKspot:1"))
}

func TestTickets(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.SeedSpots(ctx, 1, 1))

	spot := &parking.ParkingSpot{ID: 2, Type: parking.Bike, Available: false}
	require.NoError(t, s.UpdateParking(ctx, spot))

	count, err := s.GetTicketCount(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = s.GetTicket(ctx, "ABCDEF")
	assert.ErrorIs(t, err, parking.ErrTicketNotFound)

	in := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ticket := &parking.Ticket{
		ID:               "TKT:1",
		VehicleRegNumber: "ABCDEF",
		ParkingSpot:      spot,
		InTime:           in,
	}
	require.NoError(t, s.SaveTicket(ctx, ticket))

	count, err = s.GetTicketCount(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := s.GetTicket(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, ticket, stored)
	assert.True(t, stored.IsOpen())

	stored.OutTime = in.Add(2 * time.Hour)
	stored.Price = 2
	require.NoError(t, s.UpdateTicket(ctx, stored))

	_, err = s.GetTicket(ctx, "ABCDEF")
	assert.ErrorIs(t, err, parking.ErrTicketNotFound)

	closed, err := s.getTicketByID(ctx, "TKT:1")
	require.NoError(t, err)
	assert.Equal(t, in.Add(2*time.Hour), closed.OutTime)
	assert.Equal(t, 2.0, closed.Price)

	count, err = s.GetTicketCount(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateTicket_Unknown(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.UpdateTicket(context.Background(), &parking.Ticket{ID: "TKT:missing", VehicleRegNumber: "ABCDEF"})
	assert.ErrorIs(t, err, parking.ErrTicketNotFound)
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.GetNextAvailableSlot(ctx, parking.Car)
	assert.Error(t, err)
	_, err = s.GetTicketCount(ctx, "ABCDEF")
	assert.Error(t, err)
	assert.Error(t, s.Ping(ctx))
}

func TestUpdateParking_OccupyTakenSpot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.SeedSpots(ctx, 1, 0))
	require.NoError(t, s.UpdateParking(ctx, &parking.ParkingSpot{ID: 1, Type: parking.Car, Available: false}))

	err := s.UpdateParking(ctx, &parking.ParkingSpot{ID: 1, Type: parking.Car, Available: false})
	assert.ErrorIs(t, err, parking.ErrSpotTaken)

	err = s.UpdateParking(ctx, &parking.ParkingSpot{ID: 9, Type: parking.Car, Available: false})
	assert.ErrorIs(t, err, parking.ErrSpotTaken)
}

func TestSaveTicket_OpenTicketExists(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.SeedSpots(ctx, 2, 0))
	in := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	first := &parking.Ticket{ID: "TKT:1", VehicleRegNumber: "AAA", ParkingSpot: &parking.ParkingSpot{ID: 1, Type: parking.Car}, InTime: in}
	require.NoError(t, s.SaveTicket(ctx, first))

	second := &parking.Ticket{ID: "TKT:2", VehicleRegNumber: "AAA", ParkingSpot: &parking.ParkingSpot{ID: 2, Type: parking.Car}, InTime: in}
	assert.ErrorIs(t, s.SaveTicket(ctx, second), parking.ErrVehicleAlreadyParked)

	open, err := s.GetTicket(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, "TKT:1", open.ID)
	count, err := s.GetTicketCount(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
