package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/round-cube/parking-system/parking"
	log "github.com/sirupsen/logrus"
)

// Redis keeps spots and tickets in Redis hashes. Free spots of each type are
// indexed in a sorted set scored by spot id so the lowest free id wins.
type Redis struct {
	rdb      *redis.Client
	locker   *redislock.Client
	lockOpts *redislock.Options
	lockTTL  time.Duration
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{
		rdb:    rdb,
		locker: redislock.New(rdb),
		lockOpts: &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 3),
		},
		lockTTL: time.Second,
	}
}

func spotKey(id int) string {
	return "spot:" + strconv.Itoa(id)
}

func freeSpotsKey(t parking.ParkingType) string {
	return "spots:free:" + string(t)
}

func ticketKey(id string) string {
	return "ticket:" + id
}

func openTicketKey(reg string) string {
	return "tickets:open:" + reg
}

func ticketCountKey(reg string) string {
	return "tickets:count:" + reg
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// SeedSpots creates spots 1..cars as CAR and the following bikes spots as
// BIKE. Spots that already exist keep their state.
func (r *Redis) SeedSpots(ctx context.Context, cars, bikes int) error {
	for id := 1; id <= cars+bikes; id++ {
		t := parking.Car
		if id > cars {
			t = parking.Bike
		}
		exists, err := r.rdb.Exists(ctx, spotKey(id)).Result()
		if err != nil {
			return fmt.Errorf("failed to check spot %d: %w", id, err)
		}
		if exists > 0 {
			continue
		}
		if err := r.writeSpot(ctx, &parking.ParkingSpot{ID: id, Type: t, Available: true}); err != nil {
			return err
		}
		log.Debugf("seeded %s spot %d", t, id)
	}
	return nil
}

func (r *Redis) GetNextAvailableSlot(ctx context.Context, t parking.ParkingType) (int, error) {
	ids, err := r.rdb.ZRange(ctx, freeSpotsKey(t), 0, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch free %s spots from Redis: %w", t, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	id, err := strconv.Atoi(ids[0])
	if err != nil {
		return 0, fmt.Errorf("failed to parse spot id %q: %w", ids[0], err)
	}
	return id, nil
}

// GetSpot is used by the ticket reader to rebuild a ticket's spot.
func (r *Redis) GetSpot(ctx context.Context, id int) (*parking.ParkingSpot, error) {
	state, err := r.rdb.HGetAll(ctx, spotKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spot %d from Redis: %w", id, err)
	}
	if len(state) == 0 {
		return nil, fmt.Errorf("spot %d does not exist", id)
	}
	t, err := parking.ParseParkingType(state["type"])
	if err != nil {
		return nil, err
	}
	return &parking.ParkingSpot{ID: id, Type: t, Available: state["available"] == "true"}, nil
}

// UpdateParking writes the spot state. Occupying a spot that is not free
// fails with parking.ErrSpotTaken; the check and the write share one lock.
func (r *Redis) UpdateParking(ctx context.Context, spot *parking.ParkingSpot) error {
	lock, err := r.locker.Obtain(ctx, "LOCK"+spotKey(spot.ID), r.lockTTL, r.lockOpts)
	if err != nil {
		return fmt.Errorf("failed to obtain lock: %w", err)
	}
	defer lock.Release(ctx)

	if !spot.Available {
		available, err := r.rdb.HGet(ctx, spotKey(spot.ID), "available").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to fetch spot %d from Redis: %w", spot.ID, err)
		}
		if available != "true" {
			return fmt.Errorf("%w: spot %d", parking.ErrSpotTaken, spot.ID)
		}
	}
	return r.writeSpot(ctx, spot)
}

func (r *Redis) writeSpot(ctx context.Context, spot *parking.ParkingSpot) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, spotKey(spot.ID), map[string]any{
			"type":      string(spot.Type),
			"available": strconv.FormatBool(spot.Available),
		})
		if spot.Available {
			pipe.ZAdd(ctx, freeSpotsKey(spot.Type), redis.Z{Score: float64(spot.ID), Member: spot.ID})
		} else {
			pipe.ZRem(ctx, freeSpotsKey(spot.Type), spot.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save spot %d to Redis: %w", spot.ID, err)
	}
	return nil
}

func (r *Redis) GetTicket(ctx context.Context, reg string) (*parking.Ticket, error) {
	id, err := r.rdb.Get(ctx, openTicketKey(reg)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, parking.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open ticket of %s from Redis: %w", reg, err)
	}
	return r.getTicketByID(ctx, id)
}

func (r *Redis) getTicketByID(ctx context.Context, id string) (*parking.Ticket, error) {
	state, err := r.rdb.HGetAll(ctx, ticketKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticket %s from Redis: %w", id, err)
	}
	if len(state) == 0 {
		return nil, parking.ErrTicketNotFound
	}

	ticket := &parking.Ticket{ID: id, VehicleRegNumber: state["vehicle_reg_number"]}
	if ticket.InTime, err = parseTime(state["in_time"]); err != nil {
		return nil, fmt.Errorf("failed to parse ticket in time: %w", err)
	}
	if ticket.OutTime, err = parseTime(state["out_time"]); err != nil {
		return nil, fmt.Errorf("failed to parse ticket out time: %w", err)
	}
	if p := state["price"]; p != "" {
		if ticket.Price, err = strconv.ParseFloat(p, 64); err != nil {
			return nil, fmt.Errorf("failed to parse ticket price: %w", err)
		}
	}

	spotID, err := strconv.Atoi(state["spot_id"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticket spot id: %w", err)
	}
	if ticket.ParkingSpot, err = r.GetSpot(ctx, spotID); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *Redis) GetTicketCount(ctx context.Context, reg string) (int, error) {
	count, err := r.rdb.Get(ctx, ticketCountKey(reg)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch ticket count of %s from Redis: %w", reg, err)
	}
	return count, nil
}

func (r *Redis) SaveTicket(ctx context.Context, ticket *parking.Ticket) error {
	log.Debugf("saving ticket %s of %s", ticket.ID, ticket.VehicleRegNumber)
	openKey := openTicketKey(ticket.VehicleRegNumber)
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		open, err := tx.Exists(ctx, openKey).Result()
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: %s", parking.ErrVehicleAlreadyParked, ticket.VehicleRegNumber)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, ticketKey(ticket.ID), ticketState(ticket))
			pipe.Set(ctx, openKey, ticket.ID, 0)
			pipe.Incr(ctx, ticketCountKey(ticket.VehicleRegNumber))
			return nil
		})
		return err
	}, openKey)
	if errors.Is(err, parking.ErrVehicleAlreadyParked) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to save ticket to Redis: %w", err)
	}
	return nil
}

func (r *Redis) UpdateTicket(ctx context.Context, ticket *parking.Ticket) error {
	exists, err := r.rdb.Exists(ctx, ticketKey(ticket.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check ticket %s: %w", ticket.ID, err)
	}
	if exists == 0 {
		return parking.ErrTicketNotFound
	}

	log.Debugf("updating ticket %s of %s", ticket.ID, ticket.VehicleRegNumber)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, ticketKey(ticket.ID), ticketState(ticket))
		if !ticket.IsOpen() {
			pipe.Del(ctx, openTicketKey(ticket.VehicleRegNumber))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update ticket in Redis: %w", err)
	}
	return nil
}

func ticketState(t *parking.Ticket) map[string]any {
	state := map[string]any{
		"vehicle_reg_number": t.VehicleRegNumber,
		"in_time":            formatTime(t.InTime),
		"out_time":           formatTime(t.OutTime),
		"price":              "",
	}
	if t.ParkingSpot != nil {
		state["spot_id"] = t.ParkingSpot.ID
		state["spot_type"] = string(t.ParkingSpot.Type)
	}
	if !t.IsOpen() {
		state["price"] = strconv.FormatFloat(t.Price, 'f', -1, 64)
	}
	return state
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
