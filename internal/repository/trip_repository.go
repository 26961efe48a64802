package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/udaraamarasekara/busbook/internal/model"
)

// TripRepo manages persistence for trips. Scheduling operations run
// inside caller-owned transactions (the Tx variants) so that the overlap
// check and the insert/update see the same snapshot while the bus row
// lock is held. All timestamps are stored as UTC DATETIME.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo constructs a TripRepo with the given DB handle.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying sql.DB. It allows handlers to begin
// transactions spanning multiple repositories.
func (r *TripRepo) DB() *sql.DB { return r.db }

// GetByID returns the trip with the given id, or ErrTripNotFound.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	const q = `SELECT id, bus, start_at, end_at, start_from FROM trips WHERE id = ?`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Bus, &t.StartAt, &t.EndAt, &t.StartFrom)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByBus returns all trips of a bus ordered by start time ascending.
// Ownership of the bus is verified by the caller beforehand.
func (r *TripRepo) ListByBus(ctx context.Context, busID uint64) ([]model.Trip, error) {
	const q = `SELECT id, bus, start_at, end_at, start_from FROM trips WHERE bus = ? ORDER BY start_at ASC`
	rows, err := r.db.QueryContext(ctx, q, busID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows)
}

// FindOverlappingTx returns the trips of the bus whose windows intersect
// [start, end). The predicate is the symmetric interval test: an
// existing trip conflicts when it starts before the candidate ends AND
// ends after the candidate starts. Windows are half-open, so a trip
// ending exactly when the candidate starts does not conflict. Must be
// called with the bus row locked (BusRepo.LockTx) in the same
// transaction.
func (r *TripRepo) FindOverlappingTx(ctx context.Context, tx *sql.Tx, busID uint64, start, end time.Time) ([]model.Trip, error) {
	const q = `SELECT id, bus, start_at, end_at, start_from
               FROM trips
               WHERE bus = ? AND start_at < ? AND end_at > ?`
	rows, err := tx.QueryContext(ctx, q, busID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows)
}

// FindOverlappingExcludingTx is FindOverlappingTx minus the trip with
// the given id. Updates use it so a trip never conflicts with its own
// current window.
func (r *TripRepo) FindOverlappingExcludingTx(ctx context.Context, tx *sql.Tx, busID, excludeID uint64, start, end time.Time) ([]model.Trip, error) {
	const q = `SELECT id, bus, start_at, end_at, start_from
               FROM trips
               WHERE bus = ? AND id <> ? AND start_at < ? AND end_at > ?`
	rows, err := tx.QueryContext(ctx, q, busID, excludeID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows)
}

// CreateTx inserts a new trip within the caller's transaction and
// populates the generated ID. The caller must commit or roll back.
func (r *TripRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Trip) error {
	const q = `INSERT INTO trips (bus, start_at, end_at, start_from) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.Bus, t.StartAt, t.EndAt, t.StartFrom)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// UpdateTx rewrites a trip's window and origin within the caller's
// transaction.
func (r *TripRepo) UpdateTx(ctx context.Context, tx *sql.Tx, t *model.Trip) error {
	const q = `UPDATE trips SET start_at = ?, end_at = ?, start_from = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, t.StartAt, t.EndAt, t.StartFrom, t.ID)
	return err
}

// SeatCountForBookingTx resolves a trip to its bus's seat capacity and
// locks the trip row for the remainder of the transaction. Holding the
// lock serializes concurrent bookings on the same trip so the
// availability pre-check is not racing itself; the UNIQUE (trip, seat)
// key remains the final guard. Returns ErrTripNotFound for a missing
// trip.
func (r *TripRepo) SeatCountForBookingTx(ctx context.Context, tx *sql.Tx, tripID uint64) (uint32, error) {
	const q = `SELECT b.seat_count
               FROM trips t
               JOIN busses b ON b.id = t.bus
               WHERE t.id = ? FOR UPDATE`
	var seatCount uint32
	if err := tx.QueryRowContext(ctx, q, tripID).Scan(&seatCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTripNotFound
		}
		return 0, err
	}
	return seatCount, nil
}

// SearchDepartures lists future trips departing from the given town on
// the given route, joined with the bus plate number. Trips that have
// already departed are excluded.
func (r *TripRepo) SearchDepartures(ctx context.Context, routeID uint64, from string, after time.Time) ([]model.TripDeparture, error) {
	const q = `SELECT t.id, b.busno, t.start_at, t.end_at
               FROM trips t
               JOIN busses b ON b.id = t.bus
               WHERE t.start_from = ? AND t.start_at > ? AND b.route = ?
               ORDER BY t.start_at ASC`
	rows, err := r.db.QueryContext(ctx, q, from, after, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.TripDeparture, 0)
	for rows.Next() {
		var d model.TripDeparture
		if err := rows.Scan(&d.ID, &d.BusNo, &d.StartAt, &d.EndAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func collectTrips(rows *sql.Rows) ([]model.Trip, error) {
	result := make([]model.Trip, 0)
	for rows.Next() {
		var t model.Trip
		if err := rows.Scan(&t.ID, &t.Bus, &t.StartAt, &t.EndAt, &t.StartFrom); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
