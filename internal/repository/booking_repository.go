package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/udaraamarasekara/busbook/internal/model"
)

// BookingRepo manages persistence for bookings and booking groups. A
// booking group ties together the rows created by one booking request
// and carries the optional idempotency key for replay detection. The
// UNIQUE (trip, seat) key on bookings is the load-bearing guarantee that
// at most one caller wins any given seat; the in-transaction
// availability read is only an optimization that produces friendlier
// errors.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB for multi-repository transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// BookedSeatsTx returns the seat numbers currently booked on the trip,
// locking the matching rows for the remainder of the transaction.
func (r *BookingRepo) BookedSeatsTx(ctx context.Context, tx *sql.Tx, tripID uint64) ([]uint32, error) {
	const q = `SELECT seat FROM bookings WHERE trip = ? FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []uint32
	for rows.Next() {
		var s uint32
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// CreateGroupTx records the booking group for one booking request. The
// idempotency key may be empty, in which case NULL is stored and the
// UNIQUE (user, idempotency_key) index does not apply.
func (r *BookingRepo) CreateGroupTx(ctx context.Context, tx *sql.Tx, ref string, userID, tripID uint64, idemKey string) error {
	const q = `INSERT INTO booking_groups (ref, user, trip, idempotency_key) VALUES (?, ?, ?, ?)`
	key := sql.NullString{String: idemKey, Valid: idemKey != ""}
	if _, err := tx.ExecContext(ctx, q, ref, userID, tripID, key); err != nil {
		if isDuplicateKey(err) {
			return ErrIdempotencyKeyReplayed
		}
		return err
	}
	return nil
}

// FindGroupRef returns the group ref previously recorded for the
// (user, idempotency key) pair, or sql.ErrNoRows when the key has not
// been seen.
func (r *BookingRepo) FindGroupRef(ctx context.Context, userID uint64, idemKey string) (string, error) {
	const q = `SELECT ref FROM booking_groups WHERE user = ? AND idempotency_key = ?`
	var ref string
	if err := r.db.QueryRowContext(ctx, q, userID, idemKey).Scan(&ref); err != nil {
		return "", err
	}
	return ref, nil
}

// CreateBatchTx inserts one booking row per seat in a single statement
// and reads the created rows back by group ref. A duplicate-key
// rejection from UNIQUE (trip, seat) means a concurrent caller won one
// of the seats after our pre-check; it is surfaced as ErrSeatTaken and
// the caller rolls the whole batch back (all-or-nothing).
func (r *BookingRepo) CreateBatchTx(ctx context.Context, tx *sql.Tx, groupRef string, tripID, userID uint64, seats []uint32) ([]model.Booking, error) {
	if len(seats) == 0 {
		return []model.Booking{}, nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO bookings (trip, seat, user, group_ref) VALUES `)
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, tripID, s, userID, groupRef)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSeatTaken
		}
		return nil, err
	}
	const sel = `SELECT id, trip, seat, user, group_ref, created_at FROM bookings WHERE group_ref = ? ORDER BY seat ASC`
	rows, err := tx.QueryContext(ctx, sel, groupRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListByGroup returns the bookings created under a group ref, ordered by
// seat. Used to answer idempotent replays.
func (r *BookingRepo) ListByGroup(ctx context.Context, groupRef string) ([]model.Booking, error) {
	const q = `SELECT id, trip, seat, user, group_ref, created_at FROM bookings WHERE group_ref = ? ORDER BY seat ASC`
	rows, err := r.db.QueryContext(ctx, q, groupRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListByTrip returns the active bookings of a trip ordered by seat.
// Occupancy is derived entirely from these rows; there is no separate
// seat entity.
func (r *BookingRepo) ListByTrip(ctx context.Context, tripID uint64) ([]model.Booking, error) {
	const q = `SELECT id, trip, seat, user, group_ref, created_at FROM bookings WHERE trip = ? ORDER BY seat ASC`
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListByTripForOwner returns the bookings of a trip when accessed by the
// owner of the trip's bus. It returns ErrTripNotFound when the trip does
// not exist and ErrForbidden when the bus belongs to another owner.
func (r *BookingRepo) ListByTripForOwner(ctx context.Context, tripID, ownerID uint64) ([]model.Booking, error) {
	const checkQ = `SELECT b.owner
                    FROM trips t
                    JOIN busses b ON b.id = t.bus
                    WHERE t.id = ?`
	var actualOwner uint64
	if err := r.db.QueryRowContext(ctx, checkQ, tripID).Scan(&actualOwner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, ErrForbidden
	}
	return r.ListByTrip(ctx, tripID)
}

// CancelByIDAndUser deletes a booking after enforcing ownership. It
// returns the deleted booking so the caller can publish a cancellation
// event. ErrBookingNotFound is returned for a missing id and
// ErrForbidden when the booking belongs to another user. Deletion is the
// sole mechanism by which a seat becomes bookable again.
func (r *BookingRepo) CancelByIDAndUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `SELECT id, trip, seat, user, group_ref, created_at FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	err = tx.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Trip, &b.Seat, &b.User, &b.GroupRef, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.User != userID {
		return nil, ErrForbidden
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	result := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.Trip, &b.Seat, &b.User, &b.GroupRef, &b.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
