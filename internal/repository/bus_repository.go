package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/udaraamarasekara/busbook/internal/model"
)

// BusRepo manages persistence for buses. Buses are long-lived reference
// data created by NTC users; the owner column is fixed at creation and
// is the basis for all trip-scheduling authorization.
type BusRepo struct {
	db *sql.DB
}

// NewBusRepo constructs a BusRepo with the given DB handle.
func NewBusRepo(db *sql.DB) *BusRepo { return &BusRepo{db: db} }

// Create inserts a new bus and assigns the generated ID back to the
// struct. Referential checks (owner and route existence) are done by the
// caller before insert; the FKs are the backstop.
func (r *BusRepo) Create(ctx context.Context, b *model.Bus) error {
	const q = `INSERT INTO busses (owner, route, busno, permit_no, seat_count) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.Owner, b.Route, b.BusNo, b.PermitNo, b.SeatCount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns the bus with the given id, or ErrBusNotFound.
func (r *BusRepo) GetByID(ctx context.Context, id uint64) (*model.Bus, error) {
	const q = `SELECT id, owner, route, busno, permit_no, seat_count FROM busses WHERE id = ?`
	var b model.Bus
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Owner, &b.Route, &b.BusNo, &b.PermitNo, &b.SeatCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetByIDAndOwner loads a bus and enforces ownership. It returns
// ErrBusNotFound when the bus does not exist and ErrForbidden when it is
// registered to a different owner. Every trip mutation starts here.
func (r *BusRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Bus, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Owner != ownerID {
		return nil, ErrForbidden
	}
	return b, nil
}

// List returns all buses ordered by id.
func (r *BusRepo) List(ctx context.Context) ([]model.Bus, error) {
	const q = `SELECT id, owner, route, busno, permit_no, seat_count FROM busses ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Bus, 0)
	for rows.Next() {
		var b model.Bus
		if err := rows.Scan(&b.ID, &b.Owner, &b.Route, &b.BusNo, &b.PermitNo, &b.SeatCount); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LockTx takes a row lock on the bus inside the caller's transaction.
// Trip scheduling must hold this lock across its overlap check and
// insert so that two concurrent schedule requests for the same bus are
// serialized; without it both could pass the check against the same
// snapshot and commit conflicting trips.
func (r *BusRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `SELECT id FROM busses WHERE id = ? FOR UPDATE`
	var got uint64
	if err := tx.QueryRowContext(ctx, q, id).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBusNotFound
		}
		return err
	}
	return nil
}
