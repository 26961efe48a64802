package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/udaraamarasekara/busbook/internal/model"
)

// RouteRepo manages persistence for routes. Routes are immutable once
// created, so only insert and read operations exist.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo constructs a RouteRepo with the given DB handle.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// Create inserts a new route and assigns the generated ID back to the
// struct.
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route) error {
	const q = `INSERT INTO routes (town_one, town_two) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, rt.TownOne, rt.TownTwo)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// GetByID returns the route with the given id, or ErrRouteNotFound.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (*model.Route, error) {
	const q = `SELECT id, town_one, town_two FROM routes WHERE id = ?`
	var rt model.Route
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rt.ID, &rt.TownOne, &rt.TownTwo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// List returns all routes ordered by id. When none exist it returns an
// empty slice and nil error.
func (r *RouteRepo) List(ctx context.Context) ([]model.Route, error) {
	const q = `SELECT id, town_one, town_two FROM routes ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Route, 0)
	for rows.Next() {
		var rt model.Route
		if err := rows.Scan(&rt.ID, &rt.TownOne, &rt.TownTwo); err != nil {
			return nil, err
		}
		result = append(result, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindByTowns returns the route connecting the two towns in either
// direction, or ErrRouteNotFound. The commuter trip search uses this to
// resolve a from/to pair before listing departures.
func (r *RouteRepo) FindByTowns(ctx context.Context, from, to string) (*model.Route, error) {
	const q = `SELECT id, town_one, town_two
               FROM routes
               WHERE (town_one = ? AND town_two = ?) OR (town_one = ? AND town_two = ?)`
	var rt model.Route
	err := r.db.QueryRowContext(ctx, q, from, to, to, from).Scan(&rt.ID, &rt.TownOne, &rt.TownTwo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return &rt, nil
}
