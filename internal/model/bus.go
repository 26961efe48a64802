package model

// Bus represents a row in the `busses` table. Owner is fixed at creation
// and is the only user allowed to schedule trips for the bus. SeatCount
// is the seat capacity and bounds the seat numbers accepted for bookings
// on the bus's trips.
//
// Fields:
//  ID        – primary key identifier.
//  Owner     – user id of the registered bus owner.
//  Route     – route id the bus is licensed to serve.
//  BusNo     – registration plate number.
//  PermitNo  – NTC permit number.
//  SeatCount – positive seat capacity.
type Bus struct {
	ID        uint64 `json:"id"`
	Owner     uint64 `json:"owner"`
	Route     uint64 `json:"route"`
	BusNo     string `json:"busno"`
	PermitNo  string `json:"permit_no"`
	SeatCount uint32 `json:"seat_count"`
}
