package model

// Route connects two towns. Routes are immutable reference data created
// by NTC users; buses reference them and trips must depart from one of
// the two towns.
type Route struct {
	ID      uint64 `json:"id"`
	TownOne string `json:"town_one"`
	TownTwo string `json:"town_two"`
}

// HasTown reports whether town matches either end of the route.
func (r Route) HasTown(town string) bool {
	return town == r.TownOne || town == r.TownTwo
}
