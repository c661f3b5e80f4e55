package model

// RouteType distinguishes a route anchored on its arrival time (ENTRY) from
// one anchored on its departure time (EXIT); either kind can run in the
// morning or the afternoon. The Block Partitioner classifies on it.
type RouteType string

const (
	Entry RouteType = "ENTRY"
	Exit  RouteType = "EXIT"
)

// Weekday enumerates the service days a Route may run on.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
)

// Route is a fixed passenger route: an ordered, non-empty sequence of
// Stops, a required capacity, a service-day set, and exactly one anchor
// time (arrival for ENTRY, departure for EXIT).
//
// Route is immutable after ingestion; the engine never mutates it.
type Route struct {
	ID            string    `json:"id"`
	Type          RouteType `json:"type"`
	SchoolID      string    `json:"school_id"`
	SchoolName    string    `json:"school_name"`
	ContractID    string    `json:"contract_id"`
	Capacity      int       `json:"capacity"`
	ServiceDays   []Weekday `json:"service_days"`
	Stops         []Stop    `json:"stops"`
	ArrivalTime   *int      `json:"arrival_time_min,omitempty"`   // minutes since midnight, ENTRY only
	DepartureTime *int      `json:"departure_time_min,omitempty"` // minutes since midnight, EXIT only
}

// DurationMinutes returns the route's geographic duration: the
// minutes-from-start of its last stop. Callers must ensure len(Stops) > 0.
func (r *Route) DurationMinutes() int {
	if len(r.Stops) == 0 {
		return 0
	}
	return r.Stops[len(r.Stops)-1].MinutesFromStart
}

// FirstStop and LastStop return the route's endpoints. Callers must ensure
// len(Stops) > 0.
func (r *Route) FirstStop() Stop { return r.Stops[0] }
func (r *Route) LastStop() Stop  { return r.Stops[len(r.Stops)-1] }

// AnchorMinutes returns the route's single fixed clock time (arrival for
// ENTRY, departure for EXIT) and whether one is set.
func (r *Route) AnchorMinutes() (int, bool) {
	switch r.Type {
	case Entry:
		if r.ArrivalTime == nil {
			return 0, false
		}
		return *r.ArrivalTime, true
	case Exit:
		if r.DepartureTime == nil {
			return 0, false
		}
		return *r.DepartureTime, true
	default:
		return 0, false
	}
}

// ActiveOn reports whether the route runs on the given day.
func (r *Route) ActiveOn(day Weekday) bool {
	for _, d := range r.ServiceDays {
		if d == day {
			return true
		}
	}
	return false
}
