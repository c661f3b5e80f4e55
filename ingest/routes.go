// Package ingest loads Route records from the JSON wire shape the ingest
// collaborator (spreadsheet importer, per spec §1) hands to this core. Only
// the on-disk/pipe JSON shape lives here; turning spreadsheets into this
// shape is explicitly out of scope for the core.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

type rawStop struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Order            int     `json:"order"`
	MinutesFromStart int     `json:"minutes_from_start"`
	Passengers       int     `json:"passengers"`
	School           bool    `json:"school"`
}

type rawRoute struct {
	ID            string          `json:"id"`
	Type          model.RouteType `json:"type"`
	SchoolID      string          `json:"school_id"`
	SchoolName    string          `json:"school_name"`
	ContractID    string          `json:"contract_id"`
	Capacity      int             `json:"capacity"`
	ServiceDays   []model.Weekday `json:"service_days"`
	Stops         []rawStop       `json:"stops"`
	ArrivalTime   *int            `json:"arrival_time_min"`
	DepartureTime *int            `json:"departure_time_min"`
}

// LoadRoutesFromReader decodes a JSON array of routes into the core's Route
// model. It validates just enough to keep downstream components from
// panicking on malformed input (non-empty ID, non-empty stop list); a route
// missing both anchor times is accepted here and surfaced later by the Block
// Partitioner as MISSING_ANCHOR, per spec §4.B.
func LoadRoutesFromReader(r io.Reader) ([]*model.Route, error) {
	dec := json.NewDecoder(r)
	var raw []rawRoute
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ingest: decode routes: %w", err)
	}

	routes := make([]*model.Route, 0, len(raw))
	for i, rr := range raw {
		if rr.ID == "" {
			return nil, fmt.Errorf("ingest: route at index %d missing id", i)
		}
		if len(rr.Stops) == 0 {
			return nil, fmt.Errorf("ingest: route %s has no stops", rr.ID)
		}
		stops := make([]model.Stop, len(rr.Stops))
		for j, s := range rr.Stops {
			stops[j] = model.Stop{
				Latitude:         s.Latitude,
				Longitude:        s.Longitude,
				Order:            s.Order,
				MinutesFromStart: s.MinutesFromStart,
				Passengers:       s.Passengers,
				School:           s.School,
			}
		}
		routes = append(routes, &model.Route{
			ID:            rr.ID,
			Type:          rr.Type,
			SchoolID:      rr.SchoolID,
			SchoolName:    rr.SchoolName,
			ContractID:    rr.ContractID,
			Capacity:      rr.Capacity,
			ServiceDays:   rr.ServiceDays,
			Stops:         stops,
			ArrivalTime:   rr.ArrivalTime,
			DepartureTime: rr.DepartureTime,
		})
	}
	return routes, nil
}
