// Package block implements the Block Partitioner (spec §4.B): it classifies
// routes into one of four temporal blocks and, for each non-empty block,
// requests a travel-time matrix from the Router Client.
package block

import (
	"context"
	"sort"

	"github.com/jwmdev/schoolbus-fleet-core/data"
	"github.com/jwmdev/schoolbus-fleet-core/model"
	"github.com/jwmdev/schoolbus-fleet-core/routerclient"
)

// Result is the Block Partitioner's output: jobs grouped by block, a
// travel matrix per non-empty block, and any routes that could not be
// classified.
type Result struct {
	Jobs       map[model.Block][]*model.RouteJob
	Matrices   map[model.Block]*model.TravelMatrix
	Unassigned []model.UnassignedRoute
}

// Partition classifies every route active on day into its block and
// builds a per-block travel matrix via router. Routes without a valid
// anchor time are excluded and reported as unassignable; routes not active
// on day are silently excluded (spec §9's day-of-week resolution) and are
// not reported.
func Partition(ctx context.Context, routes []*model.Route, day model.Weekday, fallbackSpeedKMH float64, router *routerclient.Client) Result {
	res := Result{
		Jobs:     make(map[model.Block][]*model.RouteJob),
		Matrices: make(map[model.Block]*model.TravelMatrix),
	}

	for _, r := range routes {
		if !r.ActiveOn(day) {
			continue
		}
		anchor, ok := r.AnchorMinutes()
		if !ok {
			res.Unassigned = append(res.Unassigned, model.UnassignedRoute{RouteID: r.ID, Reason: model.ReasonMissingAnchor})
			continue
		}
		block, ok := classify(r.Type, anchor)
		if !ok {
			res.Unassigned = append(res.Unassigned, model.UnassignedRoute{RouteID: r.ID, Reason: model.ReasonMissingAnchor})
			continue
		}
		job := model.NewRouteJob(r, block, anchor)
		res.Jobs[block] = append(res.Jobs[block], job)
	}

	// Deterministic per-block ordering by route ID before matrix lookups
	// and downstream processing.
	for b := range res.Jobs {
		sort.Slice(res.Jobs[b], func(i, j int) bool { return res.Jobs[b][i].ID() < res.Jobs[b][j].ID() })
	}

	for b, jobs := range res.Jobs {
		if len(jobs) == 0 {
			continue
		}
		res.Matrices[b] = buildMatrix(ctx, jobs, fallbackSpeedKMH, router)
	}
	return res
}

func classify(t model.RouteType, anchorMin int) (model.Block, bool) {
	switch t {
	case model.Entry:
		if anchorMin <= data.MorningCutoffMin {
			return model.BlockEntryMorning, true
		}
		return model.BlockEntryAfter, true
	case model.Exit:
		if anchorMin <= data.AfternoonCutoffMin {
			return model.BlockExitMidday, true
		}
		return model.BlockExitEvening, true
	default:
		return 0, false
	}
}

// buildMatrix requests job.end_location -> job.start_location travel times
// for every pair in the block, falling back to great-circle for any cell
// the router could not resolve.
func buildMatrix(ctx context.Context, jobs []*model.RouteJob, fallbackSpeedKMH float64, router *routerclient.Client) *model.TravelMatrix {
	ids := make([]string, len(jobs))
	ends := make([]model.Location, len(jobs))
	starts := make([]model.Location, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID()
		ends[i] = j.EndLocation
		starts[i] = j.StartLocation
	}

	var matrix *model.TravelMatrix
	if router != nil {
		matrix = router.TravelMatrix(ctx, ids, ends, ids, starts)
	} else {
		matrix = model.NewTravelMatrix()
	}

	for _, i := range jobs {
		for _, j := range jobs {
			if i.ID() == j.ID() {
				continue
			}
			if _, ok := matrix.Get(i.ID(), j.ID()); ok {
				continue
			}
			minutes := routerclient.GreatCircleFallbackMinutes(i.EndLocation, j.StartLocation, fallbackSpeedKMH)
			matrix.Set(i.ID(), j.ID(), minutes)
		}
	}
	return matrix
}
