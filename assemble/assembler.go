// Package assemble implements the Schedule Assembler (spec §4.F): it
// materializes vehicle schedules with absolute times and deadhead gaps from
// matched chain pairs, validates there is no overlap, and runs a bounded
// local-search compaction pass.
package assemble

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwmdev/schoolbus-fleet-core/feasibility"
	"github.com/jwmdev/schoolbus-fleet-core/match"
	"github.com/jwmdev/schoolbus-fleet-core/model"
	"github.com/jwmdev/schoolbus-fleet-core/routerclient"
)

// OverlapViolationError is returned when the post-assembly invariant check
// (spec §4.F) finds two items on one vehicle that overlap; per the error
// handling table this is a fatal upstream bug, never a recoverable case.
type OverlapViolationError struct {
	VehicleID string
}

func (e *OverlapViolationError) Error() string {
	return fmt.Sprintf("assemble: OVERLAP_VIOLATION on vehicle %s", e.VehicleID)
}

// Assemble builds one BusSchedule per matched pair (and per unmatched
// chain), applies shifts so every inter-item buffer holds, sorts vehicles
// by descending route count (ties by lexicographic chain key per spec
// §5's ordering guarantee), then runs local-search compaction.
func Assemble(ctx context.Context, pairs []match.Pair, router *routerclient.Client, opt model.OptimizationOptions) ([]*model.BusSchedule, error) {
	schedules := make([]*model.BusSchedule, 0, len(pairs))
	keys := make([]string, 0, len(pairs))
	jobsByID := make(map[string]*model.RouteJob)

	for i, pair := range pairs {
		vehicleID := fmt.Sprintf("B-%03d", i+1)
		sched, key, err := buildSchedule(vehicleID, pair, router, opt)
		if err != nil {
			return nil, err
		}
		if sched == nil {
			continue
		}
		schedules = append(schedules, sched)
		keys = append(keys, key)
		if pair.First != nil {
			for _, j := range pair.First.Jobs {
				jobsByID[j.ID()] = j
			}
		}
		if pair.Second != nil {
			for _, j := range pair.Second.Jobs {
				jobsByID[j.ID()] = j
			}
		}
	}

	for i, s := range schedules {
		if s.Overlaps() {
			return nil, &OverlapViolationError{VehicleID: s.VehicleID}
		}
		_ = keys[i]
	}

	sortSchedules(schedules, keys)
	renumberVehicles(schedules)

	passes := opt.LocalSearchMaxPasses
	if passes <= 0 {
		passes = 5
	}
	schedules = Compact(ctx, schedules, jobsByID, router, opt, passes)

	for _, s := range schedules {
		if s.Overlaps() {
			return nil, &OverlapViolationError{VehicleID: s.VehicleID}
		}
	}
	return schedules, nil
}

// buildSchedule renders one matched pair (or a lone unmatched chain) into a
// BusSchedule, realizing each job's start/end per §4.F.
func buildSchedule(vehicleID string, pair match.Pair, router *routerclient.Client, opt model.OptimizationOptions) (*model.BusSchedule, string, error) {
	var jobs []*model.RouteJob
	var key string
	if pair.First != nil {
		jobs = append(jobs, pair.First.Jobs...)
		key = pair.First.Key()
	}
	if pair.Second != nil {
		jobs = append(jobs, pair.Second.Jobs...)
		if key == "" {
			key = pair.Second.Key()
		}
	}
	if len(jobs) == 0 {
		return nil, "", nil
	}

	capacity := 0
	for _, j := range jobs {
		if j.Capacity() > capacity {
			capacity = j.Capacity()
		}
	}

	shifts, ok := realizeShifts(jobs, router, opt)
	if !ok {
		return nil, "", &OverlapViolationError{VehicleID: vehicleID}
	}

	items := make([]model.ScheduleItem, len(jobs))
	var prevEnd int
	for k, j := range jobs {
		start := j.ScheduledStartMin + shifts[k]
		end := start + j.DurationMinutes()

		deadhead := 0
		if k > 0 {
			deadhead = start - prevEnd
		}

		items[k] = model.ScheduleItem{
			RouteID:         j.ID(),
			StartTime:       start,
			EndTime:         end,
			ShiftApplied:    shifts[k],
			DeadheadMinutes: deadhead,
		}
		prevEnd = end
	}

	sched := &model.BusSchedule{VehicleID: vehicleID, Items: items, Capacity: capacity}
	sched.SortItems()
	return sched, key, nil
}

// realizeShifts computes each job's realized shift (signed minutes from
// its own anchor time) for a chain. The Feasibility Builder admits a pair
// (i,j) assuming the predecessor i may shift earlier by up to its own
// Lower bound *and* the successor j may shift later by up to its Upper
// bound (spec §4.C) — so realization must draw on both budgets, not the
// successor's alone, or a pair admitted only via the predecessor's earlier
// shift gets an undersized buffer here.
//
// This is a chain of difference constraints: shift[k] - shift[k-1] must be
// at least delta[k] for every adjacent pair. It is solved with a backward
// pass computing each job's reachable upper bound given every constraint
// downstream of it, then a forward pass picking, at each job, the smallest
// shift (closest to its own anchor) consistent with the predecessor's
// chosen shift and that upper bound. Returns ok=false if no assignment
// keeps every inter-job buffer intact, so the caller aborts the vehicle
// rather than silently emitting an undersized gap.
func realizeShifts(jobs []*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions) ([]int, bool) {
	n := len(jobs)
	bounds := make([]feasibility.ShiftBounds, n)
	for k, j := range jobs {
		bounds[k] = feasibility.BoundsFor(j.Route.Type, opt)
	}

	// delta[k] (k >= 1) is the minimum value of shift[k]-shift[k-1] needed
	// to keep the chain invariant between jobs k-1 and k: realized_end(k-1)
	// + travel + buffer <= realized_start(k).
	delta := make([]int, n)
	for k := 1; k < n; k++ {
		travel := travelMinutes(jobs[k], router, opt.FallbackSpeedKMH, jobs[k-1].EndLocation)
		available := jobs[k].ScheduledStartMin - jobs[k-1].ScheduledEndMin
		delta[k] = travel + opt.MinBufferMinutes - available
	}

	hi := make([]int, n)
	hi[n-1] = bounds[n-1].Upper
	for k := n - 2; k >= 0; k-- {
		hi[k] = bounds[k].Upper
		if v := hi[k+1] - delta[k+1]; v < hi[k] {
			hi[k] = v
		}
	}

	shift := make([]int, n)
	for k := 0; k < n; k++ {
		lower := bounds[k].Lower
		if k > 0 {
			if v := shift[k-1] + delta[k]; v > lower {
				lower = v
			}
		}
		if lower > hi[k] {
			return nil, false
		}
		v := lower
		if v < 0 {
			v = 0
		}
		if v > hi[k] {
			v = hi[k]
		}
		shift[k] = v
	}
	return shift, true
}

func travelMinutes(j *model.RouteJob, router *routerclient.Client, fallbackSpeedKMH float64, from model.Location) int {
	if router != nil {
		if minutes, ok := router.TravelTime(context.Background(), from, j.StartLocation); ok {
			return minutes
		}
	}
	return routerclient.GreatCircleFallbackMinutes(from, j.StartLocation, fallbackSpeedKMH)
}

func sortSchedules(schedules []*model.BusSchedule, keys []string) {
	type indexed struct {
		sched *model.BusSchedule
		key   string
	}
	paired := make([]indexed, len(schedules))
	for i := range schedules {
		paired[i] = indexed{schedules[i], keys[i]}
	}
	sort.SliceStable(paired, func(a, b int) bool {
		if len(paired[a].sched.Items) != len(paired[b].sched.Items) {
			return len(paired[a].sched.Items) > len(paired[b].sched.Items)
		}
		return paired[a].key < paired[b].key
	})
	for i := range schedules {
		schedules[i] = paired[i].sched
	}
}

func renumberVehicles(schedules []*model.BusSchedule) {
	for i, s := range schedules {
		s.VehicleID = fmt.Sprintf("B-%03d", i+1)
	}
}
