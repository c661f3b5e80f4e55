package assemble

import (
	"context"

	"github.com/jwmdev/schoolbus-fleet-core/model"
	"github.com/jwmdev/schoolbus-fleet-core/routerclient"
)

// Compact runs up to maxPasses local-search passes (spec §4.F) over the
// assembled schedules: relocate, then swap, then 2-opt, in that order
// within each pass, stopping early once a pass makes no accepted move.
// Every move is checked against travel-time + buffer feasibility before
// acceptance; none of them may violate the no-overlap invariant.
func Compact(ctx context.Context, schedules []*model.BusSchedule, jobsByID map[string]*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions, maxPasses int) []*model.BusSchedule {
	for pass := 0; pass < maxPasses; pass++ {
		if ctx.Err() != nil {
			break
		}
		changed := false
		if tryRelocate(schedules, jobsByID, router, opt) {
			changed = true
		}
		if ctx.Err() != nil {
			break
		}
		if trySwap(schedules, jobsByID, router, opt) {
			changed = true
		}
		if ctx.Err() != nil {
			break
		}
		if try2opt(schedules, jobsByID, router, opt) {
			changed = true
		}
		if !changed {
			break
		}
	}
	return dropEmpty(schedules)
}

func dropEmpty(schedules []*model.BusSchedule) []*model.BusSchedule {
	out := schedules[:0]
	for _, s := range schedules {
		if len(s.Items) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func totalDeadhead(schedules []*model.BusSchedule) int {
	total := 0
	for _, s := range schedules {
		for _, item := range s.Items {
			total += item.DeadheadMinutes
		}
	}
	return total
}

// tryRelocate moves one item at a time from its vehicle to the position
// (in another vehicle) that minimizes resulting deadhead, accepting the
// single best strictly-improving move found across the whole fleet per
// pass (so moves from different passes don't interact non-deterministically).
func tryRelocate(schedules []*model.BusSchedule, jobsByID map[string]*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions) bool {
	bestGain := 0
	var bestFrom, bestFromIdx, bestTo, bestToPos int
	found := false
	baseVehicleCount := countNonEmpty(schedules)
	baseDeadhead := totalDeadhead(schedules)

	for a := range schedules {
		for ai := range schedules[a].Items {
			item := schedules[a].Items[ai]
			for b := range schedules {
				if a == b {
					continue
				}
				for pos := 0; pos <= len(schedules[b].Items); pos++ {
					ok, insertedDeadhead := canInsert(schedules[b], pos, item, jobsByID, router, opt)
					if !ok {
						continue
					}
					trial := cloneSchedules(schedules)
					removeItem(trial[a], ai)
					insertItemAt(trial[b], pos, item, insertedDeadhead, jobsByID, router, opt)
					newCount := countNonEmpty(trial)
					newDeadhead := totalDeadhead(trial)
					if newCount < baseVehicleCount || (newCount == baseVehicleCount && newDeadhead < baseDeadhead) {
						gain := (baseVehicleCount-newCount)*1_000_000 + (baseDeadhead - newDeadhead)
						if gain > bestGain || !found {
							bestGain = gain
							bestFrom, bestFromIdx, bestTo, bestToPos = a, ai, b, pos
							found = true
						}
					}
				}
			}
		}
	}

	if !found {
		return false
	}
	item := schedules[bestFrom].Items[bestFromIdx]
	removeItem(schedules[bestFrom], bestFromIdx)
	ok, deadhead := canInsert(schedules[bestTo], bestToPos, item, jobsByID, router, opt)
	if !ok {
		return false
	}
	insertItemAt(schedules[bestTo], bestToPos, item, deadhead, jobsByID, router, opt)
	return true
}

// trySwap exchanges one item between two vehicles if doing so strictly
// improves the fleet (fewer vehicles, or equal count with less deadhead).
func trySwap(schedules []*model.BusSchedule, jobsByID map[string]*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions) bool {
	baseCount := countNonEmpty(schedules)
	baseDeadhead := totalDeadhead(schedules)

	for a := range schedules {
		for ai := range schedules[a].Items {
			for b := a + 1; b < len(schedules); b++ {
				for bi := range schedules[b].Items {
					trial := cloneSchedules(schedules)
					itemA := trial[a].Items[ai]
					itemB := trial[b].Items[bi]
					trial[a].Items[ai] = itemB
					trial[b].Items[bi] = itemA
					if !rebuildSchedule(trial[a], jobsByID, router, opt) || !rebuildSchedule(trial[b], jobsByID, router, opt) {
						continue
					}
					newCount := countNonEmpty(trial)
					newDeadhead := totalDeadhead(trial)
					if newCount < baseCount || (newCount == baseCount && newDeadhead < baseDeadhead) {
						schedules[a].Items[ai], schedules[b].Items[bi] = itemB, itemA
						rebuildSchedule(schedules[a], jobsByID, router, opt)
						rebuildSchedule(schedules[b], jobsByID, router, opt)
						return true
					}
				}
			}
		}
	}
	return false
}

// try2opt reverses a contiguous run of items within one vehicle if the
// reversal is feasible (every inter-item buffer still holds) and reduces
// that vehicle's deadhead.
func try2opt(schedules []*model.BusSchedule, jobsByID map[string]*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions) bool {
	for _, s := range schedules {
		n := len(s.Items)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				trial := cloneSchedule(s)
				reverse(trial.Items, i, j)
				if !rebuildSchedule(trial, jobsByID, router, opt) {
					continue
				}
				if trial.Overlaps() {
					continue
				}
				if totalDeadhead([]*model.BusSchedule{trial}) < totalDeadhead([]*model.BusSchedule{s}) {
					reverse(s.Items, i, j)
					rebuildSchedule(s, jobsByID, router, opt)
					return true
				}
			}
		}
	}
	return false
}

func reverse(items []model.ScheduleItem, i, j int) {
	for i < j {
		items[i], items[j] = items[j], items[i]
		i++
		j--
	}
}

func countNonEmpty(schedules []*model.BusSchedule) int {
	count := 0
	for _, s := range schedules {
		if len(s.Items) > 0 {
			count++
		}
	}
	return count
}

func cloneSchedule(s *model.BusSchedule) *model.BusSchedule {
	items := make([]model.ScheduleItem, len(s.Items))
	copy(items, s.Items)
	return &model.BusSchedule{VehicleID: s.VehicleID, Items: items, Capacity: s.Capacity}
}

func cloneSchedules(schedules []*model.BusSchedule) []*model.BusSchedule {
	out := make([]*model.BusSchedule, len(schedules))
	for i, s := range schedules {
		out[i] = cloneSchedule(s)
	}
	return out
}

func removeItem(s *model.BusSchedule, idx int) {
	s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
	rebuildSchedule(s, nil, nil, model.OptimizationOptions{})
}

func insertItemAt(s *model.BusSchedule, pos int, item model.ScheduleItem, deadhead int, jobsByID map[string]*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions) {
	item.DeadheadMinutes = deadhead
	s.Items = append(s.Items, model.ScheduleItem{})
	copy(s.Items[pos+1:], s.Items[pos:])
	s.Items[pos] = item
	rebuildSchedule(s, jobsByID, router, opt)
}

// canInsert reports whether item may be inserted at pos within s, and the
// deadhead minutes that would result from the preceding item (0 if pos is
// first).
func canInsert(s *model.BusSchedule, pos int, item model.ScheduleItem, jobsByID map[string]*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions) (bool, int) {
	if pos > 0 {
		prev := s.Items[pos-1]
		if item.StartTime < prev.EndTime {
			return false, 0
		}
		travel := travelBetween(prev.RouteID, item.RouteID, jobsByID, router, opt.FallbackSpeedKMH)
		if item.StartTime-prev.EndTime < travel+opt.MinBufferMinutes {
			return false, 0
		}
	}
	if pos < len(s.Items) {
		next := s.Items[pos]
		if next.StartTime < item.EndTime {
			return false, 0
		}
		travel := travelBetween(item.RouteID, next.RouteID, jobsByID, router, opt.FallbackSpeedKMH)
		if next.StartTime-item.EndTime < travel+opt.MinBufferMinutes {
			return false, 0
		}
	}
	deadhead := 0
	if pos > 0 {
		deadhead = item.StartTime - s.Items[pos-1].EndTime
	}
	return true, deadhead
}

// rebuildSchedule recomputes DeadheadMinutes for every item after an edit
// and re-sorts by start time; returns false if any adjacent pair no longer
// respects the minimum travel+buffer requirement (the move is infeasible).
func rebuildSchedule(s *model.BusSchedule, jobsByID map[string]*model.RouteJob, router *routerclient.Client, opt model.OptimizationOptions) bool {
	s.SortItems()
	feasible := true
	for i := range s.Items {
		if i == 0 {
			s.Items[i].DeadheadMinutes = 0
			continue
		}
		prev := s.Items[i-1]
		s.Items[i].DeadheadMinutes = s.Items[i].StartTime - prev.EndTime
		if jobsByID != nil {
			travel := travelBetween(prev.RouteID, s.Items[i].RouteID, jobsByID, router, opt.FallbackSpeedKMH)
			if s.Items[i].DeadheadMinutes < travel+opt.MinBufferMinutes {
				feasible = false
			}
		}
	}
	return feasible
}

func travelBetween(fromID, toID string, jobsByID map[string]*model.RouteJob, router *routerclient.Client, fallbackSpeedKMH float64) int {
	from, ok1 := jobsByID[fromID]
	to, ok2 := jobsByID[toID]
	if !ok1 || !ok2 {
		return 0
	}
	if router != nil {
		if minutes, ok := router.TravelTime(context.Background(), from.EndLocation, to.StartLocation); ok {
			return minutes
		}
	}
	return routerclient.GreatCircleFallbackMinutes(from.EndLocation, to.StartLocation, fallbackSpeedKMH)
}
