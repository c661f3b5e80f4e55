// Package feasibility implements the Feasibility Builder (spec §4.C): for
// one block's jobs and travel matrix, it computes every ordered pair that
// may legally appear adjacent on a vehicle's chain, along with a [0,1]
// pair-quality score used by the Chain Optimizer's objective.
package feasibility

import (
	"github.com/jwmdev/schoolbus-fleet-core/data"
	"github.com/jwmdev/schoolbus-fleet-core/model"
)

// ShiftBounds describes how far a job's anchor time may move, in minutes,
// to enable chaining. Earlier shifts are negative, later shifts positive.
type ShiftBounds struct {
	Lower int // most negative allowed shift (<= 0)
	Upper int // most positive allowed shift (>= 0)
}

// BoundsFor returns the allowed shift window for a block's route type, per
// spec §4.C / §6's OptimizationOptions.
func BoundsFor(t model.RouteType, opt model.OptimizationOptions) ShiftBounds {
	switch t {
	case model.Entry:
		return ShiftBounds{Lower: -opt.MaxTimeShiftEntryMinutes, Upper: opt.MaxTimeShiftEntryMinutes}
	case model.Exit:
		return ShiftBounds{Lower: -opt.MaxTimeShiftExitEarlyMinutes, Upper: opt.MaxTimeShiftExitLateMinutes}
	default:
		return ShiftBounds{}
	}
}

// Build computes the FeasibilityPredicate for one block's jobs.
func Build(jobs []*model.RouteJob, matrix *model.TravelMatrix, opt model.OptimizationOptions) *model.FeasibilityPredicate {
	pred := model.NewFeasibilityPredicate()
	if len(jobs) == 0 {
		return pred
	}
	bounds := BoundsFor(jobs[0].Route.Type, opt)
	buffer := opt.MinBufferMinutes
	if buffer == 0 {
		buffer = data.MinBufferMinutes
	}

	for _, i := range jobs {
		for _, j := range jobs {
			if i.ID() == j.ID() {
				continue
			}
			if !capacityCompatible(i, j, opt.CapacityMaxDiff) {
				continue
			}
			travel, ok := matrix.Get(i.ID(), j.ID())
			if !ok {
				continue
			}
			needed := travel + j.DurationMinutes() + buffer
			available := j.ScheduledStartMin - i.ScheduledEndMin
			shiftAllowance := bounds.Upper - bounds.Lower
			if available+shiftAllowance < needed {
				continue
			}
			slack := available - needed // may be negative; shift bridges the gap
			score := scoreOf(i, j, slack)
			pred.Allow(i.ID(), j.ID(), score)
		}
	}
	return pred
}

func capacityCompatible(i, j *model.RouteJob, maxDiff int) bool {
	diff := i.Capacity() - j.Capacity()
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxDiff
}

// scoreOf computes the §4.D pair-quality score in [0,1]: +0.4 same school,
// +0.2 same contract, +0.2 capacity diff <= 5, +0.2 * max(0, 1 - slack/30).
func scoreOf(i, j *model.RouteJob, slack int) float64 {
	var score float64
	if i.Route.SchoolID == j.Route.SchoolID {
		score += 0.4
	}
	if i.Route.ContractID == j.Route.ContractID {
		score += 0.2
	}
	diff := i.Capacity() - j.Capacity()
	if diff < 0 {
		diff = -diff
	}
	if diff <= 5 {
		score += 0.2
	}
	bonus := 1 - float64(slack)/30
	if bonus < 0 {
		bonus = 0
	}
	if bonus > 1 {
		bonus = 1
	}
	score += 0.2 * bonus
	return score
}
