package assemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/schoolbus-fleet-core/match"
	"github.com/jwmdev/schoolbus-fleet-core/model"
)

func intPtr(v int) *int { return &v }

func chainJob(id string, typ model.RouteType, anchor, duration, capacity int) *model.RouteJob {
	r := &model.Route{
		ID:       id,
		Type:     typ,
		Capacity: capacity,
		Stops: []model.Stop{
			{MinutesFromStart: 0},
			{MinutesFromStart: duration},
		},
	}
	if typ == model.Entry {
		r.ArrivalTime = intPtr(anchor)
	} else {
		r.DepartureTime = intPtr(anchor)
	}
	return model.NewRouteJob(r, model.BlockEntryMorning, anchor)
}

// S1 — two chained entry jobs on one vehicle: build a single chain pair and
// confirm the assembled schedule has two non-overlapping items in order.
func TestAssembleBuildsSingleVehicleFromOneChain(t *testing.T) {
	j1 := chainJob("R1", model.Entry, 8*60, 20, 40)
	j2 := chainJob("R2", model.Entry, 9*60, 15, 40)
	chain := model.NewChain(model.BlockEntryMorning, j1)
	chain.Jobs = append(chain.Jobs, j2)

	pairs := []match.Pair{{First: chain}}
	schedules, err := Assemble(context.Background(), pairs, nil, model.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Len(t, schedules[0].Items, 2)
	assert.False(t, schedules[0].Overlaps())
	assert.Equal(t, "B-001", schedules[0].VehicleID)
}

// S3 — a matched pair (entry chain followed by exit chain on the same
// vehicle) renders as one schedule with both jobs present.
func TestAssembleBuildsOneVehicleFromMatchedPair(t *testing.T) {
	entry := model.NewChain(model.BlockEntryMorning, chainJob("R1", model.Entry, 8*60, 20, 40))
	exit := model.NewChain(model.BlockExitMidday, chainJob("R2", model.Exit, 13*60, 15, 40))

	pairs := []match.Pair{{First: entry, Second: exit}}
	schedules, err := Assemble(context.Background(), pairs, nil, model.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Len(t, schedules[0].Items, 2)
	assert.Equal(t, "R1", schedules[0].Items[0].RouteID)
	assert.Equal(t, "R2", schedules[0].Items[1].RouteID)
}

func TestAssembleSortsVehiclesByDescendingItemCount(t *testing.T) {
	small := model.NewChain(model.BlockEntryMorning, chainJob("R1", model.Entry, 8*60, 10, 40))
	big1 := chainJob("R2", model.Entry, 8*60, 10, 40)
	big2 := chainJob("R3", model.Entry, 9*60, 10, 40)
	big := model.NewChain(model.BlockEntryMorning, big1)
	big.Jobs = append(big.Jobs, big2)

	pairs := []match.Pair{{First: small}, {First: big}}
	schedules, err := Assemble(context.Background(), pairs, nil, model.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Len(t, schedules[0].Items, 2)
	assert.Len(t, schedules[1].Items, 1)
}

func TestAssembleEmptyPairsReturnsNoSchedules(t *testing.T) {
	schedules, err := Assemble(context.Background(), nil, nil, model.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, schedules)
}

// A pair admitted by the feasibility builder only because the predecessor
// may shift earlier must still come out of assembly with an intact buffer:
// realizeShifts has to draw on both jobs' shift budgets, not just the
// successor's.
func TestAssembleRealizesPredecessorEarlierShiftForTightPair(t *testing.T) {
	opt := model.DefaultOptions()
	opt.MinBufferMinutes = 8
	opt.MaxTimeShiftEntryMinutes = 5

	j1 := chainJob("R1", model.Entry, 8*60, 3, 40)
	j2 := chainJob("R2", model.Entry, 8*60+5, 3, 40)
	chain := model.NewChain(model.BlockEntryMorning, j1)
	chain.Jobs = append(chain.Jobs, j2)

	pairs := []match.Pair{{First: chain}}
	schedules, err := Assemble(context.Background(), pairs, nil, opt)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Len(t, schedules[0].Items, 2)
	assert.False(t, schedules[0].Overlaps())

	gap := schedules[0].Items[1].StartTime - schedules[0].Items[0].EndTime
	assert.GreaterOrEqual(t, gap, opt.MinBufferMinutes)
	assert.Less(t, schedules[0].Items[0].ShiftApplied, 0, "predecessor must shift earlier to clear the buffer")
}
