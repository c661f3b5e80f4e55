package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

func intPtr(v int) *int { return &v }

func chainOf(id string, schoolID string, capacity, anchor, duration int, typ model.RouteType) *model.Chain {
	r := &model.Route{
		ID:         id,
		Type:       typ,
		SchoolID:   schoolID,
		ContractID: "C1",
		Capacity:   capacity,
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
	job := model.NewRouteJob(r, model.BlockEntryMorning, anchor)
	return model.NewChain(model.BlockEntryMorning, job)
}

func TestHungarianMinimizesTotalCostOnKnownMatrix(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	colMatch, total := hungarian(cost)
	require.Len(t, colMatch, 3)
	assert.Equal(t, 5.0, total) // row0->col1(1) + row1->col0(2) + row2->col2(2) = 5
}

func TestSolveAssignmentSkipsInfeasiblePairs(t *testing.T) {
	weight := [][]float64{
		{10, 0},
		{0, 10},
	}
	feasible := [][]bool{
		{true, false},
		{false, true},
	}
	assignment := solveAssignment(weight, feasible, 2, 2)
	assert.Equal(t, []int{0, 1}, assignment)
}

func TestSolveAssignmentLeavesRowUnmatchedWhenNoFeasiblePair(t *testing.T) {
	weight := [][]float64{{0}}
	feasible := [][]bool{{false}}
	assignment := solveAssignment(weight, feasible, 1, 1)
	assert.Equal(t, []int{-1}, assignment)
}

func TestMatchPairsSameSchoolChainsAcrossBlocks(t *testing.T) {
	earlier := chainOf("R1", "S1", 40, 8*60, 20, model.Entry)
	later := chainOf("R2", "S1", 40, 13*60, 15, model.Exit)

	pairs := Match(context.Background(), []*model.Chain{earlier}, []*model.Chain{later}, nil, 45)
	require.Len(t, pairs, 1)
	assert.Equal(t, "R1", pairs[0].First.Key())
	require.NotNil(t, pairs[0].Second)
	assert.Equal(t, "R2", pairs[0].Second.Key())
}

func TestMatchLeavesChainUnmatchedWhenCapacityDiffExceedsCutoff(t *testing.T) {
	earlier := chainOf("R1", "S1", 10, 8*60, 20, model.Entry)
	later := chainOf("R2", "S1", 60, 13*60, 15, model.Exit)

	pairs := Match(context.Background(), []*model.Chain{earlier}, []*model.Chain{later}, nil, 45)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.False(t, p.First != nil && p.Second != nil)
	}
}

func TestMatchEmptyBothSidesReturnsNil(t *testing.T) {
	pairs := Match(context.Background(), nil, nil, nil, 45)
	assert.Nil(t, pairs)
}
