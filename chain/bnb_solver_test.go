package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

func TestBnBSolverFindsOptimalTwoJobChain(t *testing.T) {
	j1 := job("R1", 8*60, 20)
	j2 := job("R2", 9*60, 15)
	pred := model.NewFeasibilityPredicate()
	pred.Allow("R1", "R2", 0.7)

	s := newBnBSolver()
	s.SetTimeLimit(5)
	sol, err := s.Solve(context.Background(), Problem{Jobs: []*model.RouteJob{j1, j2}, Pred: pred})
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, "R2", sol.Successor["R1"])
	assert.True(t, sol.Starts["R1"])
}

func TestBnBSolverPicksHigherScoringChainWhenCardinalityTies(t *testing.T) {
	// Three jobs, two incompatible two-chain options with different total
	// score; both cover all three jobs in two chains (no single 3-chain
	// exists because R1 and R2 compete for R3 and neither may follow the
	// other), so BnB should prefer the higher-scoring pairing.
	j1 := job("R1", 8*60, 20)
	j2 := job("R2", 9*60, 15)
	j3 := job("R3", 10*60, 10)
	pred := model.NewFeasibilityPredicate()
	pred.Allow("R1", "R3", 0.2)
	pred.Allow("R2", "R3", 0.9)

	s := newBnBSolver()
	s.SetTimeLimit(5)
	sol, err := s.Solve(context.Background(), Problem{Jobs: []*model.RouteJob{j1, j2, j3}, Pred: pred})
	require.NoError(t, err)
	assert.Equal(t, "R3", sol.Successor["R2"])
}

func TestBnBSolverRespectsCancelledContext(t *testing.T) {
	j1 := job("R1", 8*60, 20)
	j2 := job("R2", 9*60, 15)
	pred := model.NewFeasibilityPredicate()
	pred.Allow("R1", "R2", 0.7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newBnBSolver()
	s.SetTimeLimit(5)
	sol, err := s.Solve(ctx, Problem{Jobs: []*model.RouteJob{j1, j2}, Pred: pred})
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, sol.Status)
}

func TestCountChainsCountsRootsOnly(t *testing.T) {
	successor := map[int]int{0: 1, 2: 3}
	assert.Equal(t, 2, countChains(successor, 4))
}
