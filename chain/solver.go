// Package chain implements the Chain Optimizer (spec §4.D): for one
// block's feasibility predicate, it selects a minimum-cardinality set of
// chains covering every job, weighted by pair-quality score, honoring a
// pluggable ILP-style solver interface with a deterministic greedy
// fallback.
package chain

import (
	"context"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

// Status mirrors the MILP-backend status enum from spec §9's design note.
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusUnbounded  Status = "UNBOUNDED"
	StatusTimeout    Status = "TIMEOUT"
)

// Problem is the input to a Solver: one block's jobs, its feasibility
// predicate (with per-pair scores), and the shift bounds governing the
// temporal-propagation constraints.
type Problem struct {
	Block  model.Block
	Jobs   []*model.RouteJob
	Pred   *model.FeasibilityPredicate
	Bounds ShiftBounds
}

// ShiftBounds is duplicated here (rather than imported from feasibility)
// to keep this package's public Solver interface free of a dependency on
// feasibility's internals; Optimize converts feasibility.ShiftBounds into
// this type at the call site.
type ShiftBounds struct {
	Lower, Upper int
}

// Solution is one Solver's output: the set of successor edges selected
// (x[i,j] = 1) and the chain-start indicators (y[i] = 1), from which chains
// are reconstructed by walking successor links starting at every start job.
type Solution struct {
	Status    Status
	Successor map[string]string // job id -> next job id, only present edges
	Starts    map[string]bool   // job id -> true if it starts a chain
}

// Solver is the pluggable ILP-style backend interface from spec §9's
// design note: {build_problem, solve, extract_solution, set_time_limit,
// set_seed}. In this Go rendering, BuildProblem/ExtractSolution collapse
// into Solve's argument/return types, since Go favors value-passing over a
// stateful builder; SetTimeLimit/SetSeed remain explicit knobs since they
// govern solver behavior across an arbitrary number of Solve calls.
type Solver interface {
	SetTimeLimit(limit int /* seconds */)
	SetSeed(seed int64)
	Solve(ctx context.Context, p Problem) (Solution, error)
}
