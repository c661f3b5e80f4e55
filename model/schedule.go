package model

import "sort"

// ScheduleItem is a chain link rendered for output.
type ScheduleItem struct {
	RouteID         string `json:"route_id"`
	StartTime       int    `json:"start_time_min"`
	EndTime         int    `json:"end_time_min"`
	ShiftApplied    int    `json:"shift_applied_min"`
	DeadheadMinutes int    `json:"deadhead_minutes"`
}

// BusSchedule is a synthesized vehicle's ordered list of ScheduleItems
// across every block it was assigned. Items are kept sorted by StartTime.
type BusSchedule struct {
	VehicleID string          `json:"vehicle_id"`
	Items     []ScheduleItem  `json:"items"`
	Capacity  int             `json:"capacity,omitempty"`
}

// SortItems restores the start-time ordering invariant.
func (b *BusSchedule) SortItems() {
	sort.Slice(b.Items, func(i, j int) bool { return b.Items[i].StartTime < b.Items[j].StartTime })
}

// Overlaps reports whether any two items in the schedule overlap, i.e.
// violate items[k].EndTime <= items[k+1].StartTime once sorted.
func (b *BusSchedule) Overlaps() bool {
	for k := 0; k+1 < len(b.Items); k++ {
		if b.Items[k].EndTime > b.Items[k+1].StartTime {
			return true
		}
	}
	return false
}

// UnassignedReason codes why a route could not be scheduled.
type UnassignedReason string

const (
	ReasonMissingAnchor       UnassignedReason = "MISSING_ANCHOR"
	ReasonInfeasibleAlone     UnassignedReason = "INFEASIBLE_ALONE"
	ReasonNotActiveOnDay      UnassignedReason = "NOT_ACTIVE_ON_DAY"
)

// UnassignedRoute records a route that did not end up on any BusSchedule.
type UnassignedRoute struct {
	RouteID string           `json:"route_id"`
	Reason  UnassignedReason `json:"reason"`
}

// Status is the job-level outcome enum.
type Status string

const (
	StatusOK             Status = "OK"
	StatusOKUnassigned   Status = "OK_WITH_UNASSIGNED"
	StatusPartialTimeout Status = "PARTIAL_TIMEOUT"
	StatusTimeout        Status = "TIMEOUT"
	StatusCancelled      Status = "CANCELLED"
	StatusFailed         Status = "FAILED"
)

// BlockDiagnostic captures per-block solver behavior.
type BlockDiagnostic struct {
	Block          Block  `json:"block"`
	Jobs           int    `json:"jobs"`
	Chains         int    `json:"chains"`
	SolverStatus   string `json:"solver_status"`
	UsedGreedy     bool   `json:"used_greedy"`
	IterationCount int    `json:"iteration_count"`
}

// CircuitBreakerSnapshot is a point-in-time view of the Router Client's
// breaker and counters, copied into diagnostics at job end.
type CircuitBreakerSnapshot struct {
	Requests        int64  `json:"requests"`
	CacheHits       int64  `json:"cache_hits"`
	APIErrors       int64  `json:"api_errors"`
	BreakerOpenings int64  `json:"breaker_openings"`
	State           string `json:"breaker_state"`
}

// Diagnostics summarizes one optimization run.
type Diagnostics struct {
	Status          Status                 `json:"status"`
	RouteCount      int                    `json:"route_count"`
	ScheduledCount  int                    `json:"scheduled_count"`
	UnassignedCount int                    `json:"unassigned_count"`
	VehicleCount    int                    `json:"vehicle_count"`
	Blocks          []BlockDiagnostic      `json:"blocks"`
	Breaker         CircuitBreakerSnapshot `json:"breaker"`
	Error           string                 `json:"error,omitempty"`
	LocalSearchPasses int                  `json:"local_search_passes"`
}

// OptimizationResult is the immutable output of one optimization request.
type OptimizationResult struct {
	Schedules   []*BusSchedule      `json:"schedules"`
	Unassigned  []UnassignedRoute   `json:"unassigned"`
	Diagnostics Diagnostics         `json:"diagnostics"`
}
