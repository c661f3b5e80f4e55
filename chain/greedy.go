package chain

import (
	"context"
	"math"
	"sort"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

// greedySolver is the deterministic fallback used when neither exact
// backend reaches a confident answer in time (spec §4.D's degraded-mode
// note): it tries seven fixed orderings, greedily chaining each job to the
// best available feasible successor in that order, and keeps the ordering
// that yields the fewest chains, breaking ties by highest total score.
type greedySolver struct{}

func newGreedySolver() *greedySolver { return &greedySolver{} }

func (g *greedySolver) SetTimeLimit(int) {}
func (g *greedySolver) SetSeed(int64)    {}

func (g *greedySolver) Solve(_ context.Context, p Problem) (Solution, error) {
	orderings := []func([]*model.RouteJob) []int{
		orderEarliestFirst,
		orderLatestFirst,
		orderMostConnectedFirst(p.Pred),
		orderLeastConnectedFirst(p.Pred),
		orderBySchool,
		orderByDurationDescending,
		orderByGeographicClustering,
	}

	var bestSolution Solution
	bestChains := len(p.Jobs) + 1
	bestScore := -1.0

	for _, orderFn := range orderings {
		order := orderFn(p.Jobs)
		sol, chains, score := chainGreedily(p.Jobs, order, p.Pred)
		if chains < bestChains || (chains == bestChains && score > bestScore) {
			bestChains = chains
			bestScore = score
			bestSolution = sol
		}
	}
	bestSolution.Status = StatusFeasible
	return bestSolution, nil
}

// chainGreedily walks jobs in the given index order; for each unchained job
// it attaches the highest-scoring still-available feasible successor.
func chainGreedily(jobs []*model.RouteJob, order []int, pred *model.FeasibilityPredicate) (Solution, int, float64) {
	n := len(jobs)
	used := make([]bool, n)       // already has a predecessor
	successor := make(map[int]int)
	totalScore := 0.0

	for _, i := range order {
		if _, ok := successor[i]; ok {
			continue
		}
		bestJ := -1
		bestJScore := -1.0
		for jIdx, job := range jobs {
			if jIdx == i || used[jIdx] {
				continue
			}
			if hasAncestor(successor, jIdx, i, n) {
				continue // would close a cycle
			}
			score, ok := pred.Feasible(jobs[i].ID(), job.ID())
			if !ok {
				continue
			}
			if score > bestJScore {
				bestJScore = score
				bestJ = jIdx
			}
		}
		if bestJ >= 0 {
			successor[i] = bestJ
			used[bestJ] = true
			totalScore += bestJScore
		}
	}

	hasPredecessor := make(map[string]bool, n)
	successorIDs := make(map[string]string, len(successor))
	for fi, ti := range successor {
		successorIDs[jobs[fi].ID()] = jobs[ti].ID()
		hasPredecessor[jobs[ti].ID()] = true
	}
	starts := make(map[string]bool)
	for _, j := range jobs {
		if !hasPredecessor[j.ID()] {
			starts[j.ID()] = true
		}
	}
	chains := countChains(successor, n)
	return Solution{Successor: successorIDs, Starts: starts}, chains, totalScore
}

// hasAncestor walks backward from j through n steps at most, checking
// whether i already lies upstream of j (attaching i->j would close a
// cycle). successor here maps predecessor index -> successor index.
func hasAncestor(successor map[int]int, j, i, n int) bool {
	predecessor := make(map[int]int, len(successor))
	for from, to := range successor {
		predecessor[to] = from
	}
	cur := j
	for step := 0; step < n; step++ {
		p, ok := predecessor[cur]
		if !ok {
			return false
		}
		if p == i {
			return true
		}
		cur = p
	}
	return false
}

func orderEarliestFirst(jobs []*model.RouteJob) []int {
	return sortedIndices(jobs, func(a, b *model.RouteJob) bool {
		return a.ScheduledStartMin < b.ScheduledStartMin
	})
}

func orderLatestFirst(jobs []*model.RouteJob) []int {
	return sortedIndices(jobs, func(a, b *model.RouteJob) bool {
		return a.ScheduledStartMin > b.ScheduledStartMin
	})
}

func orderMostConnectedFirst(pred *model.FeasibilityPredicate) func([]*model.RouteJob) []int {
	return func(jobs []*model.RouteJob) []int {
		degree := connectionDegree(jobs, pred)
		return sortedIndicesWithTiebreak(jobs, func(a, b int) bool { return degree[a] > degree[b] })
	}
}

func orderLeastConnectedFirst(pred *model.FeasibilityPredicate) func([]*model.RouteJob) []int {
	return func(jobs []*model.RouteJob) []int {
		degree := connectionDegree(jobs, pred)
		return sortedIndicesWithTiebreak(jobs, func(a, b int) bool { return degree[a] < degree[b] })
	}
}

func connectionDegree(jobs []*model.RouteJob, pred *model.FeasibilityPredicate) []int {
	degree := make([]int, len(jobs))
	for i, ji := range jobs {
		for j, jj := range jobs {
			if i == j {
				continue
			}
			if _, ok := pred.Feasible(ji.ID(), jj.ID()); ok {
				degree[i]++
			}
		}
	}
	return degree
}

func orderBySchool(jobs []*model.RouteJob) []int {
	return sortedIndices(jobs, func(a, b *model.RouteJob) bool {
		if a.Route.SchoolID != b.Route.SchoolID {
			return a.Route.SchoolID < b.Route.SchoolID
		}
		return a.ScheduledStartMin < b.ScheduledStartMin
	})
}

func orderByDurationDescending(jobs []*model.RouteJob) []int {
	return sortedIndices(jobs, func(a, b *model.RouteJob) bool {
		return a.DurationMinutes() > b.DurationMinutes()
	})
}

// orderByGeographicClustering sorts by a coarse geohash-free proxy: round
// the end-location coordinates to a cluster cell so spatially close jobs
// sort adjacently, breaking ties by start time.
func orderByGeographicClustering(jobs []*model.RouteJob) []int {
	cell := func(j *model.RouteJob) (int, int) {
		return int(math.Round(j.EndLocation.Latitude * 20)), int(math.Round(j.EndLocation.Longitude * 20))
	}
	return sortedIndices(jobs, func(a, b *model.RouteJob) bool {
		ca1, ca2 := cell(a)
		cb1, cb2 := cell(b)
		if ca1 != cb1 {
			return ca1 < cb1
		}
		if ca2 != cb2 {
			return ca2 < cb2
		}
		return a.ScheduledStartMin < b.ScheduledStartMin
	})
}

func sortedIndices(jobs []*model.RouteJob, less func(a, b *model.RouteJob) bool) []int {
	idx := make([]int, len(jobs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if less(jobs[idx[a]], jobs[idx[b]]) {
			return true
		}
		if less(jobs[idx[b]], jobs[idx[a]]) {
			return false
		}
		return jobs[idx[a]].ID() < jobs[idx[b]].ID()
	})
	return idx
}

func sortedIndicesWithTiebreak(jobs []*model.RouteJob, less func(a, b int) bool) []int {
	idx := make([]int, len(jobs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if less(idx[a], idx[b]) {
			return true
		}
		if less(idx[b], idx[a]) {
			return false
		}
		return jobs[idx[a]].ID() < jobs[idx[b]].ID()
	})
	return idx
}
