package chain

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwmdev/schoolbus-fleet-core/feasibility"
	"github.com/jwmdev/schoolbus-fleet-core/model"
)

// exactBackendJobLimit is the job-count threshold above which the
// branch-and-bound backend is skipped in favor of the flow-based exact
// matching backend: branch-and-bound's search tree grows too large to
// reliably finish inside ILPTimeLimitSeconds past this size, while the
// matching reduction stays polynomial regardless of block size.
const exactBackendJobLimit = 40

// Optimize runs the Chain Optimizer for one block: it builds chains of
// jobs from the feasibility predicate, preferring an exact backend and
// falling back to the deterministic greedy backend when the exact backend
// times out, reports infeasible, or is cancelled.
func Optimize(ctx context.Context, block model.Block, jobs []*model.RouteJob, pred *model.FeasibilityPredicate, routeType model.RouteType, opt model.OptimizationOptions) ([]*model.Chain, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	bounds := feasibility.BoundsFor(routeType, opt)
	problem := Problem{
		Block:  block,
		Jobs:   jobs,
		Pred:   pred,
		Bounds: ShiftBounds{Lower: bounds.Lower, Upper: bounds.Upper},
	}

	var primary Solver
	if len(jobs) <= exactBackendJobLimit {
		primary = newBnBSolver()
	} else {
		primary = newFlowSolver()
	}
	primary.SetTimeLimit(opt.ILPTimeLimitSeconds)
	primary.SetSeed(opt.RandomSeed)

	solution, err := primary.Solve(ctx, problem)
	if err != nil {
		return nil, fmt.Errorf("chain: primary solver failed for block %d: %w", block, err)
	}

	degraded := solution.Status == StatusTimeout || solution.Status == StatusInfeasible || ctx.Err() != nil
	if degraded {
		greedy := newGreedySolver()
		solution, err = greedy.Solve(ctx, problem)
		if err != nil {
			return nil, fmt.Errorf("chain: greedy fallback failed for block %d: %w", block, err)
		}
	} else {
		solution = improve(solution, problem)
	}

	return reconstructChains(block, jobs, solution), nil
}

// improve runs a bounded local-swap pass over an already-maximum-cardinality
// matching: it looks for pairs of chain edges that can be exchanged without
// changing the chain count but raising total score, per spec §4.D's note
// that the matching reduction alone does not optimize the secondary
// objective. Bounded to a small fixed number of passes over all edges since
// it is a polish step, not the primary search.
func improve(sol Solution, p Problem) Solution {
	const maxPasses = 3
	idx := make(map[string]int, len(p.Jobs))
	for i, j := range p.Jobs {
		idx[j.ID()] = i
	}

	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		pairs := p.Pred.Pairs()
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].Score > pairs[b].Score })

		for _, cand := range pairs {
			curSucc, hasCur := sol.Successor[cand.From]
			if hasCur && curSucc == cand.To {
				continue
			}
			candScore, ok := p.Pred.Feasible(cand.From, cand.To)
			if !ok {
				continue
			}
			destTaken := false
			var destPredecessor string
			for from, to := range sol.Successor {
				if to == cand.To {
					destTaken = true
					destPredecessor = from
					break
				}
			}
			if !destTaken {
				continue // would change cardinality by adding a free edge elsewhere; skip
			}
			oldScore, _ := p.Pred.Feasible(destPredecessor, cand.To)
			if hasCur {
				continue // swapping the origin's existing edge risks cycles; skip for safety
			}
			if candScore > oldScore {
				delete(sol.Successor, destPredecessor)
				sol.Successor[cand.From] = cand.To
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return sol
}

// reconstructChains walks successor links starting from every start job
// (spec §4.D: y[i] = 1) to materialize ordered job chains.
func reconstructChains(block model.Block, jobs []*model.RouteJob, sol Solution) []*model.Chain {
	byID := make(map[string]*model.RouteJob, len(jobs))
	for _, j := range jobs {
		byID[j.ID()] = j
	}

	starts := make([]string, 0, len(sol.Starts))
	for id, isStart := range sol.Starts {
		if isStart {
			starts = append(starts, id)
		}
	}
	sort.Strings(starts)

	var chains []*model.Chain
	visited := make(map[string]bool, len(jobs))
	for _, startID := range starts {
		job := byID[startID]
		if job == nil || visited[startID] {
			continue
		}
		chain := model.NewChain(block, job)
		visited[startID] = true
		cur := startID
		for {
			next, ok := sol.Successor[cur]
			if !ok || visited[next] {
				break
			}
			nextJob := byID[next]
			if nextJob == nil {
				break
			}
			chain.Jobs = append(chain.Jobs, nextJob)
			visited[next] = true
			cur = next
		}
		chains = append(chains, chain)
	}

	// Any job never reached (shouldn't happen given Starts/Successor are
	// built from the same job set, but guarded defensively) becomes its own
	// singleton chain so no job is silently dropped.
	for _, j := range jobs {
		if !visited[j.ID()] {
			chains = append(chains, model.NewChain(block, j))
			visited[j.ID()] = true
		}
	}

	return chains
}
