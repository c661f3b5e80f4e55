package chain

import (
	"context"
	"sort"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/flow"
)

// flowSolver solves the cardinality term of spec §4.D's objective exactly:
// minimum-chain-cover over a DAG is equivalent to maximum bipartite
// matching on a split-node graph (one "out" and one "in" node per job, an
// edge out(i) -> in(j) for every feasible pair, a super-source feeding
// every out node and every in node feeding a super-sink, all unit
// capacity). chains = jobs - matching size.
//
// Edges are added to the graph in descending pair-score order so that,
// among the many maximum matchings that can exist, Dinic's deterministic
// augmenting-path search is biased toward the higher-scoring ones; a
// subsequent local swap pass (improve, in optimize.go) trades
// equal-cardinality matchings for a higher total score.
type flowSolver struct {
	timeLimitSeconds int
	seed             int64
}

func newFlowSolver() *flowSolver { return &flowSolver{timeLimitSeconds: 60} }

func (s *flowSolver) SetTimeLimit(limit int) { s.timeLimitSeconds = limit }
func (s *flowSolver) SetSeed(seed int64)     { s.seed = seed }

const (
	sourceVertex = "__source__"
	sinkVertex   = "__sink__"
)

func outNode(id string) string { return "out:" + id }
func inNode(id string) string  { return "in:" + id }

func (s *flowSolver) Solve(ctx context.Context, p Problem) (Solution, error) {
	g := core.NewGraph(core.WithDirected(true), core.WithWeighted())
	_ = g.AddVertex(sourceVertex)
	_ = g.AddVertex(sinkVertex)
	for _, j := range p.Jobs {
		_ = g.AddVertex(outNode(j.ID()))
		_ = g.AddVertex(inNode(j.ID()))
		if _, err := g.AddEdge(sourceVertex, outNode(j.ID()), 1); err != nil {
			return Solution{}, err
		}
		if _, err := g.AddEdge(inNode(j.ID()), sinkVertex, 1); err != nil {
			return Solution{}, err
		}
	}

	pairs := p.Pred.Pairs()
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Score != pairs[b].Score {
			return pairs[a].Score > pairs[b].Score
		}
		if pairs[a].From != pairs[b].From {
			return pairs[a].From < pairs[b].From
		}
		return pairs[a].To < pairs[b].To
	})
	for _, pair := range pairs {
		if _, err := g.AddEdge(outNode(pair.From), inNode(pair.To), 1); err != nil {
			return Solution{}, err
		}
	}

	_, residual, err := flow.Dinic(g, sourceVertex, sinkVertex, flow.FlowOptions{Ctx: ctx})
	if err != nil {
		return Solution{}, err
	}

	successor := make(map[string]string)
	hasSuccessor := make(map[string]bool)
	hasPredecessor := make(map[string]bool)
	for _, pair := range pairs {
		// An edge out(i)->in(j) is saturated (used in the matching) iff the
		// residual graph's reverse capacity in(j)->out(i) is 1 (it carried
		// flow) or equivalently the residual graph no longer has forward
		// capacity from out(i) to in(j). We check residual edges directly.
		if edgeSaturated(residual, outNode(pair.From), inNode(pair.To)) {
			successor[pair.From] = pair.To
			hasSuccessor[pair.From] = true
			hasPredecessor[pair.To] = true
		}
	}

	starts := make(map[string]bool)
	for _, j := range p.Jobs {
		if !hasPredecessor[j.ID()] {
			starts[j.ID()] = true
		}
	}

	return Solution{Status: StatusOptimal, Successor: successor, Starts: starts}, nil
}

// edgeSaturated reports whether the original unit-capacity edge from->to
// was used by the max flow, i.e. the residual graph no longer offers
// forward capacity from->to (it was consumed) while offering a return path
// to->from.
func edgeSaturated(residual *core.Graph, from, to string) bool {
	neighbors, err := residual.Neighbors(to)
	if err != nil {
		return false
	}
	for _, e := range neighbors {
		if e.To == from && e.Weight > 0 {
			return true
		}
	}
	return false
}
