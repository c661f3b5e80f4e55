// Package match implements the Cross-Block Matcher (spec §4.E): it pairs
// chains from one block with chains from the block serving the opposite
// half of the same vehicle-day (morning entry -> midday exit, afternoon
// entry -> evening exit) via maximum-weight bipartite matching.
package match

import (
	"context"

	"github.com/jwmdev/schoolbus-fleet-core/model"
	"github.com/jwmdev/schoolbus-fleet-core/routerclient"
)

// capacityMaxDiff is the hard matchability cutoff from spec §4.E; it is
// intentionally independent of OptimizationOptions.CapacityMaxDiff (which
// governs within-block chaining, not cross-block pairing).
const capacityMaxDiff = 20

// minBufferMinutes mirrors data.MinBufferMinutes; duplicated here (rather
// than imported) to keep this package decoupled from the data package's
// block-anchor concerns, matching the same pattern chain.ShiftBounds uses.
const minBufferMinutes = 5

// Pair is one matched (or unmatched) chain-pair outcome.
type Pair struct {
	First  *model.Chain // ends the vehicle's earlier-block service, nil if Second is unmatched-alone
	Second *model.Chain // starts the vehicle's later-block service, nil if First is unmatched-alone
}

// Match pairs chains from earlier against chains from later using maximum
// weight bipartite matching (Hungarian / Kuhn-Munkres). Unmatched chains on
// either side become their own single-chain pair.
func Match(ctx context.Context, earlier, later []*model.Chain, router *routerclient.Client, fallbackSpeedKMH float64) []Pair {
	n, m := len(earlier), len(later)
	if n == 0 && m == 0 {
		return nil
	}

	weight := make([][]float64, n)
	feasible := make([][]bool, n)
	for i, c1 := range earlier {
		weight[i] = make([]float64, m)
		feasible[i] = make([]bool, m)
		e := c1.Last()
		endTime, ok := c1.RealizedEnd[e.ID()]
		if !ok {
			endTime = e.ScheduledEndMin
		}
		for j, c2 := range later {
			s := c2.First()
			startTime, ok := c2.RealizedStart[s.ID()]
			if !ok {
				startTime = s.ScheduledStartMin
			}
			travel := travelMinutes(ctx, e.EndLocation, s.StartLocation, router, fallbackSpeedKMH)
			if startTime-endTime < travel+minBufferMinutes {
				continue
			}
			capDiff := c1.MaxCapacity() - c2.MaxCapacity()
			if capDiff < 0 {
				capDiff = -capDiff
			}
			if capDiff > capacityMaxDiff {
				continue
			}
			score := 10.0
			if c1.SameSchool() && c2.SameSchool() && c1.Jobs[0].Route.SchoolID == c2.Jobs[0].Route.SchoolID {
				score += 12
			}
			if capDiff <= 5 {
				score += 4
			}
			weight[i][j] = score
			feasible[i][j] = true
		}
	}

	assignment := solveAssignment(weight, feasible, n, m)

	var pairs []Pair
	matchedLater := make([]bool, m)
	for i, j := range assignment {
		if j < 0 {
			pairs = append(pairs, Pair{First: earlier[i]})
			continue
		}
		matchedLater[j] = true
		pairs = append(pairs, Pair{First: earlier[i], Second: later[j]})
	}
	for j, c2 := range later {
		if !matchedLater[j] {
			pairs = append(pairs, Pair{Second: c2})
		}
	}
	return pairs
}

func travelMinutes(ctx context.Context, a, b model.Location, router *routerclient.Client, fallbackSpeedKMH float64) int {
	if router != nil {
		if minutes, ok := router.TravelTime(ctx, a, b); ok {
			return minutes
		}
	}
	return routerclient.GreatCircleFallbackMinutes(a, b, fallbackSpeedKMH)
}

// solveAssignment returns, for every row i, the matched column j or -1 if
// unmatched, maximizing total weight over feasible (i,j) pairs via the
// Hungarian algorithm (Kuhn-Munkres) on a padded square cost matrix. No
// available weighted/min-cost flow dependency fits (lvlath only ships
// unweighted max-flow), so this is a direct, textbook O(n^3) implementation
// over negated weights (the algorithm natively minimizes).
func solveAssignment(weight [][]float64, feasible [][]bool, n, m int) []int {
	size := n
	if m > size {
		size = m
	}
	if size == 0 {
		return nil
	}

	const infeasiblePenalty = 1 << 20
	cost := make([][]float64, size)
	for i := 0; i < size; i++ {
		cost[i] = make([]float64, size)
		for j := 0; j < size; j++ {
			switch {
			case i < n && j < m && feasible[i][j]:
				cost[i][j] = -weight[i][j]
			case i < n && j < m:
				cost[i][j] = infeasiblePenalty
			default:
				cost[i][j] = 0 // padding row/column: free to assign, never selected over a real pair
			}
		}
	}

	colMatch, _ := hungarian(cost)

	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = -1
	}
	for j := 0; j < size; j++ {
		i := colMatch[j]
		if i >= 0 && i < n && j < m && feasible[i][j] {
			assignment[i] = j
		}
	}
	return assignment
}

// hungarian solves the square assignment problem (minimize total cost) via
// the Jonker-Volgenant-style potentials formulation of Kuhn-Munkres.
// Returns colMatch (column -> assigned row, -1 if none) and the optimal
// total cost. cost must be square.
func hungarian(cost [][]float64) ([]int, float64) {
	n := len(cost)
	const inf = 1 << 30

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row matched to column j (1-indexed rows), 0 = none
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := 0; j <= n; j++ {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := float64(inf)
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	colMatch := make([]int, n)
	total := 0.0
	for j := 1; j <= n; j++ {
		row := p[j] - 1
		colMatch[j-1] = row
		if row >= 0 {
			total += cost[row][j-1]
		}
	}
	return colMatch, total
}
