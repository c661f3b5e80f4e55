package model

// Chain is an ordered, non-empty sequence of RouteJobs within a single
// block, with realized start/end times after applying per-job time shifts.
//
// Invariant: for each adjacent pair (i, j), realized_end(i) + travel(i,j) +
// MIN_BUFFER <= realized_start(j).
type Chain struct {
	Block Block
	Jobs  []*RouteJob

	// RealizedStart/RealizedEnd are keyed by job ID and hold the start/end
	// clock-minute actually assigned to that job in this chain, after its
	// shift has been applied.
	RealizedStart map[string]int
	RealizedEnd   map[string]int
}

// NewChain builds a single-job chain with no shift applied yet.
func NewChain(block Block, job *RouteJob) *Chain {
	return &Chain{
		Block:         block,
		Jobs:          []*RouteJob{job},
		RealizedStart: map[string]int{job.ID(): job.ScheduledStartMin},
		RealizedEnd:   map[string]int{job.ID(): job.ScheduledEndMin},
	}
}

// Key is the chain's deterministic sort key: the route ID of its first job.
func (c *Chain) Key() string {
	if len(c.Jobs) == 0 {
		return ""
	}
	return c.Jobs[0].ID()
}

// First and Last return the chain's first and last job.
func (c *Chain) First() *RouteJob { return c.Jobs[0] }
func (c *Chain) Last() *RouteJob  { return c.Jobs[len(c.Jobs)-1] }

// MaxCapacity returns the largest required capacity among the chain's jobs.
func (c *Chain) MaxCapacity() int {
	max := 0
	for _, j := range c.Jobs {
		if j.Capacity() > max {
			max = j.Capacity()
		}
	}
	return max
}

// SameSchool reports whether every job in the chain serves the same school.
func (c *Chain) SameSchool() bool {
	if len(c.Jobs) == 0 {
		return true
	}
	school := c.Jobs[0].Route.SchoolID
	for _, j := range c.Jobs[1:] {
		if j.Route.SchoolID != school {
			return false
		}
	}
	return true
}
