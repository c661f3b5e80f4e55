package model

// Block identifies one of the four disjoint temporal partitions a RouteJob
// is classified into.
type Block int

const (
	BlockEntryMorning Block = 1
	BlockExitMidday   Block = 2
	BlockEntryAfter   Block = 3
	BlockExitEvening  Block = 4
)

// RouteJob is a Route augmented with block-scoped scheduling fields. It is
// derived once per optimization job and never mutated after the Block
// Partitioner constructs it.
type RouteJob struct {
	Route *Route

	Block Block

	ScheduledStartMin int
	ScheduledEndMin   int

	StartLocation Location
	EndLocation   Location
}

// ID mirrors the underlying Route's identifier for convenience.
func (j *RouteJob) ID() string { return j.Route.ID }

// DurationMinutes is the job's geographic duration (same as the Route's).
func (j *RouteJob) DurationMinutes() int { return j.ScheduledEndMin - j.ScheduledStartMin }

// Capacity is the seats required by the underlying route.
func (j *RouteJob) Capacity() int { return j.Route.Capacity }

// NewRouteJob classifies a Route into a RouteJob for the given block,
// computing scheduled_start/end and start/end locations per §3 of the
// scheduling spec:
//
//	ENTRY: scheduled_end = arrival_time; scheduled_start = end - duration.
//	EXIT:  scheduled_start = departure_time; scheduled_end = start + duration.
func NewRouteJob(r *Route, block Block, anchorMin int) *RouteJob {
	dur := r.DurationMinutes()
	job := &RouteJob{Route: r, Block: block}
	switch r.Type {
	case Entry:
		job.ScheduledEndMin = anchorMin
		job.ScheduledStartMin = anchorMin - dur
	case Exit:
		job.ScheduledStartMin = anchorMin
		job.ScheduledEndMin = anchorMin + dur
	}
	job.StartLocation = LocationOf(r.FirstStop())
	job.EndLocation = LocationOf(r.LastStop())
	return job
}
