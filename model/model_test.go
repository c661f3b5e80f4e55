package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func entryRoute(id string, arrival int, minutesFromStart int) *Route {
	return &Route{
		ID:          id,
		Type:        Entry,
		SchoolID:    "E1",
		ContractID:  "C1",
		Capacity:    40,
		ServiceDays: []Weekday{Mon},
		Stops: []Stop{
			{Latitude: 42.60, Longitude: -8.80, Order: 0, MinutesFromStart: 0},
			{Latitude: 42.50, Longitude: -8.70, Order: 1, MinutesFromStart: minutesFromStart},
		},
		ArrivalTime: intPtr(arrival),
	}
}

func TestRouteDurationMinutes(t *testing.T) {
	r := entryRoute("R1", 8*60, 20)
	assert.Equal(t, 20, r.DurationMinutes())
}

func TestRouteDurationMinutesEmptyStops(t *testing.T) {
	r := &Route{ID: "R0"}
	assert.Equal(t, 0, r.DurationMinutes())
}

func TestRouteAnchorMinutes(t *testing.T) {
	r := entryRoute("R1", 8*60, 20)
	anchor, ok := r.AnchorMinutes()
	require.True(t, ok)
	assert.Equal(t, 8*60, anchor)

	exit := &Route{ID: "R2", Type: Exit}
	_, ok = exit.AnchorMinutes()
	assert.False(t, ok)
}

func TestRouteActiveOn(t *testing.T) {
	r := entryRoute("R1", 8*60, 20)
	assert.True(t, r.ActiveOn(Mon))
	assert.False(t, r.ActiveOn(Tue))
}

func TestNewRouteJobEntry(t *testing.T) {
	r := entryRoute("R1", 8*60, 20)
	job := NewRouteJob(r, BlockEntryMorning, 8*60)
	assert.Equal(t, 8*60, job.ScheduledEndMin)
	assert.Equal(t, 8*60-20, job.ScheduledStartMin)
	assert.Equal(t, "R1", job.ID())
	assert.Equal(t, 20, job.DurationMinutes())
	assert.Equal(t, 40, job.Capacity())
}

func TestNewRouteJobExit(t *testing.T) {
	r := &Route{
		ID:       "R2",
		Type:     Exit,
		Capacity: 30,
		Stops: []Stop{
			{Latitude: 1, Longitude: 1, MinutesFromStart: 0},
			{Latitude: 2, Longitude: 2, MinutesFromStart: 15},
		},
		DepartureTime: intPtr(13 * 60),
	}
	job := NewRouteJob(r, BlockExitMidday, 13*60)
	assert.Equal(t, 13*60, job.ScheduledStartMin)
	assert.Equal(t, 13*60+15, job.ScheduledEndMin)
}

func TestChainKeyAndCapacity(t *testing.T) {
	r1 := entryRoute("R1", 8*60, 20)
	r2 := entryRoute("R2", 9*60, 15)
	r2.Capacity = 55
	j1 := NewRouteJob(r1, BlockEntryMorning, 8*60)
	j2 := NewRouteJob(r2, BlockEntryMorning, 9*60)

	chain := NewChain(BlockEntryMorning, j1)
	assert.Equal(t, "R1", chain.Key())
	assert.Equal(t, j1, chain.First())
	assert.Equal(t, j1, chain.Last())
	assert.Equal(t, 40, chain.MaxCapacity())
	assert.True(t, chain.SameSchool())

	chain.Jobs = append(chain.Jobs, j2)
	assert.Equal(t, j2, chain.Last())
	assert.Equal(t, 55, chain.MaxCapacity())
}

func TestChainSameSchoolFalse(t *testing.T) {
	r1 := entryRoute("R1", 8*60, 20)
	r2 := entryRoute("R2", 9*60, 15)
	r2.SchoolID = "E2"
	j1 := NewRouteJob(r1, BlockEntryMorning, 8*60)
	j2 := NewRouteJob(r2, BlockEntryMorning, 9*60)
	chain := NewChain(BlockEntryMorning, j1)
	chain.Jobs = append(chain.Jobs, j2)
	assert.False(t, chain.SameSchool())
}

func TestFeasibilityPredicate(t *testing.T) {
	pred := NewFeasibilityPredicate()
	_, ok := pred.Feasible("a", "b")
	assert.False(t, ok)

	pred.Allow("a", "b", 0.8)
	score, ok := pred.Feasible("a", "b")
	require.True(t, ok)
	assert.InDelta(t, 0.8, score, 1e-9)

	pairs := pred.Pairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].From)
	assert.Equal(t, "b", pairs[0].To)
}

func TestTravelMatrix(t *testing.T) {
	m := NewTravelMatrix()
	assert.Equal(t, 0, m.Len())
	m.Set("a", "b", 5)
	v, ok := m.Get("a", "b")
	require.True(t, ok)
	assert.Equal(t, 5, v)
	_, ok = m.Get("b", "a")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestBusScheduleSortAndOverlap(t *testing.T) {
	sched := &BusSchedule{
		VehicleID: "B-001",
		Items: []ScheduleItem{
			{RouteID: "R2", StartTime: 100, EndTime: 120},
			{RouteID: "R1", StartTime: 0, EndTime: 20},
		},
	}
	sched.SortItems()
	require.Len(t, sched.Items, 2)
	assert.Equal(t, "R1", sched.Items[0].RouteID)
	assert.False(t, sched.Overlaps())

	sched.Items[1].StartTime = 10 // now overlaps item 0's end (20 > 10)
	assert.True(t, sched.Overlaps())
}

func TestDefaultOptions(t *testing.T) {
	opt := DefaultOptions()
	assert.Equal(t, 5, opt.MaxTimeShiftEntryMinutes)
	assert.Equal(t, 5, opt.MaxTimeShiftExitEarlyMinutes)
	assert.Equal(t, 10, opt.MaxTimeShiftExitLateMinutes)
	assert.Equal(t, 5, opt.MinBufferMinutes)
	assert.Equal(t, 20, opt.CapacityMaxDiff)
	assert.Equal(t, 60, opt.ILPTimeLimitSeconds)
	assert.Equal(t, 300, opt.JobTimeLimitSeconds)
	assert.Equal(t, 45.0, opt.FallbackSpeedKMH)
	assert.Equal(t, 5, opt.LocalSearchMaxPasses)
}
