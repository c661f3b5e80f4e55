package assemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

func itemJob(id string, start, duration int) (*model.RouteJob, model.ScheduleItem) {
	r := &model.Route{
		ID:       id,
		Type:     model.Entry,
		Capacity: 40,
		Stops: []model.Stop{
			{MinutesFromStart: 0},
			{MinutesFromStart: duration},
		},
	}
	anchor := start + duration
	r.ArrivalTime = &anchor
	job := model.NewRouteJob(r, model.BlockEntryMorning, anchor)
	item := model.ScheduleItem{RouteID: id, StartTime: start, EndTime: start + duration}
	return job, item
}

func TestTryRelocateConsolidatesIntoFewerVehicles(t *testing.T) {
	j1, i1 := itemJob("R1", 460, 20)
	j2, i2 := itemJob("R2", 525, 15)

	schedules := []*model.BusSchedule{
		{VehicleID: "B-001", Items: []model.ScheduleItem{i1}, Capacity: 40},
		{VehicleID: "B-002", Items: []model.ScheduleItem{i2}, Capacity: 40},
	}
	jobsByID := map[string]*model.RouteJob{"R1": j1, "R2": j2}

	changed := tryRelocate(schedules, jobsByID, nil, model.DefaultOptions())
	require.True(t, changed)
	assert.Equal(t, 1, countNonEmpty(schedules))
}

func TestTryRelocateNoOpWhenAlreadyOptimal(t *testing.T) {
	j1, i1 := itemJob("R1", 460, 20)
	schedules := []*model.BusSchedule{
		{VehicleID: "B-001", Items: []model.ScheduleItem{i1}, Capacity: 40},
	}
	jobsByID := map[string]*model.RouteJob{"R1": j1}

	changed := tryRelocate(schedules, jobsByID, nil, model.DefaultOptions())
	assert.False(t, changed)
}

func TestCompactDropsEmptyVehiclesAfterConsolidation(t *testing.T) {
	j1, i1 := itemJob("R1", 460, 20)
	j2, i2 := itemJob("R2", 525, 15)
	schedules := []*model.BusSchedule{
		{VehicleID: "B-001", Items: []model.ScheduleItem{i1}, Capacity: 40},
		{VehicleID: "B-002", Items: []model.ScheduleItem{i2}, Capacity: 40},
	}
	jobsByID := map[string]*model.RouteJob{"R1": j1, "R2": j2}

	out := Compact(context.Background(), schedules, jobsByID, nil, model.DefaultOptions(), 5)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Items, 2)
	assert.False(t, out[0].Overlaps())
}

func TestReverseReversesInPlaceRange(t *testing.T) {
	items := []model.ScheduleItem{{RouteID: "a"}, {RouteID: "b"}, {RouteID: "c"}, {RouteID: "d"}}
	reverse(items, 1, 2)
	assert.Equal(t, "a", items[0].RouteID)
	assert.Equal(t, "c", items[1].RouteID)
	assert.Equal(t, "b", items[2].RouteID)
	assert.Equal(t, "d", items[3].RouteID)
}

func TestRebuildScheduleRecomputesDeadheadAndDetectsInfeasibility(t *testing.T) {
	j1, i1 := itemJob("R1", 460, 20)
	j2, i2 := itemJob("R2", 482, 15) // only 2 minutes gap, below the 5-minute buffer
	s := &model.BusSchedule{VehicleID: "B-001", Items: []model.ScheduleItem{i1, i2}}
	jobsByID := map[string]*model.RouteJob{"R1": j1, "R2": j2}

	ok := rebuildSchedule(s, jobsByID, nil, model.DefaultOptions())
	assert.False(t, ok)
	assert.Equal(t, 2, s.Items[1].DeadheadMinutes)
}
