package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

func intPtr(v int) *int { return &v }

func route(id string, typ model.RouteType, anchor int, days ...model.Weekday) *model.Route {
	r := &model.Route{
		ID:          id,
		Type:        typ,
		Capacity:    40,
		ServiceDays: days,
		Stops: []model.Stop{
			{Latitude: 1, Longitude: 1, MinutesFromStart: 0},
			{Latitude: 2, Longitude: 2, MinutesFromStart: 20},
		},
	}
	if typ == model.Entry {
		r.ArrivalTime = intPtr(anchor)
	} else {
		r.DepartureTime = intPtr(anchor)
	}
	return r
}

func TestPartitionClassifiesIntoFourBlocks(t *testing.T) {
	routes := []*model.Route{
		route("morning", model.Entry, 8*60, model.Mon),
		route("midday", model.Exit, 13*60, model.Mon),
		route("afternoon-entry", model.Entry, 12*60, model.Mon),
		route("evening", model.Exit, 16*60, model.Mon),
	}
	res := Partition(context.Background(), routes, model.Mon, 45, nil)
	assert.Len(t, res.Jobs[model.BlockEntryMorning], 1)
	assert.Len(t, res.Jobs[model.BlockExitMidday], 1)
	assert.Len(t, res.Jobs[model.BlockEntryAfter], 1)
	assert.Len(t, res.Jobs[model.BlockExitEvening], 1)
	assert.Empty(t, res.Unassigned)
}

func TestPartitionExcludesMissingAnchor(t *testing.T) {
	r := route("no-anchor", model.Entry, 0, model.Mon)
	r.ArrivalTime = nil
	res := Partition(context.Background(), []*model.Route{r}, model.Mon, 45, nil)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, "no-anchor", res.Unassigned[0].RouteID)
	assert.Equal(t, model.ReasonMissingAnchor, res.Unassigned[0].Reason)
}

func TestPartitionExcludesInactiveDayWithoutReporting(t *testing.T) {
	r := route("wed-only", model.Entry, 8*60, model.Wed)
	res := Partition(context.Background(), []*model.Route{r}, model.Mon, 45, nil)
	assert.Empty(t, res.Jobs[model.BlockEntryMorning])
	assert.Empty(t, res.Unassigned)
}

func TestPartitionBuildsGreatCircleFallbackMatrix(t *testing.T) {
	routes := []*model.Route{
		route("r1", model.Entry, 8*60, model.Mon),
		route("r2", model.Entry, 9*60, model.Mon),
	}
	res := Partition(context.Background(), routes, model.Mon, 45, nil)
	matrix := res.Matrices[model.BlockEntryMorning]
	require.NotNil(t, matrix)
	_, ok := matrix.Get("r1", "r2")
	assert.True(t, ok)
}

func TestClassifyBoundary(t *testing.T) {
	b, ok := classify(model.Entry, 11*60)
	require.True(t, ok)
	assert.Equal(t, model.BlockEntryMorning, b)

	b, ok = classify(model.Entry, 11*60+1)
	require.True(t, ok)
	assert.Equal(t, model.BlockEntryAfter, b)

	b, ok = classify(model.Exit, 15*60)
	require.True(t, ok)
	assert.Equal(t, model.BlockExitMidday, b)

	b, ok = classify(model.Exit, 15*60+1)
	require.True(t, ok)
	assert.Equal(t, model.BlockExitEvening, b)
}
