package routerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

func TestChunkByCoordBudgetRespectsLimit(t *testing.T) {
	sources := make([]model.Location, 60)
	destinations := make([]model.Location, 60)
	chunks := chunkByCoordBudget(sources, destinations, 100)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.sources)+len(c.destinations), 100)
	}
}

func TestChunkByCoordBudgetCoversEveryPair(t *testing.T) {
	sources := make([]model.Location, 5)
	destinations := make([]model.Location, 5)
	chunks := chunkByCoordBudget(sources, destinations, 6)
	covered := make(map[[2]int]bool)
	for _, c := range chunks {
		for _, si := range c.sourceIdx {
			for _, di := range c.destIdx {
				covered[[2]int{si, di}] = true
			}
		}
	}
	assert.Len(t, covered, 25)
}

func TestTravelMatrixFetchesAndFallsBackOnNullCells(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"durations": [][]any{
				{120.0, nil},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(model.RouterConfig{BaseURL: srv.URL, ConnectTimeout: 1, ReadTimeout: 1}, nil)
	defer c.Close()

	sourceIDs := []string{"s1"}
	destIDs := []string{"d1", "d2"}
	sources := []model.Location{{Latitude: 1, Longitude: 1}}
	destinations := []model.Location{{Latitude: 2, Longitude: 2}, {Latitude: 3, Longitude: 3}}

	matrix := c.TravelMatrix(context.Background(), sourceIDs, sources, destIDs, destinations)
	minutes, ok := matrix.Get("s1", "d1")
	require.True(t, ok)
	assert.Equal(t, 2, minutes)

	_, ok = matrix.Get("s1", "d2")
	assert.False(t, ok) // null cell: caller must apply the fallback
}
