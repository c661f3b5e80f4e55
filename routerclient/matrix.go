package routerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

// TravelMatrix fetches pairwise drive times from every source to every
// destination, splitting the request into chunks so that no single HTTP
// call carries more than 100 coordinates combined (sources + destinations),
// per the external /table limit. Cells that remain unavailable after the
// call (cache miss, API failure, or a null cell in the OSRM response) are
// simply absent from the returned matrix; the caller applies the
// great-circle fallback.
func (c *Client) TravelMatrix(ctx context.Context, sourceIDs []string, sources []model.Location, destIDs []string, destinations []model.Location) *model.TravelMatrix {
	out := model.NewTravelMatrix()
	if len(sources) != len(sourceIDs) || len(destinations) != len(destIDs) {
		return out
	}

	for _, chunk := range chunkByCoordBudget(sources, destinations, maxCoordsPerRequest) {
		var durations [][]float64
		err := c.cb.call(func() error {
			d, ferr := c.fetchTable(ctx, chunk.sources, chunk.destinations)
			if ferr != nil {
				return ferr
			}
			durations = d
			return nil
		})
		if err != nil {
			c.apiErrors.Add(1)
			continue
		}
		for li, s := range chunk.sources {
			for lj, d := range chunk.destinations {
				if li >= len(durations) || lj >= len(durations[li]) {
					continue
				}
				secs := durations[li][lj]
				if secs < 0 {
					continue // null cell: unavailable
				}
				minutes := minutesRoundUp(secs)
				out.Set(sourceIDs[chunk.sourceIdx[li]], destIDs[chunk.destIdx[lj]], minutes)
				c.cache.Put(s.Latitude, s.Longitude, d.Latitude, d.Longitude, minutes)
			}
		}
	}

	// Backfill anything already resolved by the persistent cache; this also
	// covers pairs the chunk loop above never sent to the network.
	for si, s := range sources {
		for di, d := range destinations {
			if _, ok := out.Get(sourceIDs[si], destIDs[di]); ok {
				continue
			}
			if minutes, ok := c.cache.Get(s.Latitude, s.Longitude, d.Latitude, d.Longitude); ok {
				out.Set(sourceIDs[si], destIDs[di], minutes)
			}
		}
	}
	return out
}

type coordChunk struct {
	sources, destinations []model.Location
	sourceIdx, destIdx    []int
}

// chunkByCoordBudget splits the sources/destinations cross product into
// chunks whose combined coordinate count (len(sources)+len(destinations))
// never exceeds budget.
func chunkByCoordBudget(sources, destinations []model.Location, budget int) []coordChunk {
	if len(sources) == 0 || len(destinations) == 0 {
		return nil
	}
	var chunks []coordChunk
	// Simple strategy: fix a source-chunk size that leaves room for all
	// destinations when destinations alone fit the budget; otherwise also
	// chunk destinations.
	destChunkSize := len(destinations)
	if destChunkSize > budget-1 {
		destChunkSize = budget - 1
		if destChunkSize < 1 {
			destChunkSize = 1
		}
	}
	for ds := 0; ds < len(destinations); ds += destChunkSize {
		de := ds + destChunkSize
		if de > len(destinations) {
			de = len(destinations)
		}
		remaining := budget - (de - ds)
		srcChunkSize := remaining
		if srcChunkSize < 1 {
			srcChunkSize = 1
		}
		for ss := 0; ss < len(sources); ss += srcChunkSize {
			se := ss + srcChunkSize
			if se > len(sources) {
				se = len(sources)
			}
			chunk := coordChunk{
				sources:      sources[ss:se],
				destinations: destinations[ds:de],
			}
			for i := ss; i < se; i++ {
				chunk.sourceIdx = append(chunk.sourceIdx, i)
			}
			for j := ds; j < de; j++ {
				chunk.destIdx = append(chunk.destIdx, j)
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// fetchTable performs one OSRM /table/v1/driving request for the given
// sources and destinations, returning a [source][destination] seconds
// matrix with -1 marking a null (unavailable) cell.
func (c *Client) fetchTable(ctx context.Context, sources, destinations []model.Location) ([][]float64, error) {
	c.requests.Add(1)

	coords := make([]string, 0, len(sources)+len(destinations))
	for _, s := range sources {
		coords = append(coords, fmt.Sprintf("%f,%f", s.Longitude, s.Latitude))
	}
	srcRange := len(sources)
	for _, d := range destinations {
		coords = append(coords, fmt.Sprintf("%f,%f", d.Longitude, d.Latitude))
	}

	srcIdx := make([]string, srcRange)
	for i := range srcIdx {
		srcIdx[i] = strconv.Itoa(i)
	}
	destIdx := make([]string, len(destinations))
	for i := range destIdx {
		destIdx[i] = strconv.Itoa(srcRange + i)
	}

	url := fmt.Sprintf("%s/table/v1/driving/%s?sources=%s&destinations=%s",
		c.cfg.BaseURL, strings.Join(coords, ";"), strings.Join(srcIdx, ";"), strings.Join(destIdx, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("osrm table: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm table: unexpected status %d", resp.StatusCode)
	}

	var decoded struct {
		Durations [][]*float64 `json:"durations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	out := make([][]float64, len(decoded.Durations))
	for i, row := range decoded.Durations {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = -1
			} else {
				out[i][j] = *v
			}
		}
	}
	return out, nil
}
