package routerclient

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// cacheKey is the 5-decimal-rounded coordinate pair a cache entry is keyed
// by, matching the wire format `lat1,lon1|lat2,lon2`.
type cacheKey struct {
	aLat, aLon, bLat, bLon float64
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

func newCacheKey(aLat, aLon, bLat, bLon float64) cacheKey {
	return cacheKey{round5(aLat), round5(aLon), round5(bLat), round5(bLon)}
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", k.aLat, k.aLon, k.bLat, k.bLon)
}

func parseCacheLine(line string) (cacheKey, int, bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return cacheKey{}, 0, false
	}
	coordParts := strings.SplitN(parts[0], "|", 2)
	if len(coordParts) != 2 {
		return cacheKey{}, 0, false
	}
	a := strings.SplitN(coordParts[0], ",", 2)
	b := strings.SplitN(coordParts[1], ",", 2)
	if len(a) != 2 || len(b) != 2 {
		return cacheKey{}, 0, false
	}
	aLat, err1 := strconv.ParseFloat(a[0], 64)
	aLon, err2 := strconv.ParseFloat(a[1], 64)
	bLat, err3 := strconv.ParseFloat(b[0], 64)
	bLon, err4 := strconv.ParseFloat(b[1], 64)
	minutes, err5 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return cacheKey{}, 0, false
	}
	return cacheKey{aLat, aLon, bLat, bLon}, minutes, true
}

// diskCache is the persistent, key-addressable travel-time cache described
// in spec §4.A / §6. Reads take a shared read lock on the in-memory map, so
// readers never block each other but do wait while a Put applies its
// write; they are not lock-free. Disk writes
// funnel through a single background goroutine that batches mutations and
// flushes at most once per 500ms of contiguous activity, plus once more on
// Close.
type diskCache struct {
	path string
	log  *logrus.Entry

	mu   sync.RWMutex
	data map[cacheKey]int // current, readable snapshot

	pending chan cacheEntry
	done    chan struct{}
	wg      sync.WaitGroup

	hits atomic.Int64
}

type cacheEntry struct {
	key     cacheKey
	minutes int
}

// newDiskCache loads path (if non-empty and it exists) and starts the
// single writer goroutine. The core never creates directories; path's
// parent must already exist if a cache file is to be written.
func newDiskCache(path string, log *logrus.Entry) *diskCache {
	c := &diskCache{
		path:    path,
		log:     log,
		data:    make(map[cacheKey]int),
		pending: make(chan cacheEntry, 1024),
		done:    make(chan struct{}),
	}
	c.load()
	c.wg.Add(1)
	go c.writer()
	return c
}

func (c *diskCache) load() {
	if c.path == "" {
		return
	}
	f, err := os.Open(c.path)
	if err != nil {
		return // no pre-existing cache; not an error
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, minutes, ok := parseCacheLine(scanner.Text())
		if !ok {
			continue
		}
		c.data[key] = minutes
	}
}

// Get returns the cached minutes for (a, b) and whether it was present.
func (c *diskCache) Get(aLat, aLon, bLat, bLon float64) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[newCacheKey(aLat, aLon, bLat, bLon)]
	if ok {
		c.hits.Add(1)
	}
	return v, ok
}

// Put queues a write. It is never blocking for longer than it takes to
// apply to the in-memory snapshot; the disk flush happens asynchronously.
func (c *diskCache) Put(aLat, aLon, bLat, bLon float64, minutes int) {
	key := newCacheKey(aLat, aLon, bLat, bLon)
	c.mu.Lock()
	c.data[key] = minutes
	c.mu.Unlock()
	select {
	case c.pending <- cacheEntry{key: key, minutes: minutes}:
	case <-c.done:
	}
}

// writer is the single dedicated task that serializes flush-to-disk.
func (c *diskCache) writer() {
	defer c.wg.Done()
	var dirty bool
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case _, ok := <-c.pending:
			if !ok {
				return
			}
			if !dirty {
				dirty = true
				timer.Reset(500 * time.Millisecond)
			}
		case <-timer.C:
			if dirty {
				c.flush()
				dirty = false
			}
		case <-c.done:
			// A Put may have queued an entry the loop has not received yet;
			// its value is already in c.data, so flush for it too.
			if dirty || len(c.pending) > 0 {
				c.flush()
			}
			return
		}
	}
}

// flush rewrites the cache file via atomic tempfile-rename.
func (c *diskCache) flush() {
	if c.path == "" {
		return
	}
	c.mu.RLock()
	snapshot := make(map[cacheKey]int, len(c.data))
	for k, v := range c.data {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).Warn("router cache flush: create tempfile failed")
		}
		return
	}
	w := bufio.NewWriter(tmp)
	for k, v := range snapshot {
		fmt.Fprintf(w, "%s=%d\n", k.String(), v)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return
	}
	tmp.Close()
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		if c.log != nil {
			c.log.WithError(err).Warn("router cache flush: rename failed")
		}
	}
}

// HitCount returns the number of successful Get lookups so far.
func (c *diskCache) HitCount() int64 { return c.hits.Load() }

// Close flushes any pending writes and stops the writer goroutine.
func (c *diskCache) Close() {
	close(c.done)
	c.wg.Wait()
}
