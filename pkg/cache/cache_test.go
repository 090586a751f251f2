package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/pokegate/pkg/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, clock *fakeClock, opts ...Option[string]) *Cache[string] {
	t.Helper()
	opts = append([]Option[string]{
		WithClock[string](clock.Now),
		WithSweepInterval[string](0),
	}, opts...)
	c := New(opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLBoundary(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.SetWithTTL("k", "v", 10*time.Second)

	clock.Advance(10*time.Second - time.Nanosecond)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry must be live before its TTL elapses")

	clock.Advance(time.Nanosecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must be absent once its TTL has elapsed")
	assert.Equal(t, 0, c.Len(), "lazy expiry evicts the entry")
	assert.Equal(t, int64(1), c.Evictions())
}

func TestDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock, WithDefaultTTL[string](time.Minute))

	c.Set("k", "v")
	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestOverwriteResetsExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.SetWithTTL("k", "old", time.Minute)
	clock.Advance(50 * time.Second)
	c.SetWithTTL("k", "new", time.Minute)
	clock.Advance(50 * time.Second)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestDeleteExpired(t *testing.T) {
	clock := newFakeClock()
	var evicted []string
	c := newTestCache(t, clock, WithEvictCallback[string](func(key string, _ string) {
		evicted = append(evicted, key)
	}))

	c.SetWithTTL("short", "a", time.Minute)
	c.SetWithTTL("long", "b", time.Hour)
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, c.DeleteExpired())
	assert.Equal(t, []string{"short"}, evicted)
	assert.Equal(t, 1, c.Len())
}

func TestBackgroundSweep(t *testing.T) {
	c := New(
		WithSweepInterval[string](5*time.Millisecond),
		WithDefaultTTL[string](time.Millisecond),
	)
	defer c.Close()

	c.Set("k", "v")
	// the entry is never read, so only the sweep can remove it
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClear(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	c.SetWithTTL("a", "1", time.Minute)
	c.SetWithTTL("b", "2", time.Hour)
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, c.Clear(true))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Clear(false))
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](WithSweepInterval[int](time.Millisecond), WithDefaultTTL[int](time.Millisecond))
	defer c.Close()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, i)
				c.Get(key)
				if j%50 == 0 {
					c.Delete(key)
				}
			}
		}()
	}
	wg.Wait()
}

func TestCloseIdempotent(t *testing.T) {
	c := New[string]()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestKeyNormalization(t *testing.T) {
	assert.Equal(t, DetailsKey("Pikachu"), DetailsKey("pikachu"))
	assert.Equal(t, DetailsKey(" PIKACHU "), DetailsKey("pikachu"))
	assert.NotEqual(t, DetailsKey("pikachu"), DetailsKey("raichu"))

	a := InsightKey("Pikachu", models.LangEN, models.FormatMarkdown, "flash", false)
	b := InsightKey("pikachu", models.LangEN, models.FormatMarkdown, "FLASH", false)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, InsightKey("pikachu", models.LangPT, models.FormatMarkdown, "flash", false))
	assert.NotEqual(t, a, InsightKey("pikachu", models.LangEN, models.FormatMarkdown, "flash", true))
	assert.NotEqual(t, ListKey(20, 0), ListKey(20, 20))
}
