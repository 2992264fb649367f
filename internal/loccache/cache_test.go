package loccache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-location-service/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T) (*Cache, *store.MemoryStore, *clockwork.FakeClock) {
	t.Helper()
	s := store.NewMemoryStore()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC))
	return New(s, clock, discardLogger()), s, clock
}

func TestRead_NeverWritten(t *testing.T) {
	c, _, _ := newTestCache(t)
	_, ok := c.Read(context.Background())
	assert.False(t, ok)
}

func TestWriteThenRead(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Write(ctx, "Kampala"))

	entry, ok := c.Read(ctx)
	require.True(t, ok)
	assert.Equal(t, "Kampala", entry.Value)
	assert.True(t, entry.StoredAt.Equal(clock.Now()))
}

func TestWrite_Overwrites(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Write(ctx, "Kampala"))
	clock.Advance(time.Minute)
	require.NoError(t, c.Write(ctx, "Entebbe"))

	entry, ok := c.Read(ctx)
	require.True(t, ok)
	assert.Equal(t, "Entebbe", entry.Value)
	assert.True(t, entry.StoredAt.Equal(clock.Now()))
}

func TestIsFresh_TTLBoundary(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Write(ctx, "London"))
	entry, _ := c.Read(ctx)

	clock.Advance(9*time.Minute + 59*time.Second)
	assert.True(t, c.IsFresh(entry), "9m59s old entry is fresh")

	clock.Advance(time.Second)
	assert.False(t, c.IsFresh(entry), "entry at exactly the TTL is stale")

	clock.Advance(time.Minute)
	assert.False(t, c.IsFresh(entry), "11m old entry is stale")
}

func TestIsFresh_FutureTimestampIsStale(t *testing.T) {
	c, s, clock := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, Key, []byte(`{"value":"London","stored_at":"2024-04-26T12:05:00Z"}`)))

	entry, found, fresh := c.Fresh(ctx)
	assert.True(t, found)
	assert.False(t, fresh)
	assert.True(t, entry.StoredAt.After(clock.Now()))
}

func TestFresh_StaleEntryIsKept(t *testing.T) {
	c, s, clock := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Write(ctx, "London"))

	entry, found, fresh := c.Fresh(ctx)
	assert.True(t, found)
	assert.True(t, fresh)
	assert.Equal(t, "London", entry.Value)

	clock.Advance(11 * time.Minute)
	entry, found, fresh = c.Fresh(ctx)
	assert.True(t, found)
	assert.False(t, fresh)
	assert.Equal(t, "London", entry.Value)

	_, err := s.Load(ctx, Key)
	require.NoError(t, err, "stale entries are not evicted")
}

func TestRead_CorruptEntry(t *testing.T) {
	tests := map[string]string{
		"not json":      "{oops",
		"empty value":   `{"value":"","stored_at":"2024-04-26T12:00:00Z"}`,
		"missing stamp": `{"value":"Kampala"}`,
		"wrong type":    `{"value":42,"stored_at":"2024-04-26T12:00:00Z"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			c, s, _ := newTestCache(t)
			require.NoError(t, s.Save(context.Background(), Key, []byte(raw)))

			_, ok := c.Read(context.Background())
			assert.False(t, ok)
		})
	}
}

type failingStore struct{ store.Store }

func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestRead_StoreError(t *testing.T) {
	c := New(failingStore{}, clockwork.NewFakeClock(), discardLogger())
	_, ok := c.Read(context.Background())
	assert.False(t, ok)
}

func TestWrite_StoreError(t *testing.T) {
	c := New(failingStore{}, clockwork.NewFakeClock(), discardLogger())
	err := c.Write(context.Background(), "Kampala")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestClear(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Write(ctx, "Kampala"))
	require.NoError(t, c.Clear(ctx))

	_, ok := c.Read(ctx)
	assert.False(t, ok)
}
