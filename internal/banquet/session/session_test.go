package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
)

type countingBackend struct {
	*MemoryBackend
	mu     sync.Mutex
	writes int
}

func (c *countingBackend) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.MemoryBackend.Set(ctx, key, value)
}

func (c *countingBackend) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type failingBackend struct{}

var errUnavailable = errors.New("quota exceeded")

func (failingBackend) Set(context.Context, string, []byte) error   { return errUnavailable }
func (failingBackend) Get(context.Context, string) ([]byte, error) { return nil, errUnavailable }
func (failingBackend) Del(context.Context, string) error           { return errUnavailable }

func newRedisPort(t *testing.T) (*Port, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPort(NewRedisBackend(client, time.Hour), "desk-1", nil), mr
}

func TestDraftRoundTripThroughRedis(t *testing.T) {
	ctx := context.Background()
	port, mr := newRedisPort(t)

	st := draft.State{
		Booking:      draft.Booking{AttendedBy: "Ravi", Items: []draft.Item{{Name: "Hall", Quantity: "1", Rate: "5000"}}},
		CurrentIndex: draft.NewItemIndex,
	}
	port.SaveDraft(ctx, st)
	require.True(t, mr.Exists("banquet:desk-1:draft"))
	assert.Greater(t, mr.TTL("banquet:desk-1:draft"), time.Duration(0))

	snap, ok := port.LoadDraft(ctx)
	require.True(t, ok)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, st, snap.Draft)
	assert.False(t, snap.SavedAt.IsZero())
}

func TestLoadMissingDraft(t *testing.T) {
	port, _ := newRedisPort(t)
	_, ok := port.LoadDraft(context.Background())
	assert.False(t, ok)
	assert.Equal(t, EditMarker{}, port.LoadEdit(context.Background()))
}

func TestClearDraftKeepsEditMarkersAndReceiptsWhileEditing(t *testing.T) {
	ctx := context.Background()
	port := NewPort(NewMemoryBackend(), "desk-2", nil)

	port.SaveDraft(ctx, draft.State{CurrentIndex: draft.NewItemIndex})
	port.SaveEdit(ctx, EditMarker{IsEditMode: true, QuotationID: "Q7", InvoiceID: "B3"})
	port.SaveReceipts(ctx, "Q7", []draft.Receipt{{VoucherID: "V1", Amount: 1000}})

	port.ClearDraft(ctx, "Q7", true)

	_, ok := port.LoadDraft(ctx)
	assert.False(t, ok)
	assert.Equal(t, EditMarker{IsEditMode: true, QuotationID: "Q7", InvoiceID: "B3"}, port.LoadEdit(ctx))
	rs, ok := port.LoadReceipts(ctx, "Q7")
	require.True(t, ok)
	assert.Len(t, rs, 1)

	port.ClearDraft(ctx, "Q7", false)
	_, ok = port.LoadReceipts(ctx, "Q7")
	assert.False(t, ok)
	assert.True(t, port.LoadEdit(ctx).IsEditMode, "markers outlive clears")

	port.ClearEdit(ctx)
	assert.False(t, port.LoadEdit(ctx).IsEditMode)
}

func TestFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	port := NewPort(failingBackend{}, "desk-3", nil)

	assert.NotPanics(t, func() {
		port.SaveDraft(ctx, draft.State{})
		port.SaveEdit(ctx, EditMarker{IsEditMode: true})
		port.ClearDraft(ctx, "Q1", false)
	})
	_, ok := port.LoadDraft(ctx)
	assert.False(t, ok)
	_, ok = port.LoadReceipts(ctx, "Q1")
	assert.False(t, ok)
}

func TestLoadIgnoresCorruptAndForeignSnapshots(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	port := NewPort(backend, "desk-4", nil)

	require.NoError(t, backend.Set(ctx, port.DraftKey(), []byte("{not json")))
	_, ok := port.LoadDraft(ctx)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, port.DraftKey(), []byte(`{"version":99}`)))
	_, ok = port.LoadDraft(ctx)
	assert.False(t, ok)
}

func TestMirrorDebouncesWrites(t *testing.T) {
	backend := &countingBackend{MemoryBackend: NewMemoryBackend()}
	port := NewPort(backend, "desk-5", nil)
	mirror := NewMirror(port, 20*time.Millisecond)
	store := draft.NewStore()
	store.Subscribe(mirror.Observe)

	for _, name := range []string{"R", "Ra", "Rav", "Ravi"} {
		store.Update(func(b *draft.Booking) { b.AttendedBy = name })
	}
	require.Eventually(t, func() bool { return backend.Writes() == 1 }, time.Second, 5*time.Millisecond)

	snap, ok := port.LoadDraft(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Ravi", snap.Draft.Booking.AttendedBy)

	store.Update(func(b *draft.Booking) { b.AttendedBy = "Ravi" })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, backend.Writes(), "no-op patch never writes")
	assert.False(t, mirror.Pending())
}

func TestMirrorFlushDiscardClose(t *testing.T) {
	backend := &countingBackend{MemoryBackend: NewMemoryBackend()}
	port := NewPort(backend, "desk-6", nil)
	mirror := NewMirror(port, time.Hour)

	mirror.Observe(draft.State{Booking: draft.Booking{StatusID: "1"}})
	mirror.Flush()
	assert.Equal(t, 1, backend.Writes())

	mirror.Observe(draft.State{Booking: draft.Booking{StatusID: "2"}})
	mirror.Discard()
	mirror.Flush()
	assert.Equal(t, 1, backend.Writes())

	mirror.Observe(draft.State{Booking: draft.Booking{StatusID: "3"}})
	mirror.Close()
	assert.Equal(t, 2, backend.Writes())
	mirror.Observe(draft.State{})
	assert.False(t, mirror.Pending())
}

type slowBackend struct {
	*MemoryBackend
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (s *slowBackend) Set(ctx context.Context, key string, value []byte) error {
	s.once.Do(func() { close(s.started) })
	time.Sleep(s.delay)
	return s.MemoryBackend.Set(ctx, key, value)
}

func TestDiscardWaitsForWriteInFlight(t *testing.T) {
	ctx := context.Background()
	backend := &slowBackend{MemoryBackend: NewMemoryBackend(), delay: 80 * time.Millisecond, started: make(chan struct{})}
	port := NewPort(backend, "desk-7", nil)
	mirror := NewMirror(port, 10*time.Millisecond)

	mirror.Observe(draft.State{Booking: draft.Booking{AttendedBy: "old"}})
	select {
	case <-backend.started:
	case <-time.After(time.Second):
		t.Fatal("debounced write never started")
	}

	mirror.Discard()
	port.ClearDraft(ctx, "", false)

	_, ok := port.LoadDraft(ctx)
	assert.False(t, ok)
	time.Sleep(100 * time.Millisecond)
	_, ok = port.LoadDraft(ctx)
	assert.False(t, ok, "a cleared draft stays cleared")
}

func TestMirrorDropsOlderSnapshots(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{MemoryBackend: NewMemoryBackend()}
	port := NewPort(backend, "desk-8", nil)
	mirror := NewMirror(port, time.Hour)

	mirror.write(observed{state: draft.State{Booking: draft.Booking{AttendedBy: "new"}}, seq: 2})
	mirror.write(observed{state: draft.State{Booking: draft.Booking{AttendedBy: "old"}}, seq: 1})

	assert.Equal(t, 1, backend.Writes())
	snap, ok := port.LoadDraft(ctx)
	require.True(t, ok)
	assert.Equal(t, "new", snap.Draft.Booking.AttendedBy)
}
