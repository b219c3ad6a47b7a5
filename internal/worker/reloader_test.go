package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/internal/amqp"
	"ecomdash/internal/analytics"
	"ecomdash/internal/core"
	"ecomdash/internal/dataset"
)

func at(day int) time.Time {
	return time.Date(2018, 1, day, 12, 0, 0, 0, time.UTC)
}

type orderReader struct {
	calls  atomic.Int32
	orders []core.Order
	err    error
	gate   chan struct{}
}

func (r *orderReader) ReadOrders(context.Context) ([]core.Order, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	return r.orders, r.err
}

type snapshotReader struct {
	orderReader
	id string
}

func (r *snapshotReader) ReadSnapshot(ctx context.Context) (dataset.Snapshot, error) {
	orders, err := r.ReadOrders(ctx)
	return dataset.Snapshot{ID: r.id, Orders: orders}, err
}

func TestReloadFromPlainReader(t *testing.T) {
	reader := &orderReader{orders: []core.Order{
		{OrderID: "late", ApprovedAt: at(5)},
		{OrderID: "none"},
		{OrderID: "early", ApprovedAt: at(1)},
	}}
	var holder analytics.Holder
	r := NewReloader(reader, &holder)

	session, err := r.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, session, holder.Load())
	assert.NotEmpty(t, session.ID())
	assert.Equal(t, 3, session.Len())
	assert.Equal(t, "2018-01-01..2018-01-05", session.Bounds().String())
	assert.Equal(t, "early", session.All().Orders[0].OrderID)
	assert.Equal(t, "none", session.All().Orders[2].OrderID)
}

func TestReloadKeepsSnapshotID(t *testing.T) {
	reader := &snapshotReader{id: "snap-7", orderReader: orderReader{orders: []core.Order{{OrderID: "o", ApprovedAt: at(2)}}}}
	var holder analytics.Holder

	session, err := NewReloader(reader, &holder).Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snap-7", session.ID())
}

func TestReloadErrorKeepsPreviousSession(t *testing.T) {
	var holder analytics.Holder
	previous := analytics.NewSession("old", nil, time.Now())
	holder.Store(previous)

	r := NewReloader(&orderReader{err: errors.New("timeout")}, &holder)
	_, err := r.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, previous, holder.Load())
}

func TestConcurrentReloadsShareOneRead(t *testing.T) {
	reader := &orderReader{gate: make(chan struct{})}
	var holder analytics.Holder
	r := NewReloader(reader, &holder)

	var wg sync.WaitGroup
	sessions := make([]*analytics.Session, 5)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.Reload(context.Background())
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}

	require.Eventually(t, func() bool { return reader.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(reader.gate)
	wg.Wait()

	assert.Equal(t, int32(1), reader.calls.Load())
	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}

func TestHandleReloadMessage(t *testing.T) {
	reader := &snapshotReader{id: "snap-2"}
	var holder analytics.Holder
	r := NewReloader(reader, &holder)
	ctx := context.Background()

	require.NoError(t, r.HandleReloadMessage(ctx, &amqp.DatasetReloadMessage{SnapshotID: "snap-2"}))
	assert.Equal(t, int32(1), reader.calls.Load())
	assert.Equal(t, "snap-2", holder.Load().ID())

	require.NoError(t, r.HandleReloadMessage(ctx, &amqp.DatasetReloadMessage{SnapshotID: "snap-2"}))
	assert.Equal(t, int32(1), reader.calls.Load(), "same snapshot is not reloaded")

	require.NoError(t, r.HandleReloadMessage(ctx, &amqp.DatasetReloadMessage{SnapshotID: "snap-3"}))
	assert.Equal(t, int32(2), reader.calls.Load())
}

func TestHandleReloadMessageError(t *testing.T) {
	r := NewReloader(&orderReader{err: errors.New("down")}, &analytics.Holder{})
	err := r.HandleReloadMessage(context.Background(), &amqp.DatasetReloadMessage{SnapshotID: "x"})
	assert.ErrorContains(t, err, "reload for snapshot x")
}

func TestRunStopsWithContext(t *testing.T) {
	reader := &orderReader{}
	r := NewReloader(reader, &analytics.Holder{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return reader.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
