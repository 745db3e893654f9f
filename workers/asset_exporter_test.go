package workers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/camden-git/pressdesk/media"
	"github.com/camden-git/pressdesk/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExporter records the order of exports. When gate is set, every export
// waits for a value on it.
type fakeExporter struct {
	mu    sync.Mutex
	seen  []string
	gate  chan struct{}
	start chan string
}

func (f *fakeExporter) Export(req media.ExportRequest) media.ExportResult {
	if f.start != nil {
		f.start <- req.Asset.Identifier()
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.seen = append(f.seen, req.Asset.Identifier())
	f.mu.Unlock()
	return media.ExportResult{Success: true, Size: image.Pt(1, 1)}
}

func (f *fakeExporter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

type recordingHub struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (h *recordingHub) Broadcast(e realtime.Event) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func request(id string) media.ExportRequest {
	return media.ExportRequest{Asset: &media.BytesAsset{ID: id, Data: []byte{1}}}
}

func TestAssetExporter_SerialOrderAndExactlyOnce(t *testing.T) {
	fake := &fakeExporter{}
	ae := NewAssetExporter(fake, nil, 4)

	var mu sync.Mutex
	counts := map[string]int{}
	var order []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("asset-%02d", i)
		ae.Export(context.Background(), request(id), func(r media.ExportResult) {
			assert.True(t, r.Success)
			mu.Lock()
			counts[id]++
			order = append(order, id)
			mu.Unlock()
		})
	}
	ae.Stop()

	require.Len(t, order, 25)
	for i, id := range order {
		assert.Equal(t, fmt.Sprintf("asset-%02d", i), id)
		assert.Equal(t, 1, counts[id])
	}
	assert.Equal(t, order, fake.calls())
}

func TestAssetExporter_StopDrainsQueuedJobs(t *testing.T) {
	fake := &fakeExporter{gate: make(chan struct{}), start: make(chan string, 10)}
	ae := NewAssetExporter(fake, nil, 10)

	var wg sync.WaitGroup
	wg.Add(4)
	for i := 0; i < 4; i++ {
		ae.Export(context.Background(), request(fmt.Sprint(i)), func(media.ExportResult) { wg.Done() })
	}
	<-fake.start

	stopped := make(chan struct{})
	go func() {
		ae.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while jobs were still queued")
	case <-time.After(50 * time.Millisecond):
	}

	close(fake.gate)
	<-stopped
	wg.Wait()
	assert.Len(t, fake.calls(), 4)
}

func TestAssetExporter_AfterStop(t *testing.T) {
	fake := &fakeExporter{}
	ae := NewAssetExporter(fake, nil, 1)
	ae.Stop()
	ae.Stop()

	called := 0
	ae.Export(context.Background(), request("late"), func(r media.ExportResult) {
		called++
		assert.False(t, r.Success)
		assert.ErrorIs(t, r.Err, ErrExporterStopped)
	})
	assert.Equal(t, 1, called)
	assert.Empty(t, fake.calls())
}

func TestAssetExporter_CancelledContext(t *testing.T) {
	fake := &fakeExporter{}
	ae := NewAssetExporter(fake, nil, 1)
	defer ae.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := ae.ExportAndWait(ctx, request("x"))
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, fake.calls())
}

func TestAssetExporter_CancelledWhileQueued(t *testing.T) {
	fake := &fakeExporter{gate: make(chan struct{}), start: make(chan string, 2)}
	ae := NewAssetExporter(fake, nil, 2)

	ae.Export(context.Background(), request("first"), nil)
	<-fake.start

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan media.ExportResult, 1)
	ae.Export(ctx, request("second"), func(r media.ExportResult) { results <- r })
	cancel()

	close(fake.gate)
	ae.Stop()

	res := <-results
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, []string{"first"}, fake.calls())
}

func TestAssetExporter_InstancesAreIndependent(t *testing.T) {
	blocked := &fakeExporter{gate: make(chan struct{}), start: make(chan string, 1)}
	free := &fakeExporter{}
	a := NewAssetExporter(blocked, nil, 1)
	b := NewAssetExporter(free, nil, 1)

	a.Export(context.Background(), request("stuck"), nil)
	<-blocked.start

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res := b.ExportAndWait(ctx, request("quick"))
	assert.True(t, res.Success)

	close(blocked.gate)
	a.Stop()
	b.Stop()
}

func TestAssetExporter_BroadcastsCompletion(t *testing.T) {
	hub := &recordingHub{}
	proc, err := media.NewLocalStorage(t.TempDir(), nil)
	require.NoError(t, err)
	ae := NewAssetExporter(media.NewProcessor(proc, 32), hub, 2)

	res := ae.ExportAndWait(context.Background(), media.ExportRequest{Asset: &media.BytesAsset{ID: "gone"}})
	ae.Stop()

	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, media.ErrMissingAsset))

	require.Len(t, hub.events, 1)
	ev := hub.events[0]
	assert.Equal(t, realtime.EventExportFailed, ev.Type)
	assert.Equal(t, "gone", ev.Subject)
	assert.Equal(t, string(media.CodeMissingAsset), ev.Code)
}
