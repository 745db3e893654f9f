package workers

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/camden-git/pressdesk/media"
	"github.com/camden-git/pressdesk/realtime"
)

// ErrExporterStopped is reported to callbacks of requests made after Stop.
var ErrExporterStopped = errors.New("asset exporter stopped")

// Exporter performs a single export. *media.Processor satisfies it.
type Exporter interface {
	Export(req media.ExportRequest) media.ExportResult
}

// Broadcaster receives a completion event per finished job.
type Broadcaster interface {
	Broadcast(event realtime.Event)
}

type ExportCallback func(result media.ExportResult)

type ExportJob struct {
	Ctx      context.Context
	Request  media.ExportRequest
	Callback ExportCallback
}

// AssetExporter runs exports one at a time, in submission order, on a single
// worker goroutine.
type AssetExporter struct {
	JobQueue chan ExportJob
	exporter Exporter
	events   Broadcaster
	Wg       sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewAssetExporter(exporter Exporter, events Broadcaster, queueSize int) *AssetExporter {
	if queueSize <= 0 {
		queueSize = 100
	}
	ae := &AssetExporter{
		JobQueue: make(chan ExportJob, queueSize),
		exporter: exporter,
		events:   events,
	}
	ae.Wg.Add(1)
	go ae.worker()
	log.Printf("Started asset export worker with queue size %d", queueSize)
	return ae
}

func (ae *AssetExporter) worker() {
	defer ae.Wg.Done()
	log.Printf("Export worker started")
	for job := range ae.JobQueue {
		result := ae.run(job)
		job.Callback(result)
		ae.publish(job.Request, result)
	}
	log.Printf("Export worker stopping: Job queue closed")
}

func (ae *AssetExporter) run(job ExportJob) media.ExportResult {
	if err := job.Ctx.Err(); err != nil {
		log.Printf("Export worker: Skipping cancelled export of %s", identifier(job.Request))
		return media.ExportResult{Err: err}
	}
	result := ae.exporter.Export(job.Request)
	if result.Err != nil {
		log.Printf("Export worker: ERROR exporting %s: %v", identifier(job.Request), result.Err)
	}
	return result
}

func (ae *AssetExporter) publish(req media.ExportRequest, result media.ExportResult) {
	if ae.events == nil {
		return
	}
	event := realtime.Event{
		Type:    realtime.EventExportCompleted,
		Subject: identifier(req),
		Status:  "success",
		Extra:   map[string]any{"width": result.Size.X, "height": result.Size.Y},
	}
	if !result.Success {
		event.Type = realtime.EventExportFailed
		event.Status = "failed"
		event.Code = string(media.CodeOf(result.Err))
		if result.Err != nil {
			event.Error = result.Err.Error()
		}
		event.Extra = nil
	}
	ae.events.Broadcast(event)
}

// Export queues req. callback is called exactly once: on the worker goroutine
// once the export has run, or right away when ctx is already done or the
// exporter has been stopped. Export blocks while the queue is full.
func (ae *AssetExporter) Export(ctx context.Context, req media.ExportRequest, callback ExportCallback) {
	if callback == nil {
		callback = func(media.ExportResult) {}
	}
	if err := ctx.Err(); err != nil {
		callback(media.ExportResult{Err: err})
		return
	}

	ae.mu.RLock()
	if ae.stopped {
		ae.mu.RUnlock()
		callback(media.ExportResult{Err: ErrExporterStopped})
		return
	}
	select {
	case ae.JobQueue <- ExportJob{Ctx: ctx, Request: req, Callback: callback}:
		ae.mu.RUnlock()
		log.Printf("Queued export for: %s", identifier(req))
	case <-ctx.Done():
		ae.mu.RUnlock()
		callback(media.ExportResult{Err: ctx.Err()})
	}
}

// ExportAndWait queues req and blocks until its result is available or ctx is
// done. A job already queued when ctx ends still runs.
func (ae *AssetExporter) ExportAndWait(ctx context.Context, req media.ExportRequest) media.ExportResult {
	done := make(chan media.ExportResult, 1)
	ae.Export(ctx, req, func(result media.ExportResult) {
		done <- result
	})
	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		return media.ExportResult{Err: ctx.Err()}
	}
}

// Stop refuses new requests, lets queued ones finish and waits for the worker.
func (ae *AssetExporter) Stop() {
	ae.mu.Lock()
	if ae.stopped {
		ae.mu.Unlock()
		ae.Wg.Wait()
		return
	}
	ae.stopped = true
	close(ae.JobQueue)
	ae.mu.Unlock()

	log.Println("Stopping asset export worker...")
	ae.Wg.Wait()
	log.Println("Asset export worker stopped")
}

func identifier(req media.ExportRequest) string {
	if req.Asset == nil {
		return "<nil>"
	}
	return req.Asset.Identifier()
}
