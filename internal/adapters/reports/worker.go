// Package reports renders operational reports (inventory status, harvest
// yield) asynchronously and stores the artifacts in a blob store.
package reports

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"mycocore/internal/blob"
	"mycocore/internal/core"
)

// Format identifies an artifact serialization.
type Format string

// Supported artifact formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Kind identifies a report template.
type Kind string

// Built-in report kinds.
const (
	KindInventoryStatus Kind = "inventory_status"
	KindHarvestYield    Kind = "harvest_yield"
)

// Status describes the lifecycle stage of a report request.
type Status string

// Report request statuses.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures one stored report artifact.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks a report request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Request is an enqueue request for the worker.
type Request struct {
	Kind        Kind
	Formats     []Format
	RequestedBy string
	Reason      string
}

// Worker renders reports asynchronously from a bounded queue.
type Worker struct {
	service *core.Service
	blobs   blob.Store
	audit   core.AuditRecorder
	logger  core.Logger

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option customizes worker construction.
type Option func(*Worker)

// WithAuditRecorder attaches an audit recorder to the worker.
func WithAuditRecorder(audit core.AuditRecorder) Option {
	return func(w *Worker) {
		if audit != nil {
			w.audit = audit
		}
	}
}

// WithLogger attaches a logger to the worker.
func WithLogger(logger core.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker constructs a report worker over the given service and blob store.
func NewWorker(service *core.Service, blobs blob.Store, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		service: service,
		blobs:   blobs,
		audit:   noopAudit{},
		logger:  noopLogger{},
		queue:   make(chan string, 32),
		jobs:    make(map[string]*Record),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, core.AuditEntry) {}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Start begins processing report requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion or ctx expiry.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue schedules a report and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, req Request) (Record, error) {
	switch req.Kind {
	case KindInventoryStatus, KindHarvestYield:
	default:
		return Record{}, fmt.Errorf("unknown report kind %q", req.Kind)
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	seen := make(map[Format]struct{}, len(formats))
	uniq := make([]Format, 0, len(formats))
	for _, f := range formats {
		switch f {
		case FormatJSON, FormatCSV:
		default:
			return Record{}, fmt.Errorf("unsupported report format %q", f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		uniq = append(uniq, f)
	}

	now := time.Now().UTC()
	record := Record{
		ID:          newID(),
		Kind:        req.Kind,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Snapshot before the channel send: once the id is queued the worker
	// goroutine mutates the stored record through its pointer.
	w.mu.Lock()
	w.jobs[record.ID] = &record
	queued := record.snapshot()
	w.mu.Unlock()

	w.audit.Record(ctx, core.AuditEntry{
		Operation:  "report_requested",
		EntityID:   queued.ID,
		Status:     core.AuditStatusSuccess,
		OccurredAt: now,
	})

	select {
	case w.queue <- queued.ID:
	case <-w.ctx.Done():
		return Record{}, w.ctx.Err()
	}
	return queued, nil
}

// snapshot returns a detached copy of the record. Callers must hold w.mu
// when the record is shared with the worker goroutine.
func (r *Record) snapshot() Record {
	cp := *r
	cp.Formats = append([]Format(nil), r.Formats...)
	cp.Artifacts = append([]Artifact(nil), r.Artifacts...)
	return cp
}

// Get returns the current state of a report request.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.snapshot(), true
}

func (w *Worker) process(id string) {
	w.mu.Lock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	record.Status = StatusRunning
	record.UpdatedAt = time.Now().UTC()
	kind := record.Kind
	formats := append([]Format(nil), record.Formats...)
	w.mu.Unlock()

	table, err := w.build(kind)
	var artifacts []Artifact
	if err == nil {
		artifacts, err = w.storeArtifacts(id, kind, formats, table)
	}

	now := time.Now().UTC()
	w.mu.Lock()
	record.UpdatedAt = now
	record.CompletedAt = &now
	if err != nil {
		record.Status = StatusFailed
		record.Error = err.Error()
	} else {
		record.Status = StatusSucceeded
		record.Artifacts = artifacts
	}
	status := record.Status
	w.mu.Unlock()

	op := "report_completed"
	auditStatus := core.AuditStatusSuccess
	var errMsg string
	if status == StatusFailed {
		op = "report_failed"
		auditStatus = core.AuditStatusError
		errMsg = err.Error()
		w.logger.Error("report failed", "id", id, "kind", string(kind), "error", err)
	} else {
		w.logger.Info("report completed", "id", id, "kind", string(kind), "artifacts", len(artifacts))
	}
	w.audit.Record(w.ctx, core.AuditEntry{
		Operation:  op,
		EntityID:   id,
		Status:     auditStatus,
		OccurredAt: now,
		Error:      errMsg,
	})
}

func (w *Worker) build(kind Kind) (table, error) {
	switch kind {
	case KindInventoryStatus:
		return w.inventoryStatus(), nil
	case KindHarvestYield:
		return w.harvestYield(), nil
	default:
		return table{}, fmt.Errorf("unknown report kind %q", kind)
	}
}

func (w *Worker) storeArtifacts(id string, kind Kind, formats []Format, t table) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		var payload []byte
		var contentType string
		var err error
		switch format {
		case FormatJSON:
			payload, err = t.renderJSON()
			contentType = "application/json"
		case FormatCSV:
			payload, err = t.renderCSV()
			contentType = "text/csv"
		}
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("reports/%s/%s.%s", id, kind, format)
		info, err := w.blobs.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: contentType})
		if err != nil {
			return nil, fmt.Errorf("store %s artifact: %w", format, err)
		}
		artifacts = append(artifacts, Artifact{
			Key:         info.Key,
			Format:      format,
			ContentType: contentType,
			SizeBytes:   info.Size,
			URL:         info.URL,
			CreatedAt:   info.LastModified,
		})
	}
	return artifacts, nil
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
