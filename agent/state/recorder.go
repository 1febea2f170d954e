package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

// Recorder owns the observability side of remote calls: the call log, the raw
// result log, connectivity status and an optional durable audit sink. Nothing
// recorded here influences control flow.
type Recorder struct {
	calls   *Ring[contractx.ToolCallLogEntry]
	results *Ring[contractx.McpResultLogEntry]
	status  *ConnectionStatus

	auditMu     sync.Mutex
	audit       AuditSink
	auditQueue  chan auditJob
	auditDone   chan struct{}
	auditClosed bool
}

// AuditQueueSize bounds the entries waiting for the audit sink. Entries
// beyond it are dropped with a warning.
const AuditQueueSize = 256

type auditJob struct {
	ctx   context.Context
	entry contractx.ToolCallLogEntry
}

var defaultRecorder = NewRecorder()

// Default returns the process-wide recorder.
func Default() *Recorder {
	return defaultRecorder
}

func NewRecorder() *Recorder {
	return &Recorder{
		calls:   NewRing[contractx.ToolCallLogEntry](CallLogCapacity),
		results: NewRing[contractx.McpResultLogEntry](ResultLogCapacity),
		status:  &ConnectionStatus{},
	}
}

// WithAudit forwards every call entry to sink from one background worker,
// so a slow sink never delays a remote call. A nil sink disables forwarding.
// Call it once, before the recorder is shared.
func (r *Recorder) WithAudit(sink AuditSink) *Recorder {
	if sink == nil {
		return r
	}
	r.audit = sink
	r.auditQueue = make(chan auditJob, AuditQueueSize)
	r.auditDone = make(chan struct{})
	go r.forwardAudit()
	return r
}

func (r *Recorder) forwardAudit() {
	defer close(r.auditDone)
	for job := range r.auditQueue {
		if err := r.audit.RecordCall(job.ctx, job.entry); err != nil {
			log.Warn().Err(err).Str("tool", job.entry.Name).Msg("audit sink rejected tool call entry")
		}
	}
}

// Close waits for queued audit entries to be written. Later entries only
// reach the in-memory log.
func (r *Recorder) Close() {
	r.auditMu.Lock()
	if r.auditQueue == nil || r.auditClosed {
		r.auditMu.Unlock()
		return
	}
	r.auditClosed = true
	close(r.auditQueue)
	r.auditMu.Unlock()

	<-r.auditDone
}

func (r *Recorder) Status() *ConnectionStatus {
	return r.status
}

func (r *Recorder) Calls() []contractx.ToolCallLogEntry {
	return r.calls.Snapshot()
}

func (r *Recorder) Results() []contractx.McpResultLogEntry {
	return r.results.Snapshot()
}

func (r *Recorder) RecordCall(ctx context.Context, entry contractx.ToolCallLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	r.calls.Add(entry)

	r.auditMu.Lock()
	defer r.auditMu.Unlock()
	if r.auditQueue == nil || r.auditClosed {
		return
	}
	// The entry outlives the turn that produced it.
	select {
	case r.auditQueue <- auditJob{ctx: context.WithoutCancel(ctx), entry: entry}:
	default:
		log.Warn().Str("tool", entry.Name).Msg("audit queue full, dropping tool call entry")
	}
}

func (r *Recorder) RecordResult(toolName string, raw []byte) {
	r.results.Add(contractx.McpResultLogEntry{
		ToolName:      toolName,
		RawResultJSON: string(raw),
		Timestamp:     time.Now().UTC(),
	})
}
