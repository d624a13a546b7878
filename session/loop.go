// Package session implements the Session Loop state machine, the Error
// Router and the Asset Change Tracker. It is the part of this client that
// owns SessionState and SequenceRange and is the only thing allowed to
// mutate them: every field below is confined to the goroutine running
// Run, except streamCancel and cancel, which Stop touches under mu.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/config"
	"github.com/mtconnect-go/client/events"
	"github.com/mtconnect-go/client/logging"
	"github.com/mtconnect-go/client/metrics"
	"github.com/mtconnect-go/client/mtcerr"
	"github.com/mtconnect-go/client/sequence"
	"github.com/mtconnect-go/client/transport"
)

// assetFetchDebounce bounds how often a detached asset fetch may start,
// independent of the sample polling interval, so a streams document or
// chunk carrying several distinct AssetChanged values in quick succession
// cannot spawn a pile of concurrent fetches against the agent.
const assetFetchDebounce = 50 * time.Millisecond

// Transport is the set of Request Drivers the Session Loop depends on. It
// is satisfied by *transport.Drivers; tests substitute a fake.
type Transport interface {
	Probe(ctx context.Context) (*agent.DevicesDocument, *mtcerr.Failure)
	Current(ctx context.Context) (*agent.StreamsDocument, *mtcerr.Failure)
	Assets(ctx context.Context) (*agent.AssetsDocument, *mtcerr.Failure)
	Stream(ctx context.Context, from, count int64, intervalMS int, onChunk func(payload []byte) error) *mtcerr.Failure
	ParseStreamsChunk(payload []byte) (*agent.StreamsDocument, *agent.ErrorDocument, transport.ParseOutcome)
}

// Loop drives the Probe -> CurrentFetch -> Streaming -> Backoff cycle.
// Construct with New and launch Run in its own goroutine; Stop requests
// cooperative cancellation.
type Loop struct {
	Config    *config.Config
	Transport Transport
	Events    *events.Registry
	Logger    *logging.Logger

	mu           sync.Mutex
	cancel       context.CancelFunc
	streamCancel context.CancelFunc

	ctx context.Context // set once at Run entry; read by detached asset-fetch tasks

	// Session-loop-confined state (SessionState + SequenceRange). Touched
	// only from the Run goroutine and the chunk handler it calls directly,
	// never concurrently.
	seqRange           sequence.Range
	lastInstanceID     int64
	initialize         bool
	lastChangedAssetID string
	pendingBackoff     stateID
	everStreamed       bool
	reconnectAttempts  int
	reconnectStart     time.Time

	// assetFetchLimiter paces detached asset fetches: a streams document
	// can carry several distinct AssetChanged values, and without a gate
	// each would spawn its own concurrent fetch against the agent.
	assetFetchLimiter *rate.Limiter

	done chan struct{}
}

// New constructs a Loop. cfg, tr, ev and logger must all be non-nil.
func New(cfg *config.Config, tr Transport, ev *events.Registry, logger *logging.Logger) *Loop {
	return &Loop{
		Config:            cfg,
		Transport:         tr,
		Events:            ev,
		Logger:            logger,
		lastInstanceID:    -1,
		assetFetchLimiter: rate.NewLimiter(rate.Every(assetFetchDebounce), 1),
		done:              make(chan struct{}),
	}
}

// Done returns a channel closed once Run has fully exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Stop requests cooperative cancellation: it stops the active sample
// stream synchronously, then signals the shared cancellation handle. It
// is safe to call before Run or more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.streamCancel != nil {
		l.streamCancel()
	}
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run executes the Session Loop until ctx is cancelled or Stop is called.
// It blocks; callers launch it with `go loop.Run(ctx)`.
func (l *Loop) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	l.ctx = runCtx

	defer func() {
		cancel()
		l.Events.PublishStopped()
		close(l.done)
	}()

	correlationID := uuid.NewString()
	l.Events.PublishStarted()

	state := stateProbing
	metrics.SetSessionState(int(state))

	for state != stateStopped {
		if runCtx.Err() != nil {
			if l.reconnectAttempts > 0 {
				l.Logger.LogReconnectFailed(correlationID, "session stopped while reconnecting", l.reconnectAttempts)
			}
			state = stateStopped
			break
		}

		var next stateID
		switch state {
		case stateProbing:
			next = l.stepProbing(runCtx, correlationID)
		case stateCurrentFetch:
			next = l.stepCurrentFetch(runCtx, correlationID)
		case stateStreaming:
			next = l.stepStreaming(runCtx, correlationID)
		case stateBackoff:
			next = l.stepBackoff(runCtx, l.pendingBackoff)
		default:
			next = stateStopped
		}

		if next != state {
			l.Logger.LogStateTransition(correlationID, state.String(), next.String())
		}
		state = next
		metrics.SetSessionState(int(state))
	}
}

func (l *Loop) stepProbing(ctx context.Context, correlationID string) stateID {
	doc, failure := l.Transport.Probe(ctx)
	if failure != nil {
		l.routeFailure(failure)
		l.pendingBackoff = stateProbing
		return stateBackoff
	}

	l.Events.PublishProbeReceived(doc)
	l.initialize = true
	l.everStreamed = false
	return stateCurrentFetch
}

func (l *Loop) stepCurrentFetch(ctx context.Context, correlationID string) stateID {
	doc, failure := l.Transport.Current(ctx)
	if failure != nil {
		l.routeFailure(failure)
		l.pendingBackoff = stateCurrentFetch
		return stateBackoff
	}

	h := doc.Header

	// Step 1: recompute initialize if it had been cleared by a prior cycle.
	if !l.initialize {
		l.initialize = l.seqRange.From > 0 && h.FirstSequence > l.seqRange.From
	}

	// Step 2: publish CurrentReceived and feed the Asset Change Tracker
	// only on a (re-)initializing pass.
	if l.initialize {
		l.Events.PublishCurrentReceived(doc)
		l.trackAssetChanges(doc, correlationID)
	}

	// Step 3: reset the window on initialize or instance change; re-enter
	// Probing if this is an instance change on an already-seen session.
	priorInstanceID := l.lastInstanceID
	instanceChanged := h.InstanceID != priorInstanceID

	if l.initialize || instanceChanged {
		l.seqRange.Reset()
		l.lastInstanceID = h.InstanceID
	}

	if instanceChanged && priorInstanceID != -1 {
		metrics.RecordInstanceChange()
		l.Logger.LogInstanceChanged(correlationID, priorInstanceID, h.InstanceID)
		return stateProbing
	}

	// Steps 4-6: compute and write the sample window.
	var from, to int64
	if l.initialize {
		from = h.NextSequence
		to = from
	} else {
		candidate := maxInt64(h.FirstSequence, h.LastSequence-(h.BufferSize-100))
		from = maxInt64(l.seqRange.From, candidate)
		to = minInt64(h.NextSequence, from+int64(l.Config.MaxSampleCount))
	}
	l.seqRange.Load(from, to)
	l.initialize = false
	metrics.SetSampleWindow(l.seqRange.From, l.seqRange.To)

	// Step 7: enter Streaming.
	return stateStreaming
}

func (l *Loop) stepStreaming(ctx context.Context, correlationID string) stateID {
	if l.everStreamed {
		if l.reconnectAttempts == 0 {
			l.reconnectStart = time.Now()
		}
		l.reconnectAttempts++
		metrics.RecordReconnection()
		l.Logger.LogReconnectAttempt(correlationID, l.reconnectAttempts, l.Config.RetryInterval())
	}
	l.everStreamed = true

	streamCtx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.streamCancel = cancel
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.streamCancel = nil
		l.mu.Unlock()
		cancel()
	}()

	from := l.seqRange.From
	count := int64(l.Config.MaxSampleCount)
	intervalMS := l.Config.IntervalMS

	failure := l.Transport.Stream(streamCtx, from, count, intervalMS, func(payload []byte) error {
		l.handleSampleChunk(payload, correlationID)
		return nil
	})

	l.routeFailure(failure)
	l.pendingBackoff = stateCurrentFetch
	return stateBackoff
}

func (l *Loop) stepBackoff(ctx context.Context, target stateID) stateID {
	timer := time.NewTimer(l.Config.RetryInterval())
	defer timer.Stop()

	select {
	case <-timer.C:
		return target
	case <-ctx.Done():
		return stateStopped
	}
}

// handleSampleChunk implements the Streaming state's per-chunk logic:
// parse, route, and on success advance SequenceRange.From by the item
// count and set SequenceRange.To to the agent's next_sequence.
func (l *Loop) handleSampleChunk(payload []byte, correlationID string) {
	doc, errDoc, outcome := l.Transport.ParseStreamsChunk(payload)
	switch outcome {
	case transport.ParsedDocument:
		if l.reconnectAttempts > 0 {
			l.Logger.LogReconnectSuccess(correlationID, time.Since(l.reconnectStart))
			l.reconnectAttempts = 0
		}
		l.trackAssetChanges(doc, correlationID)
		l.seqRange.Advance(doc.ItemCount(), doc.Header.NextSequence)
		metrics.SetSampleWindow(l.seqRange.From, l.seqRange.To)
		l.Events.PublishSampleReceived(doc)
	case transport.ParsedProtocolError:
		l.Events.PublishError(errDoc)
	default:
		l.Events.PublishXMLError(payload)
	}
}

// routeFailure implements the Error Router.
func (l *Loop) routeFailure(f *mtcerr.Failure) {
	if f == nil {
		return
	}
	switch f.Kind {
	case mtcerr.Connection:
		l.Events.PublishConnectionError(f)
	case mtcerr.Protocol:
		l.Events.PublishError(f.Doc)
	case mtcerr.Transport:
		l.Events.PublishXMLError(f.Payload)
	}
}

// trackAssetChanges implements the Asset Change Tracker: scan the selected
// device's DataItems for AssetChanged entries and trigger one detached
// Asset fetch per newly observed, available value.
func (l *Loop) trackAssetChanges(doc *agent.StreamsDocument, correlationID string) {
	ds, ok := doc.SelectDevice(l.Config.DeviceName)
	if !ok {
		return
	}
	for _, item := range ds.DataItems {
		if item.Type != agent.AssetChangedType {
			continue
		}
		if item.Value == agent.UnavailableValue || item.Value == l.lastChangedAssetID {
			continue
		}
		l.lastChangedAssetID = item.Value
		l.Logger.LogAssetFetchTriggered(correlationID, item.Value)
		l.triggerAssetFetch(correlationID)
	}
}

// triggerAssetFetch runs an Asset fetch as a detached task. It never blocks
// the Session Loop; its result (success or failure) is published
// independently.
func (l *Loop) triggerAssetFetch(correlationID string) {
	ctx := l.ctx
	if ctx == nil {
		return
	}
	go func() {
		if err := l.assetFetchLimiter.Wait(ctx); err != nil {
			return
		}
		metrics.RecordAssetFetch()
		doc, failure := l.Transport.Assets(ctx)
		if failure != nil {
			l.routeFailure(failure)
			return
		}
		l.Events.PublishAssetsReceived(doc)
	}()
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
