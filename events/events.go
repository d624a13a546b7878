// Package events implements the Subscription Surface: a typed observer
// registry that fans out Session Loop events to subscribers, one list per
// event kind, delivered synchronously on the producing goroutine.
package events

import (
	"sync"

	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/mtcerr"
)

// Registry holds one subscriber list per event kind. Subscribers are
// expected to register before Start for simplicity; the On* registration
// methods are still safe for concurrent use via the mutex, so late subscription after Start
// works too, it just may miss events already in flight.
type Registry struct {
	mu sync.Mutex

	onProbe   []func(*agent.DevicesDocument)
	onCurrent []func(*agent.StreamsDocument)
	onSample  []func(*agent.StreamsDocument)
	onAssets  []func(*agent.AssetsDocument)
	onError   []func(*agent.ErrorDocument)
	onConnErr []func(*mtcerr.Failure)
	onXMLErr  []func([]byte)
	onStarted []func()
	onStopped []func()
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// OnProbeReceived registers a callback for successful Probe documents.
func (r *Registry) OnProbeReceived(fn func(*agent.DevicesDocument)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onProbe = append(r.onProbe, fn)
}

// OnCurrentReceived registers a callback fired on a re-anchoring Current.
func (r *Registry) OnCurrentReceived(fn func(*agent.StreamsDocument)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCurrent = append(r.onCurrent, fn)
}

// OnSampleReceived registers a callback for each parsed Sample chunk.
func (r *Registry) OnSampleReceived(fn func(*agent.StreamsDocument)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSample = append(r.onSample, fn)
}

// OnAssetsReceived registers a callback for Asset fetch results.
func (r *Registry) OnAssetsReceived(fn func(*agent.AssetsDocument)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAssets = append(r.onAssets, fn)
}

// OnError registers a callback for MTConnectError protocol documents.
func (r *Registry) OnError(fn func(*agent.ErrorDocument)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = append(r.onError, fn)
}

// OnConnectionError registers a callback for ConnectionFailure causes.
func (r *Registry) OnConnectionError(fn func(*mtcerr.Failure)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onConnErr = append(r.onConnErr, fn)
}

// OnXMLError registers a callback for unparseable bodies.
func (r *Registry) OnXMLError(fn func([]byte)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onXMLErr = append(r.onXMLErr, fn)
}

// OnStarted registers a callback fired once when the Session Loop starts.
func (r *Registry) OnStarted(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStarted = append(r.onStarted, fn)
}

// OnStopped registers a callback fired exactly once when the loop exits.
func (r *Registry) OnStopped(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStopped = append(r.onStopped, fn)
}

// PublishProbeReceived delivers doc synchronously to every Probe subscriber.
func (r *Registry) PublishProbeReceived(doc *agent.DevicesDocument) {
	r.mu.Lock()
	subs := append([]func(*agent.DevicesDocument){}, r.onProbe...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(doc)
	}
}

// PublishCurrentReceived delivers doc synchronously to every Current subscriber.
func (r *Registry) PublishCurrentReceived(doc *agent.StreamsDocument) {
	r.mu.Lock()
	subs := append([]func(*agent.StreamsDocument){}, r.onCurrent...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(doc)
	}
}

// PublishSampleReceived delivers doc synchronously to every Sample subscriber.
func (r *Registry) PublishSampleReceived(doc *agent.StreamsDocument) {
	r.mu.Lock()
	subs := append([]func(*agent.StreamsDocument){}, r.onSample...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(doc)
	}
}

// PublishAssetsReceived delivers doc synchronously to every Assets subscriber.
func (r *Registry) PublishAssetsReceived(doc *agent.AssetsDocument) {
	r.mu.Lock()
	subs := append([]func(*agent.AssetsDocument){}, r.onAssets...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(doc)
	}
}

// PublishError delivers an MTConnectError document synchronously.
func (r *Registry) PublishError(doc *agent.ErrorDocument) {
	r.mu.Lock()
	subs := append([]func(*agent.ErrorDocument){}, r.onError...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(doc)
	}
}

// PublishConnectionError delivers a connection failure synchronously.
func (r *Registry) PublishConnectionError(f *mtcerr.Failure) {
	r.mu.Lock()
	subs := append([]func(*mtcerr.Failure){}, r.onConnErr...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(f)
	}
}

// PublishXMLError delivers an unparseable payload synchronously.
func (r *Registry) PublishXMLError(payload []byte) {
	r.mu.Lock()
	fns := append([]func([]byte){}, r.onXMLErr...)
	r.mu.Unlock()
	for _, fn := range fns {
		fn(payload)
	}
}

// PublishStarted fires once, synchronously, when the Session Loop starts.
func (r *Registry) PublishStarted() {
	r.mu.Lock()
	subs := append([]func(){}, r.onStarted...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// PublishStopped fires once, synchronously, when the Session Loop exits.
func (r *Registry) PublishStopped() {
	r.mu.Lock()
	subs := append([]func(){}, r.onStopped...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
