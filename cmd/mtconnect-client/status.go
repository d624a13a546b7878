package main

import (
	"net/http"
	"sync"

	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/logging"
)

// statusTracker holds the latest-observed header fields for the /status
// introspection endpoint. It only ever reads events the Session Loop
// already published, so it needs no coordination with the loop itself.
type statusTracker struct {
	mu             sync.RWMutex
	instanceID     int64
	probed         bool
	lastCurrentSeq int64
	lastSampleSeq  int64
	sampleCount    int64
}

func newStatusTracker() *statusTracker {
	return &statusTracker{}
}

func (s *statusTracker) recordProbe(doc *agent.DevicesDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instanceID = doc.Header.InstanceID
	s.probed = true
}

func (s *statusTracker) recordCurrent(doc *agent.StreamsDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instanceID = doc.Header.InstanceID
	s.lastCurrentSeq = doc.Header.NextSequence
}

func (s *statusTracker) recordSample(doc *agent.StreamsDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSampleSeq = doc.Header.NextSequence
	s.sampleCount++
}

type statusResponse struct {
	Probed         bool  `json:"probed"`
	InstanceID     int64 `json:"instance_id"`
	LastCurrentSeq int64 `json:"last_current_sequence"`
	LastSampleSeq  int64 `json:"last_sample_sequence"`
	SampleChunks   int64 `json:"sample_chunks_received"`
}

func (s *statusTracker) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := statusResponse{
		Probed:         s.probed,
		InstanceID:     s.instanceID,
		LastCurrentSeq: s.lastCurrentSeq,
		LastSampleSeq:  s.lastSampleSeq,
		SampleChunks:   s.sampleCount,
	}
	s.mu.RUnlock()

	logging.WriteJSONSuccess(w, resp)
}
