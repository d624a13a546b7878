package events

import (
	"testing"

	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/mtcerr"
)

func TestPublishProbeReceivedDeliversToAllSubscribers(t *testing.T) {
	r := New()
	var got1, got2 *agent.DevicesDocument
	r.OnProbeReceived(func(d *agent.DevicesDocument) { got1 = d })
	r.OnProbeReceived(func(d *agent.DevicesDocument) { got2 = d })

	doc := &agent.DevicesDocument{Header: agent.Header{InstanceID: 5}}
	r.PublishProbeReceived(doc)

	if got1 != doc || got2 != doc {
		t.Fatal("not all subscribers received the document")
	}
}

func TestPublishWithNoSubscribersDoesNotPanic(t *testing.T) {
	r := New()
	r.PublishSampleReceived(&agent.StreamsDocument{})
	r.PublishConnectionError(mtcerr.NewConnectionFailure(nil, true))
	r.PublishStopped()
}

func TestPublishStoppedFiresOnce(t *testing.T) {
	r := New()
	count := 0
	r.OnStopped(func() { count++ })
	r.PublishStopped()
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestLateSubscribeStillRegisters(t *testing.T) {
	r := New()
	r.PublishStarted()
	fired := false
	r.OnStarted(func() { fired = true })
	r.PublishStarted()
	if !fired {
		t.Error("late subscriber should still receive subsequent publishes")
	}
}
