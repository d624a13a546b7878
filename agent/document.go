// Package agent holds the document and header shapes exchanged with an
// MTConnect Agent. Parsing XML into these shapes is an external
// collaborator's job (see transport.DocumentParser); this package only
// describes the result.
package agent

// Header carries the fields MTConnect requires on every response header,
// regardless of document kind. All fields are non-negative; the agent
// guarantees FirstSequence <= NextSequence <= LastSequence+1.
type Header struct {
	InstanceID    int64
	FirstSequence int64
	LastSequence  int64
	NextSequence  int64
	BufferSize    int64
}

// AssetChangedType is the DataItem.Type the Asset Change Tracker watches for.
const AssetChangedType = "AssetChanged"

// UnavailableValue is the sentinel value MTConnect uses for "no data yet".
const UnavailableValue = "UNAVAILABLE"

// DataItem is one sample/event/condition entry inside a DeviceStream.
type DataItem struct {
	Type       string
	SubType    string
	Name       string
	DataItemID string
	Sequence   int64
	Value      string
}

// DeviceStream groups the DataItems reported for a single device.
type DeviceStream struct {
	Name      string
	UUID      string
	DataItems []DataItem
}

// StreamsDocument is the parsed shape of an MTConnectStreams response,
// returned by both Current and Sample.
type StreamsDocument struct {
	Header        Header
	DeviceStreams []DeviceStream
}

// SelectDevice returns the DeviceStream to scan for this request's device
// filter: the named device if deviceName is non-empty, otherwise the first
// DeviceStream in the document. Returns false if none match.
func (d StreamsDocument) SelectDevice(deviceName string) (DeviceStream, bool) {
	if len(d.DeviceStreams) == 0 {
		return DeviceStream{}, false
	}
	if deviceName == "" {
		return d.DeviceStreams[0], true
	}
	for _, ds := range d.DeviceStreams {
		if ds.Name == deviceName {
			return ds, true
		}
	}
	return DeviceStream{}, false
}

// ItemCount returns the total number of DataItem observations carried by
// this document, across all DeviceStreams. The Session Loop advances
// SequenceRange.From by this count after each sample chunk.
func (d StreamsDocument) ItemCount() int64 {
	var n int64
	for _, ds := range d.DeviceStreams {
		n += int64(len(ds.DataItems))
	}
	return n
}

// DevicesDocument is the parsed shape of an MTConnectDevices response
// (the result of Probe). The core never inspects device structure beyond
// the header, so the body is left opaque to the collaborator that produced it.
type DevicesDocument struct {
	Header Header
	Body   any
}

// AssetsDocument is the parsed shape of an MTConnectAssets response.
type AssetsDocument struct {
	Header Header
	Body   any
}

// ErrorDetail is a single <Error> entry inside an MTConnectError document.
type ErrorDetail struct {
	ErrorCode string
	Message   string
}

// ErrorDocument is the parsed shape of an MTConnectError document, which
// any endpoint may return instead of its usual document, with HTTP 2xx.
type ErrorDocument struct {
	Header Header
	Errors []ErrorDetail
}
