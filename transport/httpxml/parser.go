package httpxml

import (
	"encoding/xml"

	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/transport"
)

// xmlHeader mirrors the <Header> element common to every MTConnect
// response document.
type xmlHeader struct {
	InstanceID    int64 `xml:"instanceId,attr"`
	FirstSequence int64 `xml:"firstSequence,attr"`
	LastSequence  int64 `xml:"lastSequence,attr"`
	NextSequence  int64 `xml:"nextSequence,attr"`
	BufferSize    int64 `xml:"bufferSize,attr"`
}

func (h xmlHeader) toAgent() agent.Header {
	return agent.Header{
		InstanceID:    h.InstanceID,
		FirstSequence: h.FirstSequence,
		LastSequence:  h.LastSequence,
		NextSequence:  h.NextSequence,
		BufferSize:    h.BufferSize,
	}
}

// xmlDataItem is one observation element; its element name (e.g.
// Position, Execution, AssetChanged) is the DataItem type.
type xmlDataItem struct {
	XMLName    xml.Name
	SubType    string `xml:"subType,attr"`
	Name       string `xml:"name,attr"`
	DataItemID string `xml:"dataItemId,attr"`
	Sequence   int64  `xml:"sequence,attr"`
	Value      string `xml:",chardata"`
}

func (d xmlDataItem) toAgent() agent.DataItem {
	return agent.DataItem{
		Type:       d.XMLName.Local,
		SubType:    d.SubType,
		Name:       d.Name,
		DataItemID: d.DataItemID,
		Sequence:   d.Sequence,
		Value:      d.Value,
	}
}

// xmlItemGroup collects every child element of a Samples, Events or
// Condition block, whatever its element name.
type xmlItemGroup struct {
	Items []xmlDataItem `xml:",any"`
}

type xmlComponentStream struct {
	Samples    []xmlItemGroup `xml:"Samples"`
	Events     []xmlItemGroup `xml:"Events"`
	Conditions []xmlItemGroup `xml:"Condition"`
}

type xmlDeviceStream struct {
	Name             string               `xml:"name,attr"`
	UUID             string               `xml:"uuid,attr"`
	ComponentStreams []xmlComponentStream `xml:"ComponentStream"`
}

func (ds xmlDeviceStream) toAgent() agent.DeviceStream {
	out := agent.DeviceStream{Name: ds.Name, UUID: ds.UUID}
	for _, cs := range ds.ComponentStreams {
		for _, groups := range [][]xmlItemGroup{cs.Samples, cs.Events, cs.Conditions} {
			for _, g := range groups {
				for _, i := range g.Items {
					out.DataItems = append(out.DataItems, i.toAgent())
				}
			}
		}
	}
	return out
}

type xmlStreamsDocument struct {
	XMLName xml.Name  `xml:"MTConnectStreams"`
	Header  xmlHeader `xml:"Header"`
	Streams []struct {
		DeviceStreams []xmlDeviceStream `xml:"DeviceStream"`
	} `xml:"Streams"`
}

type xmlDevicesDocument struct {
	XMLName xml.Name  `xml:"MTConnectDevices"`
	Header  xmlHeader `xml:"Header"`
}

type xmlAssetsDocument struct {
	XMLName xml.Name  `xml:"MTConnectAssets"`
	Header  xmlHeader `xml:"Header"`
}

type xmlErrorDetail struct {
	ErrorCode string `xml:"errorCode,attr"`
	Message   string `xml:",chardata"`
}

type xmlErrorDocument struct {
	XMLName xml.Name  `xml:"MTConnectError"`
	Header  xmlHeader `xml:"Header"`
	Errors  []struct {
		Error []xmlErrorDetail `xml:"Error"`
	} `xml:"Errors"`
}

func (d xmlErrorDocument) toAgent() *agent.ErrorDocument {
	out := &agent.ErrorDocument{Header: d.Header.toAgent()}
	for _, group := range d.Errors {
		for _, e := range group.Error {
			out.Errors = append(out.Errors, agent.ErrorDetail{ErrorCode: e.ErrorCode, Message: e.Message})
		}
	}
	return out
}

// Parser is the default transport.DocumentParser, backed by encoding/xml.
// It tries the MTConnectError shape first since any endpoint may return it
// in place of its usual document.
type Parser struct{}

func (Parser) ParseDevices(body []byte) (*agent.DevicesDocument, *agent.ErrorDocument, transport.ParseOutcome) {
	if errDoc, ok := tryParseError(body); ok {
		return nil, errDoc, transport.ParsedProtocolError
	}
	var doc xmlDevicesDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil, transport.Unparseable
	}
	return &agent.DevicesDocument{Header: doc.Header.toAgent()}, nil, transport.ParsedDocument
}

func (Parser) ParseStreams(body []byte) (*agent.StreamsDocument, *agent.ErrorDocument, transport.ParseOutcome) {
	if errDoc, ok := tryParseError(body); ok {
		return nil, errDoc, transport.ParsedProtocolError
	}
	var doc xmlStreamsDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil, transport.Unparseable
	}
	out := &agent.StreamsDocument{Header: doc.Header.toAgent()}
	for _, s := range doc.Streams {
		for _, ds := range s.DeviceStreams {
			out.DeviceStreams = append(out.DeviceStreams, ds.toAgent())
		}
	}
	return out, nil, transport.ParsedDocument
}

func (Parser) ParseAssets(body []byte) (*agent.AssetsDocument, *agent.ErrorDocument, transport.ParseOutcome) {
	if errDoc, ok := tryParseError(body); ok {
		return nil, errDoc, transport.ParsedProtocolError
	}
	var doc xmlAssetsDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil, transport.Unparseable
	}
	return &agent.AssetsDocument{Header: doc.Header.toAgent()}, nil, transport.ParsedDocument
}

func tryParseError(body []byte) (*agent.ErrorDocument, bool) {
	var doc xmlErrorDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, false
	}
	if doc.XMLName.Local != "MTConnectError" {
		return nil, false
	}
	return doc.toAgent(), true
}
