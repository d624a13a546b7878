package session

// stateID identifies a Session Loop state. Values match the encoding
// metrics.SetSessionState expects (Probing=0 .. Stopped=4).
type stateID int

const (
	stateProbing stateID = iota
	stateCurrentFetch
	stateStreaming
	stateBackoff
	stateStopped
)

func (s stateID) String() string {
	switch s {
	case stateProbing:
		return "Probing"
	case stateCurrentFetch:
		return "CurrentFetch"
	case stateStreaming:
		return "Streaming"
	case stateBackoff:
		return "Backoff"
	case stateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
