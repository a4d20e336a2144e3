package server

import (
	"errors"
	"strings"
)

var (
	// ErrSendBufferFull is returned by Client.Send when the outbound queue is
	// full. The client is closed as a consequence.
	ErrSendBufferFull = errors.New("server: client send buffer full")
	// ErrClientClosed is returned by Client.Send after the client was closed.
	ErrClientClosed = errors.New("server: client closed")
)

type eventKind int

const (
	eventRegister eventKind = iota
	eventFrame
	eventUnregister
)

func (k eventKind) String() string {
	switch k {
	case eventRegister:
		return "register"
	case eventFrame:
		return "frame"
	case eventUnregister:
		return "unregister"
	default:
		return "unknown"
	}
}

// clientEvent is the single unit of work consumed by Hub.Run. Register, frame
// and unregister events share one channel so a client's frames are always
// handled before its disconnect.
type clientEvent struct {
	kind    eventKind
	client  *Client
	payload []byte
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
