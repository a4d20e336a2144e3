package relay

import "errors"

// RequestError is a client input error. Its Message is sent back verbatim in
// an error frame; Reason is a stable label used for metrics.
type RequestError struct {
	Reason  string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

var (
	ErrInvalidName    = &RequestError{Reason: "invalid_name", Message: "Invalid name provided."}
	ErrRoomNotFound   = &RequestError{Reason: "room_not_found", Message: "Room does not exist."}
	ErrMalformed      = &RequestError{Reason: "malformed", Message: "Invalid message format."}
	ErrRoomsExhausted = &RequestError{Reason: "code_exhausted", Message: "Unable to create a room right now."}
)

// ErrCodeSpaceExhausted is returned by RoomStore.Create when no unused room
// code was found within the retry budget.
var ErrCodeSpaceExhausted = errors.New("relay: no unused room code available")

func unknownTypeError(kind string) *RequestError {
	return &RequestError{Reason: "unknown_type", Message: "Unknown request type: " + kind}
}
