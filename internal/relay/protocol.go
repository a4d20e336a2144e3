package relay

import (
	"encoding/json"
	"strings"
)

// Inbound request types.
const (
	TypeCreateRoom = "createRoom"
	TypeJoinRoom   = "joinRoom"
	TypeMessage    = "message"
	TypeLeaveRoom  = "leaveRoom"
)

// Outbound frame types. TypeMessage is shared by both directions.
const (
	TypeRoomCreated     = "roomCreated"
	TypeJoinedRoom      = "joinedRoom"
	TypeUserCountUpdate = "userCountUpdate"
	TypeSystem          = "system"
	TypeError           = "error"
)

// Request is one parsed inbound frame. The set of implementations is closed.
type Request interface {
	requestType() string
}

// CreateRoom asks for a fresh room with the sender as its only member.
type CreateRoom struct {
	Name string
}

// JoinRoom asks to enter an existing room. RoomCode is already normalized.
type JoinRoom struct {
	Name     string
	RoomCode string
}

// SendMessage relays Content to the sender's room. Content may be empty.
type SendMessage struct {
	Content string
}

// LeaveRoom removes the sender from its room.
type LeaveRoom struct{}

func (CreateRoom) requestType() string  { return TypeCreateRoom }
func (JoinRoom) requestType() string    { return TypeJoinRoom }
func (SendMessage) requestType() string { return TypeMessage }
func (LeaveRoom) requestType() string   { return TypeLeaveRoom }

type envelope struct {
	Type string `json:"type"`
}

type namePayload struct {
	Name     string `json:"name"`
	RoomCode string `json:"roomCode"`
}

type messagePayload struct {
	Content *string `json:"content"`
}

// ParseRequest decodes and validates one inbound frame. Every failure is a
// *RequestError so callers have a single rejection path.
func ParseRequest(raw []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		return nil, ErrMalformed
	}

	switch env.Type {
	case TypeCreateRoom, TypeJoinRoom:
		var p namePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, ErrMalformed
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		if env.Type == TypeCreateRoom {
			return CreateRoom{Name: name}, nil
		}
		return JoinRoom{Name: name, RoomCode: NormalizeCode(p.RoomCode)}, nil

	case TypeMessage:
		var p messagePayload
		if err := json.Unmarshal(raw, &p); err != nil || p.Content == nil {
			return nil, ErrMalformed
		}
		return SendMessage{Content: *p.Content}, nil

	case TypeLeaveRoom:
		return LeaveRoom{}, nil

	default:
		return nil, unknownTypeError(env.Type)
	}
}

// HistoryEntry is one relayed message kept in a room's history.
type HistoryEntry struct {
	UserName string `json:"userName"`
	Content  string `json:"content"`
}

// RoomCreatedFrame answers a successful createRoom.
type RoomCreatedFrame struct {
	Type       string `json:"type"`
	RoomCode   string `json:"roomCode"`
	UserID     string `json:"userId"`
	UsersCount int    `json:"usersCount"`
}

// JoinedRoomFrame answers a successful joinRoom with the room's full history.
type JoinedRoomFrame struct {
	Type       string         `json:"type"`
	RoomCode   string         `json:"roomCode"`
	UserID     string         `json:"userId"`
	History    []HistoryEntry `json:"history"`
	UsersCount int            `json:"usersCount"`
}

// MessageFrame carries one relayed chat message.
type MessageFrame struct {
	Type     string `json:"type"`
	UserName string `json:"userName"`
	Content  string `json:"content"`
}

// UserCountFrame announces the current membership size of a room.
type UserCountFrame struct {
	Type       string `json:"type"`
	UsersCount int    `json:"usersCount"`
}

// NoticeFrame is used for both system and error frames.
type NoticeFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func systemFrame(message string) NoticeFrame {
	return NoticeFrame{Type: TypeSystem, Message: message}
}

func errorFrame(message string) NoticeFrame {
	return NoticeFrame{Type: TypeError, Message: message}
}

func userCountFrame(n int) UserCountFrame {
	return UserCountFrame{Type: TypeUserCountUpdate, UsersCount: n}
}
