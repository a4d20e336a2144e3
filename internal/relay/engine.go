package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Observer receives engine events, typically to feed metrics.
type Observer interface {
	// StateChanged reports the registry and store sizes after a step.
	StateChanged(sessions, rooms int)
	FramesDelivered(n int)
	SendFailed()
	RequestRejected(reason string)
}

type nopObserver struct{}

func (nopObserver) StateChanged(int, int)  {}
func (nopObserver) FramesDelivered(int)    {}
func (nopObserver) SendFailed()            {}
func (nopObserver) RequestRejected(string) {}

// Stats is a snapshot of the engine's state sizes.
type Stats struct {
	Sessions int
	Rooms    int
}

// Engine applies requests to the session registry and room store. It is not
// safe for concurrent use.
type Engine struct {
	sessions *SessionRegistry
	rooms    *RoomStore
	observer Observer
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the engine's observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithCodeGenerator replaces the room code generator.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.rooms.newCode = gen
		}
	}
}

// WithIDGenerator replaces the user id generator.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// NewEngine returns an engine with an empty registry and store.
func NewEngine(opts ...Option) (*Engine, error) {
	gen, err := NewCodeGenerator()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		sessions: NewSessionRegistry(),
		rooms:    NewRoomStore(gen),
		observer: nopObserver{},
		newID:    newUserID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Stats returns the current registry and store sizes.
func (e *Engine) Stats() Stats {
	return Stats{Sessions: e.sessions.Len(), Rooms: e.rooms.Len()}
}

// HandleFrame parses one raw inbound frame from conn and applies it.
func (e *Engine) HandleFrame(conn Conn, raw []byte) {
	req, err := ParseRequest(raw)
	if err != nil {
		e.reject(conn, err)
		return
	}
	e.Handle(conn, req)
}

// Handle applies one parsed request from conn.
func (e *Engine) Handle(conn Conn, req Request) {
	var err error
	switch r := req.(type) {
	case CreateRoom:
		err = e.createRoom(conn, r)
	case JoinRoom:
		err = e.joinRoom(conn, r)
	case SendMessage:
		e.message(conn, r)
	case LeaveRoom:
		e.leaveRoom(conn)
	default:
		err = ErrMalformed
	}
	if err != nil {
		e.reject(conn, err)
	}
	e.publishState()
}

// Disconnect releases everything held for conn. It is safe to call for a
// connection that never joined a room, and to call more than once.
func (e *Engine) Disconnect(conn Conn) {
	u, ok := e.sessions.Lookup(conn)
	if !ok {
		return
	}
	e.detach(conn, u)
	e.publishState()
}

func (e *Engine) createRoom(conn Conn, r CreateRoom) error {
	if r.Name == "" {
		return ErrInvalidName
	}
	room, err := e.rooms.Create()
	if err != nil {
		log.Printf("Room creation failed for %v: %v", conn, err)
		return ErrRoomsExhausted
	}
	if prev, ok := e.sessions.Lookup(conn); ok {
		e.detach(conn, prev)
	}

	u := &User{ID: e.newID(), DisplayName: r.Name}
	e.rooms.AddMember(room, u)
	e.sessions.bind(conn, u)
	log.Printf("%s (%s) created room %s", u.DisplayName, u.ID, room.Code)

	e.send(conn, RoomCreatedFrame{
		Type:       TypeRoomCreated,
		RoomCode:   room.Code,
		UserID:     u.ID,
		UsersCount: room.Len(),
	})
	return nil
}

func (e *Engine) joinRoom(conn Conn, r JoinRoom) error {
	if r.Name == "" {
		return ErrInvalidName
	}
	if !IsValidCode(r.RoomCode) {
		return ErrRoomNotFound
	}
	room, ok := e.rooms.Get(r.RoomCode)
	if !ok {
		return ErrRoomNotFound
	}

	history := room.History()
	u := &User{ID: e.newID(), DisplayName: r.Name}
	// The new user is added before the old one leaves, so a sole member
	// re-joining its own room never empties it.
	e.rooms.AddMember(room, u)
	if prev, bound := e.sessions.Lookup(conn); bound {
		if prev.room == room {
			e.removeUser(conn, prev)
		} else {
			e.detach(conn, prev)
		}
	}
	e.sessions.bind(conn, u)
	log.Printf("%s (%s) joined room %s, %d members", u.DisplayName, u.ID, room.Code, room.Len())

	e.send(conn, JoinedRoomFrame{
		Type:       TypeJoinedRoom,
		RoomCode:   room.Code,
		UserID:     u.ID,
		History:    history,
		UsersCount: room.Len(),
	})
	e.broadcast(room, userCountFrame(room.Len()))
	return nil
}

func (e *Engine) message(conn Conn, r SendMessage) {
	u, ok := e.sessions.Lookup(conn)
	if !ok || u.room == nil {
		e.observer.RequestRejected("no_session")
		return
	}
	e.rooms.AppendMessage(u.room, HistoryEntry{UserName: u.DisplayName, Content: r.Content})
	e.broadcast(u.room, MessageFrame{Type: TypeMessage, UserName: u.DisplayName, Content: r.Content})
}

func (e *Engine) leaveRoom(conn Conn) {
	u, ok := e.sessions.Lookup(conn)
	if !ok {
		e.observer.RequestRejected("no_session")
		return
	}
	room := u.room
	deleted := e.removeUser(conn, u)

	e.send(conn, systemFrame("You have left the room."))
	if !deleted && room != nil {
		e.broadcast(room, systemFrame(fmt.Sprintf("%s has left the room.", u.DisplayName)))
		e.broadcast(room, userCountFrame(room.Len()))
	}
}

// detach removes u from its room and the registry, telling the remaining
// members the new head count.
func (e *Engine) detach(conn Conn, u *User) {
	room := u.room
	if deleted := e.removeUser(conn, u); !deleted && room != nil {
		e.broadcast(room, userCountFrame(room.Len()))
	}
}

func (e *Engine) removeUser(conn Conn, u *User) (roomDeleted bool) {
	room := u.room
	e.sessions.unbind(conn)
	if room == nil {
		return false
	}
	roomDeleted = e.rooms.RemoveMember(room, u)
	if roomDeleted {
		log.Printf("%s (%s) left room %s, room closed", u.DisplayName, u.ID, room.Code)
	} else {
		log.Printf("%s (%s) left room %s, %d members remain", u.DisplayName, u.ID, room.Code, room.Len())
	}
	return roomDeleted
}

func (e *Engine) reject(conn Conn, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = ErrMalformed
	}
	log.Printf("Rejected request from %v: %s", conn, reqErr.Message)
	e.observer.RequestRejected(reqErr.Reason)
	e.send(conn, errorFrame(reqErr.Message))
}

func (e *Engine) send(conn Conn, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Error encoding frame for %v: %v", conn, err)
		return
	}
	e.deliver(conn, payload)
}

// broadcast encodes frame once and sends it to every member in join order. A
// failed send is logged and does not stop delivery to the others.
func (e *Engine) broadcast(room *Room, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Error encoding frame for room %s: %v", room.Code, err)
		return
	}
	for _, m := range room.members {
		e.deliver(m.conn, payload)
	}
}

func (e *Engine) deliver(conn Conn, payload []byte) {
	if err := conn.Send(payload); err != nil {
		log.Printf("Send to %v failed: %v", conn, err)
		e.observer.SendFailed()
		return
	}
	e.observer.FramesDelivered(1)
}

func (e *Engine) publishState() {
	e.observer.StateChanged(e.sessions.Len(), e.rooms.Len())
}
