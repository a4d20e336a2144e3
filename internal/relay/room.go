package relay

// maxCodeAttempts bounds collision retries in RoomStore.Create.
const maxCodeAttempts = 16

// Room is one live chat room.
type Room struct {
	Code string

	members []*User
	history []HistoryEntry
}

// Len returns the number of members.
func (r *Room) Len() int {
	return len(r.members)
}

// History returns a copy of the room's message history. It is never nil.
func (r *Room) History() []HistoryEntry {
	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Room) hasMember(u *User) bool {
	for _, m := range r.members {
		if m == u {
			return true
		}
	}
	return false
}

// RoomStore maps normalized room codes to live rooms.
type RoomStore struct {
	rooms   map[string]*Room
	newCode CodeGenerator
}

// NewRoomStore returns an empty store drawing codes from gen.
func NewRoomStore(gen CodeGenerator) *RoomStore {
	return &RoomStore{
		rooms:   make(map[string]*Room),
		newCode: gen,
	}
}

// Create inserts an empty room under a well-formed code no live room is
// using.
func (s *RoomStore) Create() (*Room, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := NormalizeCode(s.newCode())
		if !IsValidCode(code) {
			continue
		}
		if _, taken := s.rooms[code]; taken {
			continue
		}
		room := &Room{Code: code, history: make([]HistoryEntry, 0)}
		s.rooms[code] = room
		return room, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Get resolves a room code case-insensitively.
func (s *RoomStore) Get(code string) (*Room, bool) {
	room, ok := s.rooms[NormalizeCode(code)]
	return room, ok
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	return len(s.rooms)
}

// AddMember appends u to the room and points u at it.
func (s *RoomStore) AddMember(room *Room, u *User) {
	if room.hasMember(u) {
		return
	}
	room.members = append(room.members, u)
	u.room = room
}

// RemoveMember takes u out of the room. When that leaves the room empty the
// room is deleted from the store in the same call and deleted is true.
func (s *RoomStore) RemoveMember(room *Room, u *User) (deleted bool) {
	for i, m := range room.members {
		if m == u {
			room.members = append(room.members[:i], room.members[i+1:]...)
			break
		}
	}
	if u.room == room {
		u.room = nil
	}
	if len(room.members) > 0 {
		return false
	}
	if s.rooms[room.Code] == room {
		delete(s.rooms, room.Code)
	}
	return true
}

// AppendMessage adds entry to the end of the room's history.
func (s *RoomStore) AppendMessage(room *Room, entry HistoryEntry) {
	room.history = append(room.history, entry)
}
