package relay

// Conn is the engine's view of a live connection. Send must not block; it
// queues one encoded frame for delivery and reports whether that was possible.
// Implementations must be comparable, since a Conn is used as a map key.
type Conn interface {
	Send(payload []byte) error
}

// User is the identity bound to a connection after a successful create or
// join. It always occupies exactly one room.
type User struct {
	ID          string
	DisplayName string

	conn Conn
	room *Room
}

// SessionRegistry maps each live connection to at most one User.
type SessionRegistry struct {
	users map[Conn]*User
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{users: make(map[Conn]*User)}
}

// Lookup returns the user bound to conn.
func (r *SessionRegistry) Lookup(conn Conn) (*User, bool) {
	u, ok := r.users[conn]
	return u, ok
}

// Len returns the number of bound connections.
func (r *SessionRegistry) Len() int {
	return len(r.users)
}

func (r *SessionRegistry) bind(conn Conn, u *User) {
	u.conn = conn
	r.users[conn] = u
}

func (r *SessionRegistry) unbind(conn Conn) {
	delete(r.users, conn)
}
