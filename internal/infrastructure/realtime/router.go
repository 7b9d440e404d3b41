package realtime

import (
	"sync"
)

// Router is the room membership and multicast primitive the chat gateway
// rides on. It groups live connections under room keys and fans payloads out
// to all members of a room. It is constructed explicitly and passed by
// reference into its consumers; there is no ambient instance.
//
// Bookkeeping is bidirectional: detaching a connection purges it from every
// room it was in, and a room whose last member leaves is removed rather than
// lingering as an empty entry.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	rooms        map[string]map[string]*Connection // roomName -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of roomNames
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection and starts its write loop.
func (r *Router) Attach(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	r.sessionRooms[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()

	conn.Start()
}

// Detach removes a connection and all of its room memberships.
func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	r.mu.Unlock()
}

// Join adds the connection to the named room. Unknown (already detached)
// connections are ignored; the room is created on first join.
func (r *Router) Join(roomName string, conn *Connection) {
	r.mu.Lock()
	if _, ok := r.sessions[conn.ID]; !ok {
		r.mu.Unlock()
		return
	}

	room := r.rooms[roomName]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[roomName] = room
	}
	room[conn.ID] = conn

	memberships := r.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionRooms[conn.ID] = memberships
	}
	memberships[roomName] = struct{}{}
	r.mu.Unlock()
}

// Leave removes the connection from the named room.
func (r *Router) Leave(roomName string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(roomName, conn.ID)
	r.mu.Unlock()
}

// LeaveAll removes the connection from every room it belongs to while
// keeping the session itself attached.
func (r *Router) LeaveAll(conn *Connection) {
	r.mu.Lock()
	for roomName := range r.sessionRooms[conn.ID] {
		r.leaveLocked(roomName, conn.ID)
	}
	r.mu.Unlock()
}

// Broadcast writes payload to every member of the room, the originator
// included. Broadcasting to an unknown or empty room is a silent no-op.
// Returns the number of members the payload was enqueued for.
//
// Members are snapshotted under the lock and sent to outside it, so a slow
// member being closed mid-send cannot stall membership changes.
func (r *Router) Broadcast(roomName string, payload []byte) int {
	r.mu.RLock()
	room := r.rooms[roomName]
	members := make([]*Connection, 0, len(room))
	for _, conn := range room {
		members = append(members, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range members {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// MemberCount reports how many connections are currently in the room.
func (r *Router) MemberCount(roomName string) int {
	r.mu.RLock()
	n := len(r.rooms[roomName])
	r.mu.RUnlock()
	return n
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "router shutdown")
	}
}

func (r *Router) detachLocked(sessionID string) {
	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	delete(r.sessions, sessionID)

	for roomName := range r.sessionRooms[sessionID] {
		r.leaveLocked(roomName, sessionID)
	}
	delete(r.sessionRooms, sessionID)
}

func (r *Router) leaveLocked(roomName string, sessionID string) {
	if sessionID == "" {
		return
	}
	room := r.rooms[roomName]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, roomName)
	}
	if memberships, ok := r.sessionRooms[sessionID]; ok {
		delete(memberships, roomName)
	}
}
