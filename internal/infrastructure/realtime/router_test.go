package realtime

import (
	"sync"
	"testing"
	"time"

	"delovrukah-chat/internal/infrastructure/auth"
)

// testConn builds a connection without a live websocket; Send only touches
// the buffered channel so no transport is needed for membership tests.
func testConn(userID string) *Connection {
	return NewConnection(&auth.Identity{UserID: userID, Role: "CUSTOMER"}, "", nil)
}

func drain(c *Connection) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestRouter_BroadcastReachesAllMembers(t *testing.T) {
	r := NewRouter()
	a, b, outsider := testConn("a"), testConn("b"), testConn("c")
	for _, c := range []*Connection{a, b, outsider} {
		r.mu.Lock()
		r.sessions[c.ID] = c
		r.sessionRooms[c.ID] = make(map[string]struct{})
		r.mu.Unlock()
	}

	r.Join("order-1", a)
	r.Join("order-1", b)
	r.Join("order-2", outsider)

	if n := r.Broadcast("order-1", []byte("hi")); n != 2 {
		t.Fatalf("Broadcast() delivered = %d, want 2", n)
	}
	if got := drain(a); len(got) != 1 || string(got[0]) != "hi" {
		t.Errorf("member a got %q, want one %q", got, "hi")
	}
	if got := drain(b); len(got) != 1 {
		t.Errorf("member b got %d payloads, want 1", len(got))
	}
	if got := drain(outsider); len(got) != 0 {
		t.Errorf("outsider got %d payloads, want 0", len(got))
	}
}

func TestRouter_BroadcastToEmptyRoomIsNoOp(t *testing.T) {
	r := NewRouter()
	if n := r.Broadcast("order-none", []byte("x")); n != 0 {
		t.Errorf("Broadcast() delivered = %d, want 0", n)
	}
}

func TestRouter_DetachPurgesAllRooms(t *testing.T) {
	r := NewRouter()
	a := testConn("a")
	r.mu.Lock()
	r.sessions[a.ID] = a
	r.sessionRooms[a.ID] = make(map[string]struct{})
	r.mu.Unlock()

	r.Join("order-1", a)
	r.Join("order-2", a)
	r.Detach(a)

	if n := r.MemberCount("order-1"); n != 0 {
		t.Errorf("order-1 members = %d, want 0", n)
	}
	if n := r.MemberCount("order-2"); n != 0 {
		t.Errorf("order-2 members = %d, want 0", n)
	}
	// Broadcast after the sole member left must not error and reach nobody.
	if n := r.Broadcast("order-1", []byte("x")); n != 0 {
		t.Errorf("Broadcast() delivered = %d, want 0", n)
	}
}

func TestRouter_EmptyRoomsAreGarbageCollected(t *testing.T) {
	r := NewRouter()
	a := testConn("a")
	r.mu.Lock()
	r.sessions[a.ID] = a
	r.sessionRooms[a.ID] = make(map[string]struct{})
	r.mu.Unlock()

	r.Join("order-1", a)
	r.Leave("order-1", a)

	r.mu.RLock()
	_, exists := r.rooms["order-1"]
	r.mu.RUnlock()
	if exists {
		t.Error("empty room was not removed")
	}
}

func TestRouter_LeaveAllKeepsSessionAttached(t *testing.T) {
	r := NewRouter()
	a := testConn("a")
	r.mu.Lock()
	r.sessions[a.ID] = a
	r.sessionRooms[a.ID] = make(map[string]struct{})
	r.mu.Unlock()

	r.Join("order-1", a)
	r.Join("order-2", a)
	r.LeaveAll(a)

	if n := r.MemberCount("order-1"); n != 0 {
		t.Errorf("order-1 members = %d, want 0", n)
	}

	// Session survives, so it can join again.
	r.Join("order-3", a)
	if n := r.MemberCount("order-3"); n != 1 {
		t.Errorf("order-3 members = %d, want 1", n)
	}
}

func TestRouter_BroadcastDoesNotBlockMembership(t *testing.T) {
	r := NewRouter()
	members := make([]*Connection, 0, 8)
	for i := 0; i < 8; i++ {
		c := testConn("m")
		r.mu.Lock()
		r.sessions[c.ID] = c
		r.sessionRooms[c.ID] = make(map[string]struct{})
		r.mu.Unlock()
		r.Join("order-1", c)
		members = append(members, c)
	}

	// Broadcasts racing joins, leaves and detaches must neither deadlock nor
	// panic, even as full buffers close members mid-broadcast.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.Broadcast("order-1", []byte("payload"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c := members[i%len(members)]
			r.Leave("order-1", c)
			r.Join("order-1", c)
			if i%10 == 0 {
				r.Detach(c)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast and membership changes deadlocked")
	}
}

func TestRouter_JoinIgnoresUnknownConnection(t *testing.T) {
	r := NewRouter()
	stranger := testConn("s")

	r.Join("order-1", stranger)
	if n := r.MemberCount("order-1"); n != 0 {
		t.Errorf("order-1 members = %d, want 0", n)
	}
}
