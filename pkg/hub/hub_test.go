package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu     sync.Mutex
	writes []Message
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64)                        {}
func (f *fakeConn) SetReadDeadline(time.Time) error           { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error          { return nil }
func (f *fakeConn) SetPongHandler(func(appData string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(mt int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch mt {
	case websocket.TextMessage:
		f.writes = append(f.writes, NewJSONMessage(data))
	case websocket.BinaryMessage:
		f.writes = append(f.writes, NewBinaryMessage(data))
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.writes...)
}

func testHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewHub(t *testing.T) {
	h := New("test", nil)
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", h.ClientCount())
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	h, _ := testHub(t)

	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		c := NewClient(h, conn)
		go c.Run()
	}
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastJSON(map[string]int{"n": 1}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	h.BroadcastFrame([]byte{0xff, 0xd8})

	for i, conn := range conns {
		waitFor(t, func() bool { return len(conn.messages()) == 2 })
		msgs := conn.messages()
		if string(msgs[0].Data) != `{"n":1}` || msgs[0].Type != JSONMessage {
			t.Errorf("client %d first message = %+v", i, msgs[0])
		}
		if msgs[1].Type != BinaryMessage {
			t.Errorf("client %d second message type = %v, want binary", i, msgs[1].Type)
		}
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	h, _ := testHub(t)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestSlowClientHandling(t *testing.T) {
	h, _ := testHub(t)

	// Registered but never pumped, so its buffer fills.
	stuck := NewClient(h, newFakeConn())
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	for i := 0; i < sendBuffer+4; i++ {
		h.BroadcastFrame([]byte{byte(i)})
	}
	waitFor(t, func() bool { return h.Stats().Dropped >= 4 })
	if h.ClientCount() != 1 {
		t.Fatal("droppable frames should not disconnect a slow client")
	}

	h.BroadcastJSON("status")
	waitFor(t, func() bool { return h.ClientCount() == 0 })
	if h.Stats().Kicked != 1 {
		t.Errorf("Kicked = %d, want 1", h.Stats().Kicked)
	}
	if _, ok := <-drain(stuck.send); ok {
		t.Error("send channel should be closed after kick")
	}
}

// drain empties ch and returns it so the next receive reports closure.
func drain(ch chan Message) chan Message {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return ch
			}
		default:
			return ch
		}
	}
}

func TestRunStopClosesClients(t *testing.T) {
	h, cancel := testHub(t)

	c := NewClient(h, newFakeConn())
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return !h.IsRunning() })
	if _, ok := <-drain(c.send); ok {
		t.Error("send channel should be closed after Run returns")
	}
	if NewClient(h, newFakeConn()) != nil {
		t.Error("NewClient on a stopped hub should return nil")
	}
}
