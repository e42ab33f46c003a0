package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOp = Operation{Name: "S", Query: "subscription S { n }"}

// wsServer runs handle for every websocket connection and counts them.
func wsServer(t *testing.T, handle func(n int, conn *websocket.Conn)) (string, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	up := websocket.Upgrader{Subprotocols: []string{Subprotocol}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(int(conns.Add(1)), conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), &conns
}

// handshake acks the connection and returns the subscription id.
func handshake(t *testing.T, conn *websocket.Conn) string {
	var m Message
	if err := conn.ReadJSON(&m); err != nil || m.Type != MsgConnectionInit {
		t.Errorf("expected connection_init, got %+v (%v)", m, err)
		return ""
	}
	_ = conn.WriteJSON(Message{Type: MsgConnectionAck})
	if err := conn.ReadJSON(&m); err != nil || m.Type != MsgSubscribe {
		t.Errorf("expected subscribe, got %+v (%v)", m, err)
		return ""
	}
	var req Request
	_ = json.Unmarshal(m.Payload, &req)
	assert.Equal(t, "S", req.OperationName)
	return m.ID
}

func next(id, data string) Message {
	return Message{ID: id, Type: MsgNext, Payload: json.RawMessage(`{"data":` + data + `}`)}
}

func collect(t *testing.T, ch <-chan json.RawMessage) []string {
	t.Helper()
	var out []string
	for {
		select {
		case d, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, string(d))
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for subscription to end")
		}
	}
}

func TestWSLinkDeliversUntilComplete(t *testing.T) {
	url, _ := wsServer(t, func(_ int, conn *websocket.Conn) {
		id := handshake(t, conn)
		_ = conn.WriteJSON(Message{Type: MsgPing})
		_ = conn.WriteJSON(next("someone-else", `{"n":0}`))
		_ = conn.WriteJSON(next(id, `{"n":1}`))
		_ = conn.WriteJSON(Message{ID: id, Type: MsgNext, Payload: json.RawMessage(`{"errors":[{"message":"skip me"}]}`)})
		_ = conn.WriteJSON(next(id, `{"n":2}`))
		_ = conn.WriteJSON(Message{ID: id, Type: MsgComplete})
		var m Message
		for conn.ReadJSON(&m) == nil {
		}
	})

	ch, err := NewWSLink(url).Subscribe(context.Background(), testOp)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, collect(t, ch))
}

func TestWSLinkCancelSendsComplete(t *testing.T) {
	completed := make(chan string, 1)
	url, _ := wsServer(t, func(_ int, conn *websocket.Conn) {
		id := handshake(t, conn)
		_ = conn.WriteJSON(next(id, `{"n":1}`))
		var m Message
		for conn.ReadJSON(&m) == nil {
			if m.Type == MsgComplete {
				completed <- m.ID
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewWSLink(url).Subscribe(ctx, testOp)
	require.NoError(t, err)

	select {
	case d := <-ch:
		assert.JSONEq(t, `{"n":1}`, string(d))
	case <-time.After(5 * time.Second):
		t.Fatal("no data")
	}
	cancel()
	collect(t, ch)

	select {
	case id := <-completed:
		assert.NotEmpty(t, id)
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw complete")
	}
}

func TestWSLinkReconnects(t *testing.T) {
	url, conns := wsServer(t, func(n int, conn *websocket.Conn) {
		id := handshake(t, conn)
		if n == 1 {
			return // drop the first connection
		}
		_ = conn.WriteJSON(next(id, `{"n":2}`))
		_ = conn.WriteJSON(Message{ID: id, Type: MsgComplete})
		var m Message
		for conn.ReadJSON(&m) == nil {
		}
	})

	link := NewWSLink(url)
	link.RetryDelay = 10 * time.Millisecond
	ch, err := link.Subscribe(context.Background(), testOp)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"n":2}`}, collect(t, ch))
	assert.EqualValues(t, 2, conns.Load())
}

func TestWSLinkErrorEndsSubscription(t *testing.T) {
	url, conns := wsServer(t, func(_ int, conn *websocket.Conn) {
		id := handshake(t, conn)
		_ = conn.WriteJSON(Message{ID: id, Type: MsgError, Payload: json.RawMessage(`[{"message":"validation failed"}]`)})
		var m Message
		for conn.ReadJSON(&m) == nil {
		}
	})

	link := NewWSLink(url)
	link.RetryDelay = 10 * time.Millisecond
	ch, err := link.Subscribe(context.Background(), testOp)
	require.NoError(t, err)
	assert.Empty(t, collect(t, ch))
	assert.EqualValues(t, 1, conns.Load())
}

func TestWSLinkDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := NewWSLink(url).Subscribe(context.Background(), testOp)
	assert.Error(t, err)
}

func TestWSLinkRejectedAck(t *testing.T) {
	url, _ := wsServer(t, func(_ int, conn *websocket.Conn) {
		var m Message
		_ = conn.ReadJSON(&m)
		_ = conn.WriteJSON(Message{Type: MsgComplete})
	})
	_, err := NewWSLink(url).Subscribe(context.Background(), testOp)
	assert.ErrorContains(t, err, "unexpected")
}
