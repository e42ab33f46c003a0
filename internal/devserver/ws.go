package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/idilsaglam/todolive/internal/graphql"
	"github.com/idilsaglam/todolive/internal/model"
)

// graphql-transport-ws close codes.
const (
	closeBadRequest       = 4400
	closeUnauthorized     = 4401
	closeInitTimeout      = 4408
	closeDuplicateID      = 4409
	closeTooManyInitReqs  = 4429
	connectionInitTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{graphql.Subprotocol},
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("websocket upgrade: %v", err)
		return
	}
	c := &wsConn{conn: conn, srv: s, subs: make(map[string]*activeOp)}
	c.run(r.Context())
}

type wsConn struct {
	conn *websocket.Conn
	srv  *Server

	writeMu sync.Mutex
	subsMu  sync.Mutex
	subs    map[string]*activeOp
	acked   bool // reader goroutine only
	wg      sync.WaitGroup
}

// activeOp is one running operation. Its id may be reused once it is gone
// from subs.
type activeOp struct {
	id     string
	cancel context.CancelFunc
}

// start registers id; it reports false when the id is already running.
func (c *wsConn) start(id string, cancel context.CancelFunc) (*activeOp, bool) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if _, dup := c.subs[id]; dup {
		return nil, false
	}
	op := &activeOp{id: id, cancel: cancel}
	c.subs[id] = op
	return op, true
}

// release forgets op. It must run before the final message for op is
// written so the client can reuse the id as soon as it sees it.
func (c *wsConn) release(op *activeOp) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if c.subs[op.id] == op {
		delete(c.subs, op.id)
	}
}

// stop cancels the operation running under id, if any.
func (c *wsConn) stop(id string) {
	c.subsMu.Lock()
	op, ok := c.subs[id]
	delete(c.subs, id)
	c.subsMu.Unlock()
	if ok {
		op.cancel()
	}
}

func (c *wsConn) write(m graphql.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(m)
}

func (c *wsConn) close(code int, reason string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (c *wsConn) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		c.wg.Wait()
		c.conn.Close()
	}()
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(connectionInitTimeout))
	for {
		var m graphql.Message
		if err := c.conn.ReadJSON(&m); err != nil {
			if !c.acked {
				c.close(closeInitTimeout, "Connection initialisation timeout")
			}
			glog.V(1).Infof("[ws] connection ended: %v", err)
			return
		}
		switch m.Type {
		case graphql.MsgConnectionInit:
			if c.acked {
				c.close(closeTooManyInitReqs, "Too many initialisation requests")
				return
			}
			c.acked = true
			_ = c.conn.SetReadDeadline(time.Time{})
			if err := c.write(graphql.Message{Type: graphql.MsgConnectionAck}); err != nil {
				return
			}
		case graphql.MsgPing:
			if err := c.write(graphql.Message{Type: graphql.MsgPong}); err != nil {
				return
			}
		case graphql.MsgPong:
		case graphql.MsgSubscribe:
			if !c.acked {
				c.close(closeUnauthorized, "Unauthorized")
				return
			}
			var req graphql.Request
			if err := json.Unmarshal(m.Payload, &req); err != nil || m.ID == "" {
				c.close(closeBadRequest, "Invalid subscribe payload")
				return
			}
			subCtx, subCancel := context.WithCancel(ctx)
			op, ok := c.start(m.ID, subCancel)
			if !ok {
				subCancel()
				c.close(closeDuplicateID, "Subscriber for "+m.ID+" already exists")
				return
			}
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				defer subCancel()
				defer c.release(op)
				c.serveOperation(subCtx, op, req)
			}()
		case graphql.MsgComplete:
			c.stop(m.ID)
		default:
			c.close(closeBadRequest, "Invalid message type "+m.Type)
			return
		}
	}
}

// serveOperation answers one subscribe message. Queries and mutations
// get a single result; subscriptions stream the list until cancelled.
func (c *wsConn) serveOperation(ctx context.Context, op *activeOp, req graphql.Request) {
	id := op.id
	if operation(req).Kind() != graphql.KindSubscription {
		if c.next(id, c.srv.respond(ctx, req)) == nil {
			c.release(op)
			_ = c.write(graphql.Message{ID: id, Type: graphql.MsgComplete})
		}
		return
	}

	current, feed, cancel, err := c.srv.watch(ctx)
	if err != nil {
		c.release(op)
		c.fail(id, err)
		return
	}
	defer cancel()
	glog.V(1).Infof("[ws] subscription %s started (%d live)", id, c.srv.hub.len())

	if c.nextList(id, current) != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case items := <-feed:
			if c.nextList(id, items) != nil {
				return
			}
		}
	}
}

func (c *wsConn) nextList(id string, items []model.Item) error {
	data, err := json.Marshal(map[string]any{"todo": items})
	if err != nil {
		return err
	}
	return c.next(id, graphql.Response{Data: data})
}

func (c *wsConn) next(id string, res graphql.Response) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.write(graphql.Message{ID: id, Type: graphql.MsgNext, Payload: payload})
}

func (c *wsConn) fail(id string, err error) {
	payload, _ := json.Marshal(graphql.Errors{{Message: err.Error()}})
	_ = c.write(graphql.Message{ID: id, Type: graphql.MsgError, Payload: payload})
}
