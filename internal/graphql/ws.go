package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

const (
	defaultAckTimeout    = 10 * time.Second
	defaultRetryAttempts = 5
	defaultRetryDelay    = time.Second
	maxRetryShift        = 5
)

// WSLink runs subscriptions over graphql-transport-ws. A dropped connection
// is re-dialed and the subscription re-sent; RetryAttempts bounds the
// number of consecutive failed attempts.
type WSLink struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer

	AckTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func NewWSLink(url string) *WSLink {
	return &WSLink{URL: url}
}

// Subscribe dials, subscribes and returns a channel of "data" payloads.
// The first connection is made before returning so that an unreachable
// endpoint is reported to the caller. The channel is closed when the
// server completes the subscription, when retries are exhausted, or when
// ctx is done.
func (l *WSLink) Subscribe(ctx context.Context, op Operation) (<-chan json.RawMessage, error) {
	s, err := l.open(ctx, op)
	if err != nil {
		return nil, err
	}
	out := make(chan json.RawMessage)
	go l.pump(ctx, op, s, out)
	return out, nil
}

type wsSession struct {
	conn *websocket.Conn
	id   string

	writeMu sync.Mutex
}

func (s *wsSession) write(m Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(m)
}

func (l *WSLink) open(ctx context.Context, op Operation) (*wsSession, error) {
	conn, resp, err := l.dialer().DialContext(ctx, l.URL, l.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", l.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", l.URL, err)
	}
	s := &wsSession{conn: conn, id: ulid.Make().String()}

	if err := s.write(Message{Type: MsgConnectionInit}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connection init: %w", err)
	}
	if err := s.awaitAck(l.ackTimeout()); err != nil {
		conn.Close()
		return nil, err
	}
	payload, err := json.Marshal(op.Request())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if err := s.write(Message{ID: s.id, Type: MsgSubscribe, Payload: payload}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	glog.V(1).Infof("[ws] subscribed %s id=%s", op.Name, s.id)
	return s, nil
}

func (s *wsSession) awaitAck(timeout time.Duration) error {
	_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	defer s.conn.SetReadDeadline(time.Time{})
	for {
		var m Message
		if err := s.conn.ReadJSON(&m); err != nil {
			return fmt.Errorf("await ack: %w", err)
		}
		switch m.Type {
		case MsgConnectionAck:
			return nil
		case MsgPing:
			if err := s.write(Message{Type: MsgPong}); err != nil {
				return fmt.Errorf("pong: %w", err)
			}
		default:
			return fmt.Errorf("await ack: unexpected %q", m.Type)
		}
	}
}

func (l *WSLink) pump(ctx context.Context, op Operation, s *wsSession, out chan<- json.RawMessage) {
	defer close(out)
	for {
		err := l.serve(ctx, s, out)
		if err == nil || ctx.Err() != nil {
			return
		}
		glog.Warningf("[ws] %s: %v", op.Name, err)

		s = nil
		for attempt := 1; s == nil; attempt++ {
			if attempt > l.retryAttempts() {
				glog.Warningf("[ws] %s: giving up after %d attempts", op.Name, attempt-1)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.backoff(attempt)):
			}
			if s, err = l.open(ctx, op); err != nil {
				glog.Warningf("[ws] %s: reconnect %d: %v", op.Name, attempt, err)
			}
		}
	}
}

// serve reads one connection until it ends. A nil return means the
// subscription is over and must not be retried.
func (l *WSLink) serve(ctx context.Context, s *wsSession, out chan<- json.RawMessage) error {
	defer s.conn.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.write(Message{ID: s.id, Type: MsgComplete})
			_ = s.conn.Close()
		case <-done:
		}
	}()

	for {
		var m Message
		if err := s.conn.ReadJSON(&m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		switch m.Type {
		case MsgNext:
			if m.ID != s.id {
				continue
			}
			var res Response
			if err := json.Unmarshal(m.Payload, &res); err != nil {
				glog.Warningf("[ws] bad payload for %s: %v", s.id, err)
				continue
			}
			if len(res.Errors) > 0 {
				glog.Warningf("[ws] %s: %v", s.id, res.Errors)
				continue
			}
			select {
			case out <- res.Data:
			case <-ctx.Done():
				return nil
			}
		case MsgError:
			var errs Errors
			_ = json.Unmarshal(m.Payload, &errs)
			glog.Warningf("[ws] subscription %s failed: %v", s.id, errs)
			return nil
		case MsgComplete:
			if m.ID == s.id {
				return nil
			}
		case MsgPing:
			if err := s.write(Message{Type: MsgPong}); err != nil {
				return fmt.Errorf("pong: %w", err)
			}
		}
	}
}

func (l *WSLink) dialer() *websocket.Dialer {
	d := websocket.DefaultDialer
	if l.Dialer != nil {
		d = l.Dialer
	}
	dd := *d
	dd.Subprotocols = []string{Subprotocol}
	return &dd
}

func (l *WSLink) ackTimeout() time.Duration {
	if l.AckTimeout > 0 {
		return l.AckTimeout
	}
	return defaultAckTimeout
}

func (l *WSLink) retryAttempts() int {
	if l.RetryAttempts > 0 {
		return l.RetryAttempts
	}
	return defaultRetryAttempts
}

func (l *WSLink) backoff(attempt int) time.Duration {
	delay := l.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	shift := attempt - 1
	if shift > maxRetryShift {
		shift = maxRetryShift
	}
	return delay << shift
}
