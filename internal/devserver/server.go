// Package devserver is a local stand-in for the todo data service. It
// answers the client's four GraphQL documents over HTTP and
// graphql-transport-ws, backed by sqlstore.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/todolive/internal/graphql"
	"github.com/idilsaglam/todolive/internal/model"
	"github.com/idilsaglam/todolive/internal/remote"
	"github.com/idilsaglam/todolive/internal/store/sqlstore"
)

const (
	GraphQLPath = "/v1/graphql"

	maxRequestBody  = 1 << 20
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	store *sqlstore.Store
	hub   *hub

	// writeMu orders write+publish pairs so the feed never goes back in time.
	writeMu sync.Mutex
}

func New(store *sqlstore.Store) *Server {
	return &Server{store: store, hub: newHub()}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)
	r.Methods(http.MethodPost).Path(GraphQLPath).HandlerFunc(s.serveHTTP)
	r.Methods(http.MethodGet).Path(GraphQLPath).HandlerFunc(s.serveWS)
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		glog.Infof("dev data service listening on http://%s%s", addr, GraphQLPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		glog.V(1).Infof("[http] %s %s %d %s", r.Method, r.URL, m.Code, m.Duration)
	})
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphql.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(fmt.Errorf("invalid request: %w", err)))
		return
	}
	if operation(req).Kind() == graphql.KindSubscription {
		writeJSON(w, http.StatusBadRequest, errorResponse(errors.New("subscriptions are served over websocket")))
		return
	}
	writeJSON(w, http.StatusOK, s.respond(r.Context(), req))
}

func (s *Server) respond(ctx context.Context, req graphql.Request) graphql.Response {
	data, err := s.execute(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errorResponse(err)
	}
	return graphql.Response{Data: raw}
}

// execute runs a one-shot operation. Documents are matched by operation
// name, or by root field when the name is absent.
func (s *Server) execute(ctx context.Context, req graphql.Request) (any, error) {
	switch operationName(req) {
	case remote.OpGetTodos, remote.OpTodosSubscription:
		items, err := s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"todo": items}, nil

	case remote.OpAddTodo:
		title, ok := req.Variables["title"].(string)
		if !ok {
			return nil, errors.New(`variable "title" of type String! is required`)
		}
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		it, err := s.store.Insert(ctx, title)
		if err != nil {
			return nil, err
		}
		s.publishLocked(ctx)
		return map[string]any{"insert_todo_one": it}, nil

	case remote.OpToggleTodoCompleted:
		id, ok := intVar(req.Variables["id"])
		if !ok {
			return nil, errors.New(`variable "id" of type Int! is required`)
		}
		completed, ok := req.Variables["completed"].(bool)
		if !ok {
			return nil, errors.New(`variable "completed" of type Boolean! is required`)
		}
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		ack, err := s.store.SetCompleted(ctx, id, completed)
		if errors.Is(err, sqlstore.ErrNotFound) {
			return map[string]any{"update_todo_by_pk": nil}, nil
		}
		if err != nil {
			return nil, err
		}
		s.publishLocked(ctx)
		return map[string]any{"update_todo_by_pk": ack}, nil
	}
	return nil, fmt.Errorf("unknown operation %q", req.OperationName)
}

func (s *Server) publishLocked(ctx context.Context) {
	items, err := s.store.List(ctx)
	if err != nil {
		glog.Errorf("publish: %v", err)
		return
	}
	s.hub.publish(items)
}

// watch registers a live subscriber and returns the current list. Taking
// writeMu makes every later snapshot on feed newer than current.
func (s *Server) watch(ctx context.Context) (current []model.Item, feed <-chan []model.Item, cancel func(), err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	feed, cancel = s.hub.subscribe()
	current, err = s.store.List(ctx)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return current, feed, cancel, nil
}

func operation(req graphql.Request) graphql.Operation {
	return graphql.Operation{Name: req.OperationName, Query: req.Query, Variables: req.Variables}
}

func operationName(req graphql.Request) string {
	if req.OperationName != "" {
		return req.OperationName
	}
	switch {
	case strings.Contains(req.Query, "insert_todo_one"):
		return remote.OpAddTodo
	case strings.Contains(req.Query, "update_todo_by_pk"):
		return remote.OpToggleTodoCompleted
	case operation(req).Kind() == graphql.KindSubscription:
		return remote.OpTodosSubscription
	case strings.Contains(req.Query, "todo"):
		return remote.OpGetTodos
	}
	return ""
}

// intVar accepts JSON numbers, which decode as float64.
func intVar(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func errorResponse(err error) graphql.Response {
	return graphql.Response{Errors: graphql.Errors{{Message: err.Error()}}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("write response: %v", err)
	}
}
