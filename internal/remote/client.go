// Package remote talks to the todo data service.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/idilsaglam/todolive/internal/graphql"
	"github.com/idilsaglam/todolive/internal/model"
)

var ErrNotFound = errors.New("todo not found")

// Client implements reconcile.Service over a graphql.Router.
type Client struct {
	router *graphql.Router
}

func New(router *graphql.Router) *Client {
	return &Client{router: router}
}

// Dial builds a client for a service reachable at the given endpoints.
func Dial(httpURL, wsURL string) *Client {
	return New(graphql.NewRouter(httpURL, wsURL))
}

type todosData struct {
	Todo []model.Item `json:"todo"`
}

func (c *Client) Todos(ctx context.Context) ([]model.Item, error) {
	var data todosData
	if err := c.router.Execute(ctx, getTodosOp(), &data); err != nil {
		return nil, fmt.Errorf("get todos: %w", err)
	}
	return data.Todo, nil
}

func (c *Client) AddTodo(ctx context.Context, title string) (model.Item, error) {
	var data struct {
		Inserted *model.Item `json:"insert_todo_one"`
	}
	if err := c.router.Execute(ctx, addTodoOp(title), &data); err != nil {
		return model.Item{}, fmt.Errorf("add todo: %w", err)
	}
	if data.Inserted == nil {
		return model.Item{}, errors.New("add todo: empty result")
	}
	return *data.Inserted, nil
}

func (c *Client) SetCompleted(ctx context.Context, id int, completed bool) (model.Completion, error) {
	var data struct {
		Updated *model.Completion `json:"update_todo_by_pk"`
	}
	if err := c.router.Execute(ctx, setTodoCompletedOp(id, completed), &data); err != nil {
		return model.Completion{}, fmt.Errorf("set completed: %w", err)
	}
	if data.Updated == nil {
		return model.Completion{}, fmt.Errorf("set completed %d: %w", id, ErrNotFound)
	}
	return *data.Updated, nil
}

// Subscribe opens the live feed. Undecodable snapshots are dropped.
func (c *Client) Subscribe(ctx context.Context) (<-chan []model.Item, error) {
	raw, err := c.router.Subscribe(ctx, todosSubscriptionOp())
	if err != nil {
		return nil, fmt.Errorf("subscribe todos: %w", err)
	}
	out := make(chan []model.Item)
	go func() {
		defer close(out)
		for payload := range raw {
			var data todosData
			if err := json.Unmarshal(payload, &data); err != nil {
				glog.Warningf("todos snapshot: %v", err)
				continue
			}
			select {
			case out <- data.Todo:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
