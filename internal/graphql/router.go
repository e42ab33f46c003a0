package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrWrongTransport = errors.New("graphql: operation kind does not match transport")

// Router sends subscriptions over the websocket link and every other
// operation over the HTTP link.
type Router struct {
	HTTP *HTTPLink
	WS   *WSLink
}

func NewRouter(httpURL, wsURL string) *Router {
	return &Router{HTTP: NewHTTPLink(httpURL), WS: NewWSLink(wsURL)}
}

// Execute runs a query or mutation and decodes its data into out.
func (r *Router) Execute(ctx context.Context, op Operation, out any) error {
	if k := op.Kind(); k == KindSubscription || k == "" {
		return fmt.Errorf("execute %s (%q): %w", op.Name, k, ErrWrongTransport)
	}
	data, err := r.HTTP.Do(ctx, op)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", op.Name, err)
	}
	return nil
}

// Subscribe starts a subscription; see WSLink.Subscribe.
func (r *Router) Subscribe(ctx context.Context, op Operation) (<-chan json.RawMessage, error) {
	if k := op.Kind(); k != KindSubscription {
		return nil, fmt.Errorf("subscribe %s (%q): %w", op.Name, k, ErrWrongTransport)
	}
	return r.WS.Subscribe(ctx, op)
}
