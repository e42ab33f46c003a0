// Package graphql is a small GraphQL client: one-shot operations go over
// HTTP, subscriptions over a websocket speaking graphql-transport-ws.
package graphql

import (
	"encoding/json"
	"strings"
)

// Request is the body of an HTTP operation and the payload of a
// websocket subscribe message.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response is a GraphQL execution result.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors Errors          `json:"errors,omitempty"`
}

type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Errors is the "errors" member of a result.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, x := range e {
		msgs = append(msgs, x.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// graphql-transport-ws message types.
const (
	Subprotocol = "graphql-transport-ws"

	MsgConnectionInit = "connection_init"
	MsgConnectionAck  = "connection_ack"
	MsgPing           = "ping"
	MsgPong           = "pong"
	MsgSubscribe      = "subscribe"
	MsgNext           = "next"
	MsgError          = "error"
	MsgComplete       = "complete"
)

// Message is one websocket frame of the graphql-transport-ws protocol.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
