package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationKind(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Kind
	}{
		{name: "named query", query: "query GetTodos { todo { id } }", want: KindQuery},
		{name: "shorthand", query: "  { todo { id } }", want: KindQuery},
		{name: "mutation", query: "\n  mutation AddTodo($title: String!) { insert_todo_one(object: {title: $title}) { id } }", want: KindMutation},
		{name: "subscription", query: "subscription TodosSubscription { todo(order_by: {id: asc}) { id } }", want: KindSubscription},
		{name: "comment first", query: "# query in a comment\nsubscription S { x }", want: KindSubscription},
		{name: "fragment first", query: "fragment F on todo { id title }\nsubscription S { todo { ...F } }", want: KindSubscription},
		{name: "description string", query: "\"\"\"mutation docs\"\"\" mutation M { x }", want: KindMutation},
		{name: "fragment only", query: "fragment F on todo { id }", want: ""},
		{name: "empty", query: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Operation{Query: tt.query}.Kind())
		})
	}
}
