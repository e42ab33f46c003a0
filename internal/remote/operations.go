package remote

import "github.com/idilsaglam/todolive/internal/graphql"

// Documents understood by the todo data service.
const (
	todosSubscription = `
  subscription TodosSubscription {
    todo(order_by: {id: asc}) {
      id
      title
      completed
    }
  }
`
	getTodos = `
  query GetTodos {
    todo(order_by: {id: asc}) {
      id
      title
      completed
    }
  }
`
	addTodo = `
  mutation AddTodo($title: String!) {
    insert_todo_one(object: { title: $title }) {
      id
      title
      completed
    }
  }
`
	setTodoCompleted = `
  mutation ToggleTodoCompleted($id: Int!, $completed: Boolean!) {
    update_todo_by_pk(pk_columns: { id: $id }, _set: { completed: $completed }) {
      id
      completed
    }
  }
`
)

// Operation names, shared with the development server.
const (
	OpTodosSubscription   = "TodosSubscription"
	OpGetTodos            = "GetTodos"
	OpAddTodo             = "AddTodo"
	OpToggleTodoCompleted = "ToggleTodoCompleted"
)

func todosSubscriptionOp() graphql.Operation {
	return graphql.Operation{Name: OpTodosSubscription, Query: todosSubscription}
}

func getTodosOp() graphql.Operation {
	return graphql.Operation{Name: OpGetTodos, Query: getTodos}
}

func addTodoOp(title string) graphql.Operation {
	return graphql.Operation{
		Name:      OpAddTodo,
		Query:     addTodo,
		Variables: map[string]any{"title": title},
	}
}

func setTodoCompletedOp(id int, completed bool) graphql.Operation {
	return graphql.Operation{
		Name:      OpToggleTodoCompleted,
		Query:     setTodoCompleted,
		Variables: map[string]any{"id": id, "completed": completed},
	}
}
