package graphql

import "strings"

type Kind string

const (
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
)

// Operation is a named GraphQL document plus its variables.
type Operation struct {
	Name      string
	Query     string
	Variables map[string]any
}

func (op Operation) Request() Request {
	return Request{Query: op.Query, Variables: op.Variables, OperationName: op.Name}
}

// Kind returns the kind of the first operation definition in the document.
// Fragment definitions are skipped and an anonymous selection set counts as
// a query. An empty Kind means the document holds no operation.
func (op Operation) Kind() Kind {
	doc := op.Query
	for i := 0; i < len(doc); {
		c := doc[i]
		switch {
		case c == '#':
			for i < len(doc) && doc[i] != '\n' {
				i++
			}
		case c == '"':
			i = skipString(doc, i)
		case c == '{':
			return KindQuery
		case isNameStart(c):
			j := i
			for j < len(doc) && isNameChar(doc[j]) {
				j++
			}
			switch name := doc[i:j]; name {
			case "query", "mutation", "subscription":
				return Kind(name)
			case "fragment":
				i = skipDefinition(doc, j)
				continue
			}
			i = j
		default:
			i++
		}
	}
	return ""
}

// skipDefinition moves past the selection set that follows position i.
func skipDefinition(doc string, i int) int {
	depth := 0
	for i < len(doc) {
		switch doc[i] {
		case '"':
			i = skipString(doc, i)
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}

func skipString(doc string, i int) int {
	if strings.HasPrefix(doc[i:], `"""`) {
		if end := strings.Index(doc[i+3:], `"""`); end >= 0 {
			return i + 3 + end + 3
		}
		return len(doc)
	}
	i++
	for i < len(doc) {
		switch doc[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i + 1
		}
		i++
	}
	return i
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool { return isNameStart(c) || (c >= '0' && c <= '9') }
