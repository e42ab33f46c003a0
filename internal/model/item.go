package model

// Item is the domain model for a todo entry.
// ID is assigned by the data service and never reused; Title does not
// change after creation.
type Item struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Stats counts completed and pending items.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// Completion is the service acknowledgment of a completion change.
type Completion struct {
	ID        int  `json:"id"`
	Completed bool `json:"completed"`
}
