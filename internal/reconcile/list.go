package reconcile

import "github.com/idilsaglam/todolive/internal/model"

// List is the single in-process item list plus the "initial load consumed"
// latch. It is not safe for concurrent use; every method is expected to run
// on the program's event loop.
type List struct {
	items  []model.Item
	loaded bool
}

// Initialize replaces the list with the result of the startup read.
// It applies at most once: later calls are no-ops and return false, even
// when they carry a different payload.
func (l *List) Initialize(items []model.Item) bool {
	if l.loaded {
		return false
	}
	l.loaded = true
	l.items = clone(items)
	return true
}

// ApplyLiveUpdate replaces the list with a live-feed snapshot. It always
// wins, whatever the latch or the local state.
func (l *List) ApplyLiveUpdate(items []model.Item) {
	l.items = clone(items)
}

// AppendCreated appends the service-assigned item at the end of the list.
// If a live push already delivered that id, the entry is replaced in place
// so the list never holds two items with one id.
func (l *List) AppendCreated(it model.Item) {
	for i := range l.items {
		if l.items[i].ID == it.ID {
			l.items[i] = it
			return
		}
	}
	l.items = append(l.items, it)
}

// PatchCompletion sets Completed on the item with the given id.
// A missing id is skipped and reported as false.
func (l *List) PatchCompletion(id int, completed bool) bool {
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Completed = completed
			return true
		}
	}
	return false
}

// Items returns a copy of the current list in source order.
func (l *List) Items() []model.Item { return clone(l.items) }

// Loaded reports whether the startup read has been consumed.
func (l *List) Loaded() bool { return l.loaded }

func (l *List) Len() int { return len(l.items) }

func clone(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	return out
}
