package devserver

import (
	"sync"

	"github.com/idilsaglam/todolive/internal/model"
)

// hub fans list snapshots out to live subscribers. Each subscriber holds
// at most one pending snapshot; a newer one replaces it.
type hub struct {
	mu   sync.Mutex
	subs map[chan []model.Item]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan []model.Item]struct{})}
}

func (h *hub) subscribe() (<-chan []model.Item, func()) {
	ch := make(chan []model.Item, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *hub) publish(items []model.Item) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- items:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- items
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
