package reconcile

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/idilsaglam/todolive/internal/model"
)

// Service is the remote data service as seen by the core.
type Service interface {
	Todos(ctx context.Context) ([]model.Item, error)
	AddTodo(ctx context.Context, title string) (model.Item, error)
	SetCompleted(ctx context.Context, id int, completed bool) (model.Completion, error)
	// Subscribe opens the live feed. Each value is the full list in id order.
	// The channel is closed when the feed ends.
	Subscribe(ctx context.Context) (<-chan []model.Item, error)
}

// Result messages. Every one of them is delivered through the bubbletea
// event loop, so Update never races with itself.
type (
	InitialLoadMsg struct {
		Items []model.Item
		Err   error
	}
	LiveUpdateMsg struct {
		Items []model.Item
	}
	CreatedMsg struct {
		Item model.Item
		Err  error
	}
	CompletionSetMsg struct {
		Completion model.Completion
		Err        error
	}
	FeedOpenedMsg struct {
		Feed <-chan []model.Item
		Err  error
	}
	FeedClosedMsg struct{}
)

// Core turns view intents into service calls and folds their results, plus
// the live feed, into one List.
type Core struct {
	ctx  context.Context
	svc  Service
	list List
	feed <-chan []model.Item
}

func NewCore(ctx context.Context, svc Service) *Core {
	return &Core{ctx: ctx, svc: svc}
}

// Init issues the startup read and opens the live feed.
func (c *Core) Init() tea.Cmd {
	return tea.Batch(c.loadCmd(), c.subscribeCmd())
}

// Submit asks the service to create an item. The title is forwarded as is;
// callers check that it is not blank.
func (c *Core) Submit(title string) tea.Cmd {
	ctx, svc := c.ctx, c.svc
	return func() tea.Msg {
		it, err := svc.AddTodo(ctx, title)
		return CreatedMsg{Item: it, Err: err}
	}
}

// Toggle asks the service to set the completion flag of an item.
func (c *Core) Toggle(id int, completed bool) tea.Cmd {
	ctx, svc := c.ctx, c.svc
	return func() tea.Msg {
		ack, err := svc.SetCompleted(ctx, id, completed)
		return CompletionSetMsg{Completion: ack, Err: err}
	}
}

// Update applies a result message. handled is false for messages that do
// not belong to the core. Errors are logged and otherwise dropped.
func (c *Core) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case InitialLoadMsg:
		if msg.Err != nil {
			glog.Warningf("initial load failed: %v", msg.Err)
			return true, nil
		}
		if !c.list.Initialize(msg.Items) {
			glog.V(1).Infof("initial load already consumed, dropping %d items", len(msg.Items))
		}
		return true, nil

	case LiveUpdateMsg:
		c.list.ApplyLiveUpdate(msg.Items)
		glog.V(2).Infof("live update: %d items", len(msg.Items))
		return true, c.waitForPush()

	case CreatedMsg:
		if msg.Err != nil {
			glog.Warningf("add todo failed: %v", msg.Err)
			return true, nil
		}
		c.list.AppendCreated(msg.Item)
		return true, nil

	case CompletionSetMsg:
		if msg.Err != nil {
			glog.Warningf("set completed failed: %v", msg.Err)
			return true, nil
		}
		if !c.list.PatchCompletion(msg.Completion.ID, msg.Completion.Completed) {
			glog.V(1).Infof("completion ack for unknown id %d", msg.Completion.ID)
		}
		return true, nil

	case FeedOpenedMsg:
		if msg.Err != nil {
			glog.Warningf("live feed unavailable: %v", msg.Err)
			return true, nil
		}
		c.feed = msg.Feed
		return true, c.waitForPush()

	case FeedClosedMsg:
		glog.Infof("live feed closed")
		c.feed = nil
		return true, nil
	}
	return false, nil
}

func (c *Core) Items() []model.Item { return c.list.Items() }

func (c *Core) Loaded() bool { return c.list.Loaded() }

func (c *Core) Len() int { return c.list.Len() }

func (c *Core) loadCmd() tea.Cmd {
	ctx, svc := c.ctx, c.svc
	return func() tea.Msg {
		items, err := svc.Todos(ctx)
		return InitialLoadMsg{Items: items, Err: err}
	}
}

func (c *Core) subscribeCmd() tea.Cmd {
	ctx, svc := c.ctx, c.svc
	return func() tea.Msg {
		feed, err := svc.Subscribe(ctx)
		return FeedOpenedMsg{Feed: feed, Err: err}
	}
}

// waitForPush blocks on the next snapshot. It is re-armed after every
// push, so at most one wait is outstanding.
func (c *Core) waitForPush() tea.Cmd {
	feed := c.feed
	if feed == nil {
		return nil
	}
	return func() tea.Msg {
		items, ok := <-feed
		if !ok {
			return FeedClosedMsg{}
		}
		return LiveUpdateMsg{Items: items}
	}
}
