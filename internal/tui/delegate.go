package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todolive/internal/model"
	"github.com/idilsaglam/todolive/internal/ui"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	model.Item
}

func (i listItem) FilterValue() string { return i.Title }

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, it := range items {
		out = append(out, listItem{it})
	}
	return out
}

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()

	box := t.Muted.Render(t.BoxUnchecked)
	text := it.Title
	if it.Completed {
		box = t.Success.Render(t.BoxChecked)
		text = t.Done.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}
