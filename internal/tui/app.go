package tui

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/idilsaglam/todolive/internal/model"
	"github.com/idilsaglam/todolive/internal/reconcile"
	"github.com/idilsaglam/todolive/internal/ui"
)

const (
	chromeHeight = 9 // header, status, add row, help and frame
	titleLimit   = 200
)

type keyMap struct {
	Toggle, Add, Submit, Cancel, Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Submit, k.Cancel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func newKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add todo"), key.WithDisabled()),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"), key.WithDisabled()),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// appModel is the view. It owns only presentation state and the draft
// title; the item list lives in the reconcile core.
type appModel struct {
	core *reconcile.Core

	list    list.Model
	spin    spinner.Model
	draft   textinput.Model // not-yet-submitted title
	help    help.Model
	keys    keyMap
	adding  bool
	width   int
	height  int
	quitted bool
}

func newAppModel(ctx context.Context, svc reconcile.Service) appModel {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.Styles.PaginationStyle = ui.Current().Muted
	l.KeyMap.Quit.SetEnabled(false)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = titleLimit

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	w, h := widthHeight()
	m := appModel{
		core:  reconcile.NewCore(ctx, svc),
		list:  l,
		spin:  sp,
		draft: ti,
		help:  help.New(),
		keys:  newKeyMap(),
	}
	m.resize(w, h)
	return m
}

// Run starts the interactive client and blocks until the user quits.
func Run(ctx context.Context, svc reconcile.Service) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	quietStderrLogs()
	_, err := tea.NewProgram(newAppModel(ctx, svc), tea.WithAltScreen()).Run()
	return err
}

// quietStderrLogs keeps glog off stderr; the alt screen owns the terminal.
// Logs still go to glog's files.
func quietStderrLogs() {
	for name, value := range map[string]string{
		"logtostderr":     "false",
		"alsologtostderr": "false",
		"stderrthreshold": "FATAL",
	} {
		if f := flag.Lookup(name); f != nil {
			if err := f.Value.Set(value); err != nil {
				glog.Warningf("set -%s: %v", name, err)
			}
		}
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.core.Init(), m.spin.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handled, cmd := m.core.Update(msg); handled {
		listCmd := m.refresh()
		return m, tea.Batch(cmd, listCmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		// Keep spinning only while the startup read is outstanding.
		if m.core.Loaded() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			if it, ok := m.list.SelectedItem().(listItem); ok {
				return m, m.core.Toggle(it.ID, !it.Completed)
			}
			return m, nil
		case key.Matches(msg, m.keys.Add):
			cmd := m.setAdding(true)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m appModel) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := m.draft.Value()
		if !canSubmit(title) {
			return m, nil
		}
		m.draft.SetValue("")
		m.syncSubmitKey()
		return m, m.core.Submit(title)
	case "esc":
		m.setAdding(false)
		return m, nil
	case "ctrl+c":
		m.quitted = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.draft, cmd = m.draft.Update(msg)
	m.syncSubmitKey()
	return m, cmd
}

// canSubmit mirrors the disabled state of the add button.
func canSubmit(title string) bool { return strings.TrimSpace(title) != "" }

func (m *appModel) setAdding(on bool) tea.Cmd {
	m.adding = on
	m.keys.Toggle.SetEnabled(!on)
	m.keys.Add.SetEnabled(!on)
	m.keys.Quit.SetEnabled(!on)
	m.keys.Cancel.SetEnabled(on)
	m.syncSubmitKey()
	if on {
		return m.draft.Focus()
	}
	m.draft.Blur()
	return nil
}

func (m *appModel) syncSubmitKey() {
	m.keys.Submit.SetEnabled(m.adding && canSubmit(m.draft.Value()))
}

// refresh copies the core's snapshot into the list widget.
func (m *appModel) refresh() tea.Cmd {
	return m.list.SetItems(toListItems(m.core.Items()))
}

func (m *appModel) resize(w, h int) {
	m.width, m.height = w, h
	listHeight := h - chromeHeight
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(w-4, listHeight)
	m.draft.Width = w - 12
	m.help.Width = w - 4
}

func (m appModel) View() string {
	if m.quitted {
		return ""
	}
	t := ui.Current()
	items := m.core.Items()

	var b strings.Builder
	b.WriteString(header(items))
	b.WriteString("\n\n")

	if !m.core.Loaded() {
		b.WriteString(m.spin.View() + " Loading...\n")
	} else if len(items) == 0 {
		b.WriteString(t.Muted.Render("No todos yet") + "\n")
	}
	if len(items) > 0 {
		b.WriteString(m.list.View() + "\n")
	}

	b.WriteString("\n" + m.addRow() + "\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return ui.PanelString(b.String())
}

func header(items []model.Item) string {
	t := ui.Current()
	done, pending := model.Stats(items)
	counts := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), pending,
		t.Accent.Render("Total"), len(items),
	)
	if len(items) == 0 {
		return counts
	}
	return counts + "\n" + t.Muted.Render(ui.ProgressBar(done, len(items), 24))
}

func (m appModel) addRow() string {
	t := ui.Current()
	button := t.Muted.Render("[ Add Todo ]")
	if canSubmit(m.draft.Value()) {
		button = t.Accent.Render("[ Add Todo ]")
	}
	input := m.draft.View()
	if !m.adding {
		input = t.Muted.Render("press a to add a todo")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, input, "  ", button)
}

func widthHeight() (int, int) {
	w, h := 80, 24
	if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		w, h = tw, th
	}
	return w, h
}
