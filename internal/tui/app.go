package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vendpair/vendpair-go/internal/client/pairing"
	"github.com/vendpair/vendpair-go/internal/client/session"
	"github.com/vendpair/vendpair-go/internal/client/views"
	"github.com/vendpair/vendpair-go/internal/model"
)

type tab int

const (
	tabRegister tab = iota
	tabHistory
	tabUnpaired
)

var tabLabels = []string{"Register", "History", "Unpaired"}

// gateMsg carries the result of a gate refresh.
type gateMsg struct {
	pair *model.HistoryEntry
	err  error
}

// historyMsg and unpairedMsg signal that their view finished refreshing;
// the data itself lives in the view.
type historyMsg struct{ err error }

type unpairedMsg struct{ err error }

// App is the root Bubbletea model for the pairing dashboard.
type App struct {
	sess     *session.Manager
	flow     *pairing.Flow
	history  *views.HistoryView
	unpaired *views.UnpairedView

	tab      tab
	register registerModel
	status   string
	width    int
	height   int
}

func NewApp(sess *session.Manager, flow *pairing.Flow, history *views.HistoryView, unpaired *views.UnpairedView) App {
	return App{
		sess:     sess,
		flow:     flow,
		history:  history,
		unpaired: unpaired,
		register: newRegisterModel(flow, sess),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.refreshGate(), a.register.loadPartners(), a.loadHistory(), a.loadUnpaired())
}

func (a App) refreshGate() tea.Cmd {
	flow := a.flow
	return func() tea.Msg {
		pair, err := flow.RefreshGate(context.Background())
		return gateMsg{pair: pair, err: err}
	}
}

func (a App) loadHistory() tea.Cmd {
	v := a.history
	return func() tea.Msg {
		return historyMsg{err: v.Refresh(context.Background())}
	}
}

func (a App) loadUnpaired() tea.Cmd {
	v := a.unpaired
	return func() tea.Msg {
		return unpairedMsg{err: v.Refresh(context.Background())}
	}
}

func (a App) refreshAll() tea.Cmd {
	return tea.Batch(a.refreshGate(), a.register.loadPartners(), a.loadHistory(), a.loadUnpaired())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case gateMsg:
		if msg.err != nil {
			a.status = errStyle.Render(msg.err.Error())
		}
		return a, nil

	case historyMsg, unpairedMsg:
		return a, nil

	case submitMsg:
		var cmd tea.Cmd
		a.register, cmd = a.register.Update(msg)
		if msg.err == nil {
			// A new pair changes every tab: the gate, the history and
			// the unpaired roster.
			return a, tea.Batch(cmd, a.loadHistory(), a.loadUnpaired())
		}
		return a, cmd

	case partnersMsg:
		var cmd tea.Cmd
		a.register, cmd = a.register.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "tab", "right":
			a.tab = (a.tab + 1) % 3
			return a, nil
		case "shift+tab", "left":
			a.tab = (a.tab + 2) % 3
			return a, nil
		case "1":
			a.tab = tabRegister
			return a, nil
		case "2":
			a.tab = tabHistory
			return a, nil
		case "3":
			a.tab = tabUnpaired
			return a, nil
		case "r":
			return a, a.refreshAll()
		}

		if a.tab == tabRegister {
			var cmd tea.Cmd
			a.register, cmd = a.register.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("vendpair"))
	if user := a.sess.CurrentUser(); user != nil {
		b.WriteString(dimStyle.Render("  signed in as " + user.Name))
	}
	b.WriteString("\n")

	if pair := a.flow.TodayPair(); pair != nil {
		b.WriteString(bannerStyle.Render(fmt.Sprintf("Today's pair: %s", pair.PartnerName)))
	} else {
		b.WriteString(dimStyle.Render("No pair registered for today yet"))
	}
	b.WriteString("\n\n")

	for i, label := range tabLabels {
		if tab(i) == a.tab {
			b.WriteString(activeTabStyle.Render("[" + label + "]"))
		} else {
			b.WriteString(tabStyle.Render(label))
		}
	}
	b.WriteString("\n\n")

	switch a.tab {
	case tabRegister:
		b.WriteString(a.register.View())
	case tabHistory:
		b.WriteString(renderHistory(a.history))
	case tabUnpaired:
		b.WriteString(renderUnpaired(a.unpaired))
	}

	if a.status != "" {
		b.WriteString("\n" + a.status)
	}

	b.WriteString("\n" + helpStyle.Render("tab: switch  r: refresh  q: quit"))
	return b.String()
}
