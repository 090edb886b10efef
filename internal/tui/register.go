package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vendpair/vendpair-go/internal/client/pairing"
	"github.com/vendpair/vendpair-go/internal/client/session"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
)

// partnersMsg carries the pickable partner list.
type partnersMsg struct {
	partners []model.User
	err      error
}

// submitMsg carries the result of a pair submission.
type submitMsg struct {
	pair *model.HistoryEntry
	err  error
}

// registerModel is the "pick a partner and register" tab.
type registerModel struct {
	flow *pairing.Flow
	sess *session.Manager

	partners []model.User
	cursor   int
	loading  bool
	status   string
}

func newRegisterModel(flow *pairing.Flow, sess *session.Manager) registerModel {
	return registerModel{flow: flow, sess: sess, loading: true}
}

func (m registerModel) loadPartners() tea.Cmd {
	flow := m.flow
	sess := m.sess
	return func() tea.Msg {
		user := sess.CurrentUser()
		if user == nil {
			return partnersMsg{err: apperrors.Unauthorized("Not signed in")}
		}
		partners, err := flow.AvailablePartners(context.Background(), user.ID)
		return partnersMsg{partners: partners, err: err}
	}
}

func (m registerModel) submit() tea.Cmd {
	flow := m.flow
	return func() tea.Msg {
		pair, err := flow.Submit(context.Background())
		return submitMsg{pair: pair, err: err}
	}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case partnersMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, nil
		}
		m.partners = msg.partners
		if m.cursor >= len(m.partners) {
			m.cursor = 0
		}
		return m, nil

	case submitMsg:
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, nil
		}
		m.status = okStyle.Render("Pair registered with " + msg.pair.PartnerName)
		return m, m.loadPartners()

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.partners)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.flow.Gated() {
				m.status = bannerStyle.Render("Already paired today")
				return m, nil
			}
			if len(m.partners) == 0 {
				return m, nil
			}
			m.flow.Select(m.partners[m.cursor].ID)
			m.status = dimStyle.Render("Registering...")
			return m, m.submit()
		}
	}
	return m, nil
}

func (m registerModel) View() string {
	if m.loading {
		return dimStyle.Render("Loading partners...")
	}

	var b strings.Builder

	if m.flow.Gated() {
		b.WriteString(bannerStyle.Render("You already have a pair for today."))
		b.WriteString("\n")
	} else if len(m.partners) == 0 {
		b.WriteString(dimStyle.Render("Nobody else is on the roster."))
		b.WriteString("\n")
	} else {
		b.WriteString(normalStyle.Render("Pick today's vending machine partner:"))
		b.WriteString("\n\n")
		for i, p := range m.partners {
			line := "  " + p.Name
			if i == m.cursor {
				line = selectedStyle.Render("> " + p.Name)
			} else {
				line = normalStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("j/k: move  enter: register"))
	}

	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	return b.String()
}
