package tui

import (
	"strings"

	"github.com/vendpair/vendpair-go/internal/client/views"
)

func renderHistory(v *views.HistoryView) string {
	switch v.Phase() {
	case views.PhaseIdle, views.PhaseLoading:
		return dimStyle.Render("Loading history...")
	case views.PhaseFailed:
		return errStyle.Render("Could not load history: " + v.Err().Error())
	}

	entries := v.Entries()
	if len(entries) == 0 {
		return dimStyle.Render("No pairs recorded this week.")
	}

	var b strings.Builder
	b.WriteString(normalStyle.Render("This week's pairs:"))
	b.WriteString("\n\n")
	for _, e := range entries {
		b.WriteString(dimStyle.Render(e.PairDate))
		b.WriteString("  ")
		b.WriteString(normalStyle.Render(e.PartnerName))
		b.WriteString("\n")
	}
	return b.String()
}

func renderUnpaired(v *views.UnpairedView) string {
	switch v.Phase() {
	case views.PhaseIdle, views.PhaseLoading:
		return dimStyle.Render("Loading unpaired roster...")
	case views.PhaseFailed:
		return errStyle.Render("Could not load roster: " + v.Err().Error())
	}

	users := v.Users()
	if len(users) == 0 {
		return okStyle.Render("Everyone has a pair today.")
	}

	var b strings.Builder
	b.WriteString(normalStyle.Render("Still unpaired today:"))
	b.WriteString("\n\n")
	for _, u := range users {
		b.WriteString(normalStyle.Render("  " + u.Name))
		b.WriteString("\n")
	}
	return b.String()
}
