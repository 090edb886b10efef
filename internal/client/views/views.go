package views

import (
	"context"
	"sync"

	"github.com/vendpair/vendpair-go/internal/client/api"
	"github.com/vendpair/vendpair-go/internal/model"
)

// Phase distinguishes "still fetching" from "fetched and empty" so the UI
// never renders an empty list while a request is in flight.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

// epochSource tells a view which session generation it is fetching for.
// Responses that started under an older generation are thrown away.
type epochSource interface {
	Epoch() uint64
}

type view[T any] struct {
	session epochSource
	fetch   func(context.Context) ([]T, error)

	mu    sync.RWMutex
	phase Phase
	items []T
	err   error
}

// Refresh fetches the backing list. The returned error mirrors what the
// view itself records; stale responses return nil and change nothing.
func (v *view[T]) Refresh(ctx context.Context) error {
	epoch := v.session.Epoch()

	v.mu.Lock()
	v.phase = PhaseLoading
	v.mu.Unlock()

	items, err := v.fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.session.Epoch() != epoch {
		// The session changed under us. Whatever came back belongs to
		// the old session; drop it and reset.
		v.phase = PhaseIdle
		v.items = nil
		v.err = nil
		return nil
	}

	if err != nil {
		v.phase = PhaseFailed
		v.err = err
		return err
	}

	v.phase = PhaseReady
	v.items = items
	v.err = nil
	return nil
}

func (v *view[T]) Phase() Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

func (v *view[T]) Items() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]T{}, v.items...)
}

func (v *view[T]) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Reset returns the view to its pre-fetch state.
func (v *view[T]) Reset() {
	v.mu.Lock()
	v.phase = PhaseIdle
	v.items = nil
	v.err = nil
	v.mu.Unlock()
}

// HistoryView holds this week's pair history for display.
type HistoryView struct {
	view[model.HistoryEntry]
}

func NewHistoryView(client *api.Client, session epochSource) *HistoryView {
	return &HistoryView{view[model.HistoryEntry]{
		session: session,
		fetch:   client.WeeklyHistory,
	}}
}

// Entries returns the fetched history, newest first.
func (v *HistoryView) Entries() []model.HistoryEntry {
	return v.Items()
}

// UnpairedView holds the roster of users without a pair today.
type UnpairedView struct {
	view[model.User]
}

func NewUnpairedView(client *api.Client, session epochSource) *UnpairedView {
	return &UnpairedView{view[model.User]{
		session: session,
		fetch:   client.ListUnpaired,
	}}
}

// Users returns the fetched unpaired roster.
func (v *UnpairedView) Users() []model.User {
	return v.Items()
}
