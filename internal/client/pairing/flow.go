package pairing

import (
	"context"
	"sync"

	"github.com/vendpair/vendpair-go/internal/client/api"
	"github.com/vendpair/vendpair-go/internal/clock"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
)

type EventType string

const (
	// EventPairRegistered fires when this client registers today's pair.
	EventPairRegistered EventType = "pair_registered"
	// EventGateChanged fires when a refresh changes whether today's pair
	// exists, including pairs registered from another device.
	EventGateChanged EventType = "gate_changed"
)

type Event struct {
	Type EventType
	Pair *model.HistoryEntry
}

// Flow drives the register-a-pair interaction: it tracks the partner the
// user has picked, gates submission once today's pair exists, and notifies
// listeners when the gate changes.
type Flow struct {
	client *api.Client
	clk    *clock.Clock

	mu        sync.Mutex
	todayPair *model.HistoryEntry
	selection int64
	subs      []chan Event
}

func NewFlow(client *api.Client, clk *clock.Clock) *Flow {
	return &Flow{client: client, clk: clk}
}

// Subscribe returns a channel of gate and registration events. Slow
// consumers drop events rather than blocking the flow.
func (f *Flow) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch
}

func (f *Flow) publish(ev Event) {
	f.mu.Lock()
	subs := append([]chan Event{}, f.subs...)
	f.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// RefreshGate re-fetches this week's history and recomputes today's pair.
// Listeners hear about it only when the answer changed. A consistency
// violation from the resolver still closes the gate on the record it
// deemed authoritative; the error is passed up, not swallowed.
func (f *Flow) RefreshGate(ctx context.Context) (*model.HistoryEntry, error) {
	entries, err := f.client.WeeklyHistory(ctx)
	if err != nil {
		return nil, err
	}

	pair, resolveErr := ResolveTodayPair(entries, f.clk.Today())

	f.mu.Lock()
	changed := (f.todayPair == nil) != (pair == nil)
	f.todayPair = pair
	f.mu.Unlock()

	if changed {
		f.publish(Event{Type: EventGateChanged, Pair: pair})
	}
	return pair, resolveErr
}

// TodayPair returns the pair recorded for today as of the last refresh.
func (f *Flow) TodayPair() *model.HistoryEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.todayPair == nil {
		return nil
	}
	p := *f.todayPair
	return &p
}

// Gated reports whether submission is blocked by an existing pair.
func (f *Flow) Gated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.todayPair != nil
}

func (f *Flow) Select(partnerID int64) {
	f.mu.Lock()
	f.selection = partnerID
	f.mu.Unlock()
}

func (f *Flow) Selection() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selection
}

func (f *Flow) ClearSelection() {
	f.mu.Lock()
	f.selection = 0
	f.mu.Unlock()
}

// AvailablePartners lists the full roster minus the caller. Members who
// already paired today stay in the list; picking one surfaces the
// server's PARTNER_ALREADY_PAIRED rejection instead of hiding them.
func (f *Flow) AvailablePartners(ctx context.Context, selfID int64) ([]model.User, error) {
	users, err := f.client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	partners := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		partners = append(partners, u)
	}
	return partners, nil
}

// Submit registers the selected partner as today's pair. The selection is
// kept on failure so the user can retry or adjust; it is cleared only once
// the server accepts the pair. Finding out the day is already taken (for
// example from another device) refreshes the gate.
func (f *Flow) Submit(ctx context.Context) (*model.HistoryEntry, error) {
	f.mu.Lock()
	if f.todayPair != nil {
		f.mu.Unlock()
		return nil, apperrors.AlreadyPairedToday()
	}
	partnerID := f.selection
	f.mu.Unlock()

	if partnerID == 0 {
		return nil, apperrors.MissingRequired("partner")
	}

	if _, err := f.client.CreatePair(ctx, partnerID); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeAlreadyPairedToday) {
			if _, refreshErr := f.RefreshGate(ctx); refreshErr == nil {
				return nil, err
			}
		}
		return nil, err
	}

	// Re-read the authoritative record so the gate carries the partner
	// name, not just the id we sent.
	pair, err := f.RefreshGate(ctx)
	if err != nil {
		return nil, err
	}

	f.ClearSelection()
	f.publish(Event{Type: EventPairRegistered, Pair: pair})
	return pair, nil
}
