/*
feed.go - Push-based live feeds of items and raw ledger rows

PURPOSE:
  Consumers (the presentation layer) subscribe per user and receive the
  full current snapshot after each mutation, not incremental diffs. This
  mirrors a query-subscription storage model: every committed change
  re-delivers the whole matching result set.

DELIVERY SEMANTICS:
  Latest-wins. Each subscriber channel is buffered with capacity one; when
  a subscriber lags, the stale snapshot is dropped and replaced. Feed
  delivery never blocks a mutation.
*/
package ledger

import (
	"context"
	"log/slog"
)

// WatchItems subscribes to full item snapshots for a user. The returned
// cancel function must be called to release the subscription; it closes
// the channel.
func (e *Engine) WatchItems(userID string) (<-chan []Item, func()) {
	ch := make(chan []Item, 1)

	e.mu.Lock()
	e.itemSubs[userID] = append(e.itemSubs[userID], ch)
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		subs := e.itemSubs[userID]
		for i, sub := range subs {
			if sub == ch {
				e.itemSubs[userID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// WatchMovements subscribes to full raw-ledger snapshots for a user.
func (e *Engine) WatchMovements(userID string) (<-chan Movements, func()) {
	ch := make(chan Movements, 1)

	e.mu.Lock()
	e.moveSubs[userID] = append(e.moveSubs[userID], ch)
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		subs := e.moveSubs[userID]
		for i, sub := range subs {
			if sub == ch {
				e.moveSubs[userID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// notify reloads the user's snapshots and publishes them to subscribers.
// Called after a mutation has committed, while still holding the per-user
// mutex, so snapshots are delivered in mutation order.
func (e *Engine) notify(ctx context.Context, userID string) {
	e.mu.Lock()
	hasItemSubs := len(e.itemSubs[userID]) > 0
	hasMoveSubs := len(e.moveSubs[userID]) > 0
	e.mu.Unlock()

	if !hasItemSubs && !hasMoveSubs {
		return
	}

	if hasItemSubs {
		items, err := e.store.Items(ctx, userID)
		if err != nil {
			slog.Error("item feed snapshot failed", "user_id", userID, "error", err)
		} else {
			e.mu.Lock()
			for _, ch := range e.itemSubs[userID] {
				push(ch, items)
			}
			e.mu.Unlock()
		}
	}

	if hasMoveSubs {
		moves, err := e.Movements(ctx, userID)
		if err != nil {
			slog.Error("movement feed snapshot failed", "user_id", userID, "error", err)
			return
		}
		e.mu.Lock()
		for _, ch := range e.moveSubs[userID] {
			push(ch, moves)
		}
		e.mu.Unlock()
	}
}

// push delivers latest-wins: drop the buffered stale snapshot if the
// subscriber has not consumed it yet.
func push[T any](ch chan T, snap T) {
	select {
	case ch <- snap:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
