// Package disambig narrows a list of fuzzy-matched candidates to a
// single choice by asking the requesting user. It races a reply wait
// against the paginated candidate presentation and guarantees that
// whichever wait loses is cancelled and drained before returning.
package disambig

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"discord-snake-bot/internal/platform"
)

// Disambiguation failure modes. Callers match on these rather than on
// message text.
var (
	ErrNoMatches     = errors.New("no matches found")
	ErrCancelled     = errors.New("disambiguation cancelled")
	ErrTimedOut      = errors.New("timed out")
	ErrInvalidChoice = errors.New("invalid choice")
)

// Presenter renders candidate lines to a channel and reports control
// activity as tagged events. The returned channel is closed when the
// presentation ends; the presenter must stop promptly once ctx is done.
type Presenter interface {
	Present(ctx context.Context, channelID, userID string, lines []string, color int) <-chan Event
}

// Request scopes one disambiguation to a requester, a channel and a
// candidate list. It lives for a single Disambiguate call.
type Request struct {
	UserID     string
	ChannelID  string
	Candidates []string
	Timeout    time.Duration
	Color      int
}

// Disambiguator coordinates the reply wait and the presenter.
type Disambiguator struct {
	waiter    platform.ReplyWaiter
	presenter Presenter
}

// New creates a Disambiguator.
func New(waiter platform.ReplyWaiter, presenter Presenter) *Disambiguator {
	return &Disambiguator{waiter: waiter, presenter: presenter}
}

// Disambiguate resolves a Request to exactly one candidate.
//
// Zero candidates fail with ErrNoMatches and a single candidate is
// returned as-is; neither case sends a message or starts a wait. With
// two or more candidates the numbered list is presented and the first
// of a qualifying reply, a stop control or the timeout decides the
// outcome. Both concurrent waits are cancelled and joined before
// Disambiguate returns, on every path.
func (d *Disambiguator) Disambiguate(ctx context.Context, req *Request) (string, error) {
	n := len(req.Candidates)
	if n == 0 {
		return "", ErrNoMatches
	}
	if n == 1 {
		return req.Candidates[0], nil
	}

	lines := make([]string, n)
	for i, candidate := range req.Candidates {
		lines[i] = fmt.Sprintf("%d: %s", i+1, candidate)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	events := make(chan Event, 1)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	// Presenter wait: forward its tagged events onto the shared channel.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range d.presenter.Present(ctx, req.ChannelID, req.UserID, lines, req.Color) {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Reply wait: a qualifying reply is authored by the requester, in
	// the same channel, and is nothing but a base-10 integer.
	wg.Add(1)
	go func() {
		defer wg.Done()
		msg, err := d.waiter.AwaitMessage(ctx, func(m platform.Message) bool {
			return m.ChannelID == req.ChannelID &&
				m.AuthorID == req.UserID &&
				isDigits(m.Content)
		})
		if err != nil {
			return
		}
		select {
		case events <- Event{Kind: EventUserReply, Reply: msg}:
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrTimedOut
			}
			return "", ctx.Err()
		case ev := <-events:
			switch ev.Kind {
			case EventUserReply:
				choice, err := strconv.Atoi(ev.Reply.Content)
				if err != nil || choice < 1 || choice > n {
					return "", ErrInvalidChoice
				}
				return req.Candidates[choice-1], nil
			case EventControlCancel:
				return "", ErrCancelled
			case EventControlTimeout, EventPresenterInternal:
				// Presenter went quiet or paged; the reply wait is
				// still the path to resolution.
				log.Debug().
					Str("channel_id", req.ChannelID).
					Int("kind", int(ev.Kind)).
					Msg("Ignoring non-resolving disambiguation event")
			}
		}
	}
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
