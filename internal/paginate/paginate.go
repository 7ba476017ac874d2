// Package paginate renders a list of lines across one or more embed
// pages inside a single message, advancing pages on the requester's
// reaction input. It implements the disambig.Presenter contract.
package paginate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"discord-snake-bot/internal/disambig"
	"discord-snake-bot/internal/platform"
)

// Navigation control emojis, in the order they are attached.
const (
	EmojiFirst = "⏮️"
	EmojiPrev  = "◀️"
	EmojiNext  = "▶️"
	EmojiLast  = "⏭️"
	EmojiStop  = "⏹️"
)

var controls = []string{EmojiFirst, EmojiPrev, EmojiNext, EmojiLast, EmojiStop}

// Defaults applied when Config fields are unset.
const (
	DefaultPageSize    = 20
	DefaultPageBudget  = 1500
	DefaultIdleTimeout = 150 * time.Minute
)

// Config holds presenter construction options.
type Config struct {
	PageSize    int
	PageBudget  int
	IdleTimeout time.Duration
}

// Presenter paginates candidate lists over a Messenger, listening for
// the requester's reaction input.
type Presenter struct {
	messenger   platform.Messenger
	reactions   platform.ReactionWaiter
	pageSize    int
	pageBudget  int
	idleTimeout time.Duration
}

// New creates a Presenter. A nil or partially-filled Config falls back
// to defaults.
func New(messenger platform.Messenger, reactions platform.ReactionWaiter, cfg *Config) *Presenter {
	p := &Presenter{
		messenger:   messenger,
		reactions:   reactions,
		pageSize:    DefaultPageSize,
		pageBudget:  DefaultPageBudget,
		idleTimeout: DefaultIdleTimeout,
	}
	if cfg != nil {
		if cfg.PageSize > 0 {
			p.pageSize = cfg.PageSize
		}
		if cfg.PageBudget > 0 {
			p.pageBudget = cfg.PageBudget
		}
		if cfg.IdleTimeout > 0 {
			p.idleTimeout = cfg.IdleTimeout
		}
	}
	return p
}

// Split partitions lines into pages of at most pageSize lines and at
// most budget rendered characters, never splitting a line. A single
// line longer than the budget still gets a page of its own.
func Split(lines []string, pageSize, budget int) []string {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if budget <= 0 {
		budget = DefaultPageBudget
	}

	var pages []string
	var current []string
	size := 0
	for _, line := range lines {
		added := len(line)
		if len(current) > 0 {
			added++ // joining newline
		}
		if len(current) > 0 && (len(current) >= pageSize || size+added > budget) {
			pages = append(pages, strings.Join(current, "\n"))
			current = current[:0]
			size = 0
			added = len(line)
		}
		current = append(current, line)
		size += added
	}
	if len(current) > 0 {
		pages = append(pages, strings.Join(current, "\n"))
	}
	return pages
}

// Present implements disambig.Presenter. A single page is sent once
// with no controls and the call degenerates to a waiter that never
// emits; multiple pages get navigation reactions and a control loop
// bounded by the idle timeout. The returned channel is closed when the
// presentation ends.
func (p *Presenter) Present(ctx context.Context, channelID, userID string, lines []string, color int) <-chan disambig.Event {
	events := make(chan disambig.Event, 4)
	go p.run(ctx, channelID, userID, lines, color, events)
	return events
}

func (p *Presenter) run(ctx context.Context, channelID, userID string, lines []string, color int, events chan<- disambig.Event) {
	defer close(events)

	pages := Split(lines, p.pageSize, p.pageBudget)
	if len(pages) == 0 {
		return
	}

	msg, err := p.messenger.SendEmbed(channelID, p.pageEmbed(pages, 0, color))
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to send candidate list")
		return
	}

	if len(pages) == 1 {
		// Nothing to navigate; the racing reply wait is the only path
		// to resolution.
		<-ctx.Done()
		return
	}

	for _, emoji := range controls {
		if err := p.messenger.React(channelID, msg.ID, emoji); err != nil {
			log.Debug().Err(err).Str("emoji", emoji).Msg("Failed to attach control reaction")
		}
	}
	defer func() {
		if err := p.messenger.ClearReactions(channelID, msg.ID); err != nil {
			log.Debug().Err(err).Msg("Failed to clear control reactions")
		}
	}()

	page := 0
	for {
		rctx, rcancel := context.WithTimeout(ctx, p.idleTimeout)
		reaction, err := p.reactions.AwaitReaction(rctx, func(r platform.Reaction) bool {
			return r.MessageID == msg.ID && r.UserID == userID && isControl(r.Emoji)
		})
		rcancel()

		if err != nil {
			if ctx.Err() != nil {
				// The disambiguation resolved or timed out elsewhere.
				return
			}
			// Idle timeout: end silently, distinct from an explicit stop.
			emit(ctx, events, disambig.Event{Kind: disambig.EventControlTimeout})
			return
		}

		if reaction.Emoji == EmojiStop {
			emit(ctx, events, disambig.Event{Kind: disambig.EventControlCancel})
			return
		}

		next := navigate(page, len(pages), reaction.Emoji)
		if next != page {
			page = next
			if err := p.messenger.EditEmbed(channelID, msg.ID, p.pageEmbed(pages, page, color)); err != nil {
				log.Error().Err(err).Int("page", page).Msg("Failed to edit page")
			}
		}
		emit(ctx, events, disambig.Event{Kind: disambig.EventPresenterInternal})
	}
}

func (p *Presenter) pageEmbed(pages []string, page int, color int) *platform.Embed {
	embed := &platform.Embed{
		Title:       "Found multiple entries. Please choose the correct one.",
		Description: fmt.Sprintf("```\n%s\n```", pages[page]),
		Color:       color,
	}
	if len(pages) > 1 {
		embed.Footer = &platform.EmbedFooter{
			Text: fmt.Sprintf("Page %d/%d", page+1, len(pages)),
		}
	}
	return embed
}

func navigate(page, pageCount int, emoji string) int {
	switch emoji {
	case EmojiFirst:
		return 0
	case EmojiPrev:
		if page > 0 {
			return page - 1
		}
	case EmojiNext:
		if page < pageCount-1 {
			return page + 1
		}
	case EmojiLast:
		return pageCount - 1
	}
	return page
}

func isControl(emoji string) bool {
	for _, c := range controls {
		if c == emoji {
			return true
		}
	}
	return false
}

// emit delivers an event unless the disambiguation is already done.
func emit(ctx context.Context, events chan<- disambig.Event, ev disambig.Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
