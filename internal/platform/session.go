package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Session wraps a discordgo session and fans gateway events out to
// waiters. Every waiter subscription is removed when its Await call
// returns, so a finished disambiguation leaves no listener behind.
type Session struct {
	dg *discordgo.Session

	mu        sync.Mutex
	nextSub   int
	msgSubs   map[int]chan Message
	reactSubs map[int]chan Reaction
	onCommand func(Message)
}

// NewSession creates a Session for the given bot token. The session is
// not connected until Open is called.
func NewSession(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsDirectMessages

	s := &Session{
		dg:        dg,
		msgSubs:   make(map[int]chan Message),
		reactSubs: make(map[int]chan Reaction),
	}

	dg.AddHandler(s.handleMessageCreate)
	dg.AddHandler(s.handleReactionAdd)

	return s, nil
}

// OnCommand registers the callback invoked for every incoming user
// message. Must be set before Open.
func (s *Session) OnCommand(fn func(Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCommand = fn
}

// Open connects to the gateway.
func (s *Session) Open() error {
	return s.dg.Open()
}

// Close disconnects from the gateway.
func (s *Session) Close() error {
	return s.dg.Close()
}

// BotUserID returns the connected bot's own user ID, or "" before Open.
func (s *Session) BotUserID() string {
	if s.dg.State != nil && s.dg.State.User != nil {
		return s.dg.State.User.ID
	}
	return ""
}

func (s *Session) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		// The bot's own messages (including pages sent while
		// paginating) never become events.
		return
	}

	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	}

	s.mu.Lock()
	subs := make([]chan Message, 0, len(s.msgSubs))
	for _, ch := range s.msgSubs {
		subs = append(subs, ch)
	}
	cb := s.onCommand
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
			log.Warn().Str("channel_id", msg.ChannelID).Msg("Dropping message for slow waiter")
		}
	}
	if cb != nil {
		cb(msg)
	}
}

func (s *Session) handleReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.BotUserID() {
		return
	}

	react := Reaction{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
	}

	s.mu.Lock()
	subs := make([]chan Reaction, 0, len(s.reactSubs))
	for _, ch := range s.reactSubs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- react:
		default:
			log.Warn().Str("message_id", react.MessageID).Msg("Dropping reaction for slow waiter")
		}
	}
}

func (s *Session) subscribeMessages() (chan Message, func()) {
	ch := make(chan Message, 16)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.msgSubs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.msgSubs, id)
		s.mu.Unlock()
	}
}

func (s *Session) subscribeReactions() (chan Reaction, func()) {
	ch := make(chan Reaction, 16)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.reactSubs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.reactSubs, id)
		s.mu.Unlock()
	}
}

// AwaitMessage implements ReplyWaiter.
func (s *Session) AwaitMessage(ctx context.Context, pred func(Message) bool) (Message, error) {
	ch, cancel := s.subscribeMessages()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case m := <-ch:
			if pred(m) {
				return m, nil
			}
		}
	}
}

// AwaitReaction implements ReactionWaiter.
func (s *Session) AwaitReaction(ctx context.Context, pred func(Reaction) bool) (Reaction, error) {
	ch, cancel := s.subscribeReactions()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return Reaction{}, ctx.Err()
		case r := <-ch:
			if pred(r) {
				return r, nil
			}
		}
	}
}

// Send implements Messenger.
func (s *Session) Send(channelID, content string) (Message, error) {
	m, err := s.dg.ChannelMessageSend(channelID, content)
	if err != nil {
		return Message{}, fmt.Errorf("failed to send message: %w", err)
	}
	return fromDiscordMessage(m), nil
}

// SendEmbed implements Messenger.
func (s *Session) SendEmbed(channelID string, embed *Embed) (Message, error) {
	m, err := s.dg.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return Message{}, fmt.Errorf("failed to send embed: %w", err)
	}
	return fromDiscordMessage(m), nil
}

// EditEmbed implements Messenger.
func (s *Session) EditEmbed(channelID, messageID string, embed *Embed) error {
	_, err := s.dg.ChannelMessageEditEmbed(channelID, messageID, embed)
	if err != nil {
		return fmt.Errorf("failed to edit embed: %w", err)
	}
	return nil
}

// React implements Messenger.
func (s *Session) React(channelID, messageID, emoji string) error {
	return s.dg.MessageReactionAdd(channelID, messageID, emoji)
}

// ClearReactions implements Messenger.
func (s *Session) ClearReactions(channelID, messageID string) error {
	return s.dg.MessageReactionsRemoveAll(channelID, messageID)
}

func fromDiscordMessage(m *discordgo.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	return msg
}
