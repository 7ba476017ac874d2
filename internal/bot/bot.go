// Package bot wires the Discord session to the command handlers: prefix
// parsing, command routing, per-command logging and panic recovery.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"discord-snake-bot/internal/config"
	"discord-snake-bot/internal/handler"
	"discord-snake-bot/internal/platform"
)

// Bot routes prefixed commands from the gateway to handlers. Each
// command runs in its own goroutine, so a long disambiguation never
// blocks other users.
type Bot struct {
	session *platform.Session
	snakes  *handler.SnakeHandler
	prefix  string
}

// Dependencies holds everything the bot needs to run.
type Dependencies struct {
	Config       *config.Config
	Session      *platform.Session
	SnakeHandler *handler.SnakeHandler
}

// New creates a Bot and registers its command router on the session.
func New(deps *Dependencies) *Bot {
	b := &Bot{
		session: deps.Session,
		snakes:  deps.SnakeHandler,
		prefix:  deps.Config.Bot.Prefix,
	}
	b.session.OnCommand(b.route)
	return b
}

// Start connects to the gateway.
func (b *Bot) Start() error {
	log.Info().Str("prefix", b.prefix).Msg("Starting bot...")
	return b.session.Open()
}

// Stop disconnects from the gateway.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	if err := b.session.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close session")
	}
}

// route dispatches one incoming message. Replies to in-flight
// disambiguations also pass through here; they simply don't carry the
// prefix and fall out at the first check.
func (b *Bot) route(msg platform.Message) {
	if !strings.HasPrefix(msg.Content, b.prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(msg.Content, b.prefix))
	if len(fields) == 0 {
		return
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	var fn func(context.Context, platform.Message, []string)
	switch command {
	case "get":
		fn = b.snakes.HandleGet
	case "guess", "identify":
		fn = b.snakes.HandleGuess
	case "zen":
		// Hidden: not listed anywhere, but routed all the same.
		fn = b.snakes.HandleZen
	default:
		return
	}

	log.Info().
		Str("command", command).
		Str("user_id", msg.AuthorID).
		Str("channel_id", msg.ChannelID).
		Msg("Received command")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("command", command).
					Msg("Recovered from panic in handler")
			}
		}()
		fn(context.Background(), msg, args)
	}()
}
