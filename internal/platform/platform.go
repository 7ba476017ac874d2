// Package platform defines the narrow chat-platform surface the rest of
// the bot consumes, plus a discordgo-backed implementation of it. The
// core packages (resolver, disambig, paginate) only ever see these
// interfaces, so tests can drive them with in-memory fakes.
package platform

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Embed and its parts are the rich message rendering handed to the
// Messenger.
type (
	Embed          = discordgo.MessageEmbed
	EmbedField     = discordgo.MessageEmbedField
	EmbedFooter    = discordgo.MessageEmbedFooter
	EmbedImage     = discordgo.MessageEmbedImage
	EmbedThumbnail = discordgo.MessageEmbedThumbnail
)

// Message is an incoming chat message, stripped down to what the bot
// needs to route commands and qualify disambiguation replies.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Content   string
}

// Reaction is a single reaction added to a message.
type Reaction struct {
	MessageID string
	ChannelID string
	UserID    string
	Emoji     string
}

// Messenger sends and edits messages in a channel.
type Messenger interface {
	Send(channelID, content string) (Message, error)
	SendEmbed(channelID string, embed *Embed) (Message, error)
	EditEmbed(channelID, messageID string, embed *Embed) error
	React(channelID, messageID, emoji string) error
	ClearReactions(channelID, messageID string) error
}

// ReplyWaiter blocks until a message matching the predicate arrives or
// the context ends. A context error is returned as-is, so callers can
// distinguish timeout from cancellation.
type ReplyWaiter interface {
	AwaitMessage(ctx context.Context, pred func(Message) bool) (Message, error)
}

// ReactionWaiter blocks until a reaction matching the predicate arrives
// or the context ends.
type ReactionWaiter interface {
	AwaitReaction(ctx context.Context, pred func(Reaction) bool) (Reaction, error)
}

// VoicePlayer locates a user's voice channel and plays a clip in it.
type VoicePlayer interface {
	UserChannel(guildID, userID string) (string, bool)
	PlayClip(ctx context.Context, guildID, channelID, clipPath string) error
}
