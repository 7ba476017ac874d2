// Package handler provides the bot's command handlers. Handlers are
// thin orchestration: resolve a query to candidates, disambiguate with
// the requesting user, fetch the summary, render it. Every failure maps
// to a short plain-text message in the originating channel; none is
// fatal to the process.
package handler

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"discord-snake-bot/internal/config"
	"discord-snake-bot/internal/dictionary"
	"discord-snake-bot/internal/disambig"
	"discord-snake-bot/internal/platform"
	"discord-snake-bot/internal/resolver"
	"discord-snake-bot/internal/wiki"
)

// maxEmbedSections caps how many extract sections are rendered as
// embed fields.
const maxEmbedSections = 3

// SnakeHandler handles the snake lookup commands.
type SnakeHandler struct {
	cfg       *config.Config
	dict      *dictionary.Dictionary
	resolver  *resolver.Resolver
	disamb    *disambig.Disambiguator
	wiki      *wiki.Client
	messenger platform.Messenger
	voice     platform.VoicePlayer
	rng       *rand.Rand
}

// NewSnakeHandler creates a SnakeHandler.
func NewSnakeHandler(
	cfg *config.Config,
	dict *dictionary.Dictionary,
	res *resolver.Resolver,
	disamb *disambig.Disambiguator,
	wikiClient *wiki.Client,
	messenger platform.Messenger,
	voice platform.VoicePlayer,
	rng *rand.Rand,
) *SnakeHandler {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &SnakeHandler{
		cfg:       cfg,
		dict:      dict,
		resolver:  res,
		disamb:    disamb,
		wiki:      wikiClient,
		messenger: messenger,
		voice:     voice,
		rng:       rng,
	}
}

// HandleGet handles `get [name]`: no argument fetches a random snake,
// otherwise the name is fuzzy-resolved and disambiguated before the
// lookup.
func (h *SnakeHandler) HandleGet(ctx context.Context, msg platform.Message, args []string) {
	query := strings.Join(args, " ")
	candidates := h.resolver.Resolve(query)

	choice, err := h.disamb.Disambiguate(ctx, &disambig.Request{
		UserID:     msg.AuthorID,
		ChannelID:  msg.ChannelID,
		Candidates: candidates,
		Timeout:    h.cfg.DisambigTimeout(h.dict.Len()),
		Color:      h.cfg.Embed.Color,
	})
	if err != nil {
		h.sendFailure(msg.ChannelID, err)
		return
	}

	record, err := h.wiki.Fetch(ctx, choice)
	if err != nil || record.Incomplete {
		if err != nil {
			log.Error().Err(err).Str("name", choice).Msg("Wikipedia lookup failed")
		}
		h.sendText(msg.ChannelID, "Could not fetch data.")
		return
	}

	if _, err := h.messenger.SendEmbed(msg.ChannelID, h.snakeEmbed(record)); err != nil {
		log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("Failed to send snake embed")
	}
}

// HandleZen plays the configured clip in the requester's voice channel,
// silently doing nothing when they are not connected to one.
func (h *SnakeHandler) HandleZen(ctx context.Context, msg platform.Message, _ []string) {
	if msg.GuildID == "" {
		return
	}
	channelID, ok := h.voice.UserChannel(msg.GuildID, msg.AuthorID)
	if !ok {
		return
	}
	if err := h.voice.PlayClip(ctx, msg.GuildID, channelID, h.cfg.Zen.ClipPath); err != nil {
		log.Error().Err(err).Str("guild_id", msg.GuildID).Msg("Failed to play zen clip")
	}
}

// snakeEmbed renders a fetched record: lead paragraph, a few titled
// sections, the first subject image, and the first range map as the
// thumbnail.
func (h *SnakeHandler) snakeEmbed(record *wiki.Record) *platform.Embed {
	lead, sections := wiki.ParseExtract(record.Extract)

	embed := &platform.Embed{
		Title:       record.Title,
		URL:         record.URL,
		Description: lead,
		Color:       h.cfg.Embed.Color,
	}

	for i, section := range sections {
		if i >= maxEmbedSections {
			break
		}
		embed.Fields = append(embed.Fields, &platform.EmbedField{
			Name:  section.Title,
			Value: section.Body,
		})
	}

	if len(record.Images) > 0 {
		embed.Image = &platform.EmbedImage{URL: imageURL(record.Images[0])}
	}
	if len(record.Maps) > 0 {
		embed.Thumbnail = &platform.EmbedThumbnail{URL: imageURL(record.Maps[0])}
	}
	return embed
}

// sendFailure maps a disambiguation failure to its user-visible text.
func (h *SnakeHandler) sendFailure(channelID string, err error) {
	var text string
	switch {
	case errors.Is(err, disambig.ErrNoMatches):
		text = "No matches found."
	case errors.Is(err, disambig.ErrCancelled):
		text = "Disambiguation cancelled."
	case errors.Is(err, disambig.ErrTimedOut):
		text = "Timed out."
	case errors.Is(err, disambig.ErrInvalidChoice):
		text = "Invalid choice."
	default:
		log.Error().Err(err).Str("channel_id", channelID).Msg("Unexpected disambiguation failure")
		text = "Something went wrong."
	}
	h.sendText(channelID, text)
}

func (h *SnakeHandler) sendText(channelID, text string) {
	if _, err := h.messenger.Send(channelID, text); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to send message")
	}
}

// imageURL turns an image title like "File:Cobra.jpg" into a fetchable
// file URL.
func imageURL(title string) string {
	name := strings.TrimPrefix(title, "File:")
	return "https://en.wikipedia.org/wiki/Special:FilePath/" + url.PathEscape(name)
}
