package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"discord-snake-bot/internal/disambig"
	"discord-snake-bot/internal/platform"
)

// guessChoices is how many options a guessing round presents,
// including the answer.
const guessChoices = 5

// HandleGuess handles `guess`: show a random snake's image and ask the
// requester to pick the right name among distractors. The pick reuses
// the disambiguation machinery, so pagination and cancellation behave
// exactly as they do for `get`.
func (h *SnakeHandler) HandleGuess(ctx context.Context, msg platform.Message, _ []string) {
	answer := h.dict.RandomCanonical(h.rng)

	record, err := h.wiki.Fetch(ctx, answer)
	if err != nil || record.Incomplete || len(record.Images) == 0 {
		if err != nil {
			log.Error().Err(err).Str("name", answer).Msg("Wikipedia lookup failed")
		}
		h.sendText(msg.ChannelID, "Could not fetch data.")
		return
	}

	options := h.guessOptions(answer)

	prompt := &platform.Embed{
		Title: "Which snake is this?",
		Color: h.cfg.Embed.Color,
		Image: &platform.EmbedImage{URL: imageURL(record.Images[0])},
	}
	if _, err := h.messenger.SendEmbed(msg.ChannelID, prompt); err != nil {
		log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("Failed to send guess prompt")
		return
	}

	choice, err := h.disamb.Disambiguate(ctx, &disambig.Request{
		UserID:     msg.AuthorID,
		ChannelID:  msg.ChannelID,
		Candidates: options,
		Timeout:    h.cfg.Disambig.Timeout,
		Color:      h.cfg.Embed.Color,
	})
	if err != nil {
		if errors.Is(err, disambig.ErrInvalidChoice) {
			h.sendText(msg.ChannelID, fmt.Sprintf("Invalid choice. It was %s.", answer))
			return
		}
		h.sendFailure(msg.ChannelID, err)
		return
	}

	if choice == answer {
		text := fmt.Sprintf("✅ Correct! It was %s.", answer)
		if fact, ok := h.dict.Fact(answer); ok {
			text += "\n" + fact
		}
		h.sendText(msg.ChannelID, text)
		return
	}
	h.sendText(msg.ChannelID, fmt.Sprintf("❌ Wrong! It was %s.", answer))
}

// guessOptions returns the answer plus distinct random distractors, in
// shuffled order.
func (h *SnakeHandler) guessOptions(answer string) []string {
	options := []string{answer}
	seen := map[string]struct{}{answer: {}}

	pool := h.dict.Canonicals()
	h.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for _, name := range pool {
		if len(options) >= guessChoices {
			break
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		options = append(options, name)
	}

	h.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}
