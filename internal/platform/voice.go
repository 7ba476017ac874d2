package platform

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoVoiceChannel is returned when a clip is requested for a user who
// is not connected to any voice channel.
var ErrNoVoiceChannel = errors.New("user is not in a voice channel")

// UserChannel implements VoicePlayer. It reports the voice channel the
// user is currently connected to in the given guild, if any.
func (s *Session) UserChannel(guildID, userID string) (string, bool) {
	g, err := s.dg.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, true
		}
	}
	return "", false
}

// PlayClip implements VoicePlayer. It joins the voice channel, streams
// the DCA-encoded clip, and disconnects.
func (s *Session) PlayClip(ctx context.Context, guildID, channelID, clipPath string) error {
	frames, err := LoadClip(clipPath)
	if err != nil {
		return err
	}

	vc, err := s.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}
	defer func() { _ = vc.Disconnect() }()

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("failed to set speaking: %w", err)
	}
	defer func() { _ = vc.Speaking(false) }()

	for _, frame := range frames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case vc.OpusSend <- frame:
		}
	}
	return nil
}

// LoadClip reads a DCA file: a sequence of little-endian int16 frame
// lengths, each followed by that many bytes of opus data.
func LoadClip(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip: %w", err)
	}
	defer f.Close()

	var frames [][]byte
	for {
		var frameLen int16
		err := binary.Read(f, binary.LittleEndian, &frameLen)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read frame length: %w", err)
		}
		if frameLen <= 0 {
			return nil, fmt.Errorf("invalid frame length %d", frameLen)
		}

		frame := make([]byte, frameLen)
		if _, err := io.ReadFull(f, frame); err != nil {
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}
		frames = append(frames, frame)
	}
}
