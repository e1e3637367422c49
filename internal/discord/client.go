// Package discord delivers briefings to Discord channels and routes the
// chat commands that trigger them.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/digest"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/media"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("discord bot token is empty")

// Client wraps a gateway session. The session is opened explicitly with
// Open so handlers can be registered first.
type Client struct {
	session *discordgo.Session
}

// New creates a bot client listening to guild messages and their content.
func New(token string) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	return &Client{session: s}, nil
}

// Session exposes the underlying session for handler registration.
func (c *Client) Session() *discordgo.Session { return c.session }

// Open connects to the gateway.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

// SendText posts a plain message and returns its id.
func (c *Client) SendText(ctx context.Context, channelID, text string) (string, error) {
	m, err := c.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send text: %w", err)
	}
	return m.ID, nil
}

// SendFile posts text with the payload attached.
func (c *Client) SendFile(ctx context.Context, channelID, text string, p media.Payload) (string, error) {
	m, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: text,
		Files: []*discordgo.File{{
			Name:        p.Filename,
			ContentType: p.ContentType,
			Reader:      bytes.NewReader(p.Data),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send file: %w", err)
	}
	return m.ID, nil
}

// SendDigest posts the digest as a rich embed.
func (c *Client) SendDigest(ctx context.Context, channelID string, rec digest.Record) (string, error) {
	m, err := c.session.ChannelMessageSendEmbed(channelID, Embed(rec), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send embed: %w", err)
	}
	return m.ID, nil
}

// React adds a unicode emoji reaction to a message.
func (c *Client) React(ctx context.Context, channelID, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	return nil
}

// Typing shows the typing indicator for a few seconds.
func (c *Client) Typing(ctx context.Context, channelID string) error {
	if err := c.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("typing: %w", err)
	}
	return nil
}

// SetPresence shows text as a "Watching" activity.
func (c *Client) SetPresence(_ context.Context, text string) error {
	if err := c.session.UpdateWatchStatus(0, text); err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}
