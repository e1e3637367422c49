package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/digest"
)

// Embed renders a digest record as a Discord embed.
func Embed(rec digest.Record) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       rec.Title,
		Description: rec.Description,
		Color:       rec.Color,
	}
	if !rec.Timestamp.IsZero() {
		e.Timestamp = rec.Timestamp.UTC().Format(time.RFC3339)
	}
	if rec.Error {
		return e
	}

	e.Fields = make([]*discordgo.MessageEmbedField, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	if rec.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: rec.ThumbnailURL}
	}
	if rec.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: rec.ImageURL}
	}
	if rec.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: rec.Footer}
	}

	return e
}
