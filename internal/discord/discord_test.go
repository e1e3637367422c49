package discord

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/digest"
)

type call struct {
	kind, channel, message, value string
}

type recorder struct {
	calls []call
	err   error
}

func (r *recorder) React(_ context.Context, channelID, messageID, emoji string) error {
	r.calls = append(r.calls, call{"react", channelID, messageID, emoji})
	return r.err
}

func (r *recorder) runner() Runner {
	return func(_ context.Context, channelID, trigger string) error {
		r.calls = append(r.calls, call{kind: "run", channel: channelID, value: trigger})
		return nil
	}
}

func TestDispatch(t *testing.T) {
	cases := []struct {
		name string
		msg  discordgo.Message
		want []call
	}{
		{
			name: "briefing runs without reaction",
			msg:  discordgo.Message{ID: "m1", ChannelID: "c1", Content: "!briefing", Author: &discordgo.User{}},
			want: []call{{kind: "run", channel: "c1", value: TriggerCommand}},
		},
		{
			name: "test reacts first",
			msg:  discordgo.Message{ID: "m2", ChannelID: "c1", Content: "  !TEST ", Author: &discordgo.User{}},
			want: []call{
				{kind: "react", channel: "c1", message: "m2", value: "🧪"},
				{kind: "run", channel: "c1", value: TriggerTest},
			},
		},
		{
			name: "bots are ignored",
			msg:  discordgo.Message{ID: "m3", ChannelID: "c1", Content: "!briefing", Author: &discordgo.User{Bot: true}},
		},
		{
			name: "other text is ignored",
			msg:  discordgo.Message{ID: "m4", ChannelID: "c1", Content: "!briefing please"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			c := NewCommands(context.Background(), rec, rec.runner(), time.Second)
			c.Dispatch(&tc.msg)
			require.Equal(t, tc.want, rec.calls)
		})
	}
}

func TestDispatch_ReactionFailureStillRuns(t *testing.T) {
	rec := &recorder{err: errors.New("missing permissions")}
	c := NewCommands(context.Background(), rec, rec.runner(), time.Second)

	c.Dispatch(&discordgo.Message{ID: "m", ChannelID: "c", Content: "!test"})
	require.Len(t, rec.calls, 2)
	require.Equal(t, "run", rec.calls[1].kind)
}

func TestDispatch_RecoversPanickingRunner(t *testing.T) {
	rec := &recorder{}
	c := NewCommands(context.Background(), rec, func(context.Context, string, string) error {
		panic("decoder blew up")
	}, time.Second)

	require.NotPanics(t, func() {
		c.Dispatch(&discordgo.Message{ID: "m", ChannelID: "c", Content: "!briefing"})
	})

	c.Dispatch(&discordgo.Message{ID: "m", ChannelID: "c", Content: "!test"})
	require.Equal(t, []call{{kind: "react", channel: "c", message: "m", value: "🧪"}}, rec.calls)
}

func TestClose_WaitsForRunningCommands(t *testing.T) {
	rec := &recorder{}
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	c := NewCommands(context.Background(), rec, func(context.Context, string, string) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}, time.Minute)

	go c.Dispatch(&discordgo.Message{ID: "m", ChannelID: "c", Content: "!briefing"})
	<-started

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a command was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-closed
	require.True(t, finished.Load())

	// Commands after Close are dropped.
	c.Dispatch(&discordgo.Message{ID: "m2", ChannelID: "c", Content: "!briefing"})
	require.Empty(t, rec.calls)
}

func TestHandle_IgnoresOwnMessages(t *testing.T) {
	rec := &recorder{}
	c := NewCommands(context.Background(), rec, rec.runner(), time.Second)

	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: "me"}

	c.Handle(s, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "c", Content: "!briefing", Author: &discordgo.User{ID: "me"}}})
	require.Empty(t, rec.calls)

	c.Handle(s, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "c", Content: "!briefing", Author: &discordgo.User{ID: "you"}}})
	require.Len(t, rec.calls, 1)
}

func TestEmbed(t *testing.T) {
	ts := time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC)
	rec := digest.Record{
		Title:        "☁️ Weather in Kolkata • Overcast clouds",
		Color:        0xF39C12,
		Fields:       []digest.Field{{Name: "🌡️ Temperature", Value: "28°C", Inline: true}},
		ThumbnailURL: "https://openweathermap.org/img/wn/04d@4x.png",
		ImageURL:     "https://img/kolkata.jpg",
		Footer:       digest.Footer,
		Timestamp:    ts,
	}

	e := Embed(rec)
	require.Equal(t, rec.Title, e.Title)
	require.Equal(t, 0xF39C12, e.Color)
	require.Equal(t, "2026-10-18T07:30:00Z", e.Timestamp)
	require.Equal(t, []*discordgo.MessageEmbedField{{Name: "🌡️ Temperature", Value: "28°C", Inline: true}}, e.Fields)
	require.Equal(t, rec.ThumbnailURL, e.Thumbnail.URL)
	require.Equal(t, rec.ImageURL, e.Image.URL)
	require.Equal(t, digest.Footer, e.Footer.Text)

	errEmbed := Embed(digest.Record{Title: "Weather in Kolkata", Description: "Unable to fetch data.", Color: 0xE74C3C, Error: true})
	require.Equal(t, "Unable to fetch data.", errEmbed.Description)
	require.Nil(t, errEmbed.Fields)
	require.Nil(t, errEmbed.Image)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New("")
	require.ErrorIs(t, err, ErrMissingToken)

	c, err := New("abc")
	require.NoError(t, err)
	require.Equal(t, discordgo.IntentsGuildMessages|discordgo.IntentMessageContent, c.Session().Identify.Intents)
}
