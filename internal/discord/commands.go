package discord

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

// Command triggers.
const (
	TriggerCommand = "command"
	TriggerTest    = "test"
)

const testReaction = "🧪"

// Runner delivers one briefing to channelID.
type Runner func(ctx context.Context, channelID, trigger string) error

type reactor interface {
	React(ctx context.Context, channelID, messageID, emoji string) error
}

// Commands routes "!briefing" and "!test" messages to a Runner.
type Commands struct {
	base    context.Context
	reactor reactor
	run     Runner
	timeout time.Duration

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewCommands creates a router. base carries the logger and is the parent of
// every command context; timeout bounds one command.
func NewCommands(base context.Context, r reactor, run Runner, timeout time.Duration) *Commands {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Commands{base: base, reactor: r, run: run, timeout: timeout}
}

// Handle is registered with Session.AddHandler.
func (c *Commands) Handle(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	if s != nil && s.State != nil && s.State.User != nil && m.Author != nil && m.Author.ID == s.State.User.ID {
		return
	}
	c.Dispatch(m.Message)
}

// Dispatch runs the command in msg, if any. Messages from bots are ignored.
func (c *Commands) Dispatch(msg *discordgo.Message) {
	const op = "discord/commands/Dispatch"

	if msg.Author != nil && msg.Author.Bot {
		return
	}

	var trigger string
	switch strings.ToLower(strings.TrimSpace(msg.Content)) {
	case "!briefing":
		trigger = TriggerCommand
	case "!test":
		trigger = TriggerTest
	default:
		return
	}

	if !c.begin() {
		return
	}
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(c.base, c.timeout)
	defer cancel()

	logger := log.From(ctx).With(
		slog.String("op", op),
		slog.String("channel", msg.ChannelID),
		slog.String("trigger", trigger),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("command_panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if trigger == TriggerTest {
		if err := c.reactor.React(ctx, msg.ChannelID, msg.ID, testReaction); err != nil {
			logger.Warn("react_failed", slog.String("err", err.Error()))
		}
	}

	if err := c.run(log.Into(ctx, logger), msg.ChannelID, trigger); err != nil {
		logger.Error("command_failed", slog.String("err", err.Error()))
	}
}

func (c *Commands) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.inflight.Add(1)
	return true
}

// Close stops accepting commands and waits for running ones to finish.
func (c *Commands) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.inflight.Wait()
}
