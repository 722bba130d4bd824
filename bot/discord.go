package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/daniel-tp/starbot/telemetry"
)

// DiscordConfig configures the Discord adapter.
type DiscordConfig struct {
	Token     string
	ChannelID string
	Commander *Commander
	// OnReady fires on every gateway ready event, including reconnects; the
	// receiver is expected to be idempotent.
	OnReady func(context.Context)
}

// Discord runs the bot over the Discord gateway. Announcements go to the one
// configured channel; commands are answered wherever they were asked.
type Discord struct {
	session   *discordgo.Session
	channelID string
	commander *Commander
	onReady   func(context.Context)
	connected atomic.Bool
}

// NewDiscord builds the session without connecting.
func NewDiscord(cfg DiscordConfig) (*Discord, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token empty")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("discord channel id empty")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	return &Discord{
		session:   session,
		channelID: cfg.ChannelID,
		commander: cfg.Commander,
		onReady:   cfg.OnReady,
	}, nil
}

// Run connects to the gateway and blocks until the context is cancelled.
func (d *Discord) Run(ctx context.Context) error {
	d.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		d.connected.Store(true)
		slog.Info("discord connected", slog.String("user", r.User.Username))
		if d.onReady != nil {
			d.onReady(ctx)
		}
	})
	d.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Disconnect) {
		d.connected.Store(false)
		slog.Warn("discord gateway disconnected")
	})
	d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		d.handleMessage(ctx, m)
	})

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	<-ctx.Done()
	d.connected.Store(false)
	if err := d.session.Close(); err != nil {
		slog.Warn("discord close", slog.Any("err", err))
	}
	return nil
}

func (d *Discord) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if d.commander == nil || m.Author == nil || m.Author.Bot {
		return
	}
	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	for _, line := range d.commander.HandleMessage(ctx, m.Content) {
		if _, err := d.session.ChannelMessageSend(m.ChannelID, line, discordgo.WithContext(ctx)); err != nil {
			telemetry.NotifyFailures.Inc()
			telemetry.LoggerWithCorr(ctx).Error("discord reply failed", slog.String("channel_id", m.ChannelID), slog.Any("err", err))
		}
	}
}

// Send implements Sink against the configured announcement channel.
func (d *Discord) Send(ctx context.Context, text string) error {
	_, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx))
	return err
}

// Connected reports whether the gateway session is up.
func (d *Discord) Connected() bool {
	return d.connected.Load()
}
