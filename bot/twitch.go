package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/daniel-tp/starbot/telemetry"
)

// TwitchConfig configures the Twitch IRC adapter.
type TwitchConfig struct {
	Username   string
	OAuthToken string
	Channel    string
	Commander  *Commander
	// OnReady fires on every connect, including automatic reconnects; the
	// receiver is expected to be idempotent.
	OnReady func(context.Context)
}

// Twitch runs the bot in a single Twitch channel over IRC. Announcements and
// command replies both go to that channel.
type Twitch struct {
	client    *twitch.Client
	channel   string
	commander *Commander
	onReady   func(context.Context)
	connected atomic.Bool
}

// NewTwitch builds the IRC client without connecting.
func NewTwitch(cfg TwitchConfig) (*Twitch, error) {
	if cfg.Username == "" || cfg.OAuthToken == "" {
		return nil, fmt.Errorf("twitch credentials empty")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("twitch channel empty")
	}
	return &Twitch{
		client:    twitch.NewClient(cfg.Username, cfg.OAuthToken),
		channel:   cfg.Channel,
		commander: cfg.Commander,
		onReady:   cfg.OnReady,
	}, nil
}

// Run connects to Twitch IRC and blocks until the context is cancelled.
func (t *Twitch) Run(ctx context.Context) error {
	t.client.OnConnect(func() {
		t.connected.Store(true)
		slog.Info("twitch chat connected", slog.String("channel", t.channel))
		if t.onReady != nil {
			t.onReady(ctx)
		}
	})
	t.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		t.handleMessage(ctx, msg)
	})

	go func() {
		<-ctx.Done()
		t.connected.Store(false)
		if err := t.client.Disconnect(); err != nil {
			slog.Warn("twitch disconnect", slog.Any("err", err))
		}
	}()

	t.client.Join(t.channel)
	if err := t.client.Connect(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("twitch chat connect: %w", err)
	}
	return nil
}

func (t *Twitch) handleMessage(ctx context.Context, msg twitch.PrivateMessage) {
	if t.commander == nil {
		return
	}
	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	for _, line := range t.commander.HandleMessage(ctx, msg.Message) {
		t.client.Say(t.channel, line)
	}
}

// Send implements Sink. Say is fire-and-forget on the IRC connection, so a
// send failure only ever surfaces as a dropped message.
func (t *Twitch) Send(_ context.Context, text string) error {
	t.client.Say(t.channel, text)
	return nil
}

// Connected reports whether the IRC connection is up.
func (t *Twitch) Connected() bool {
	return t.connected.Load()
}
