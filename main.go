// Command starbot watches a Star Realms account for activity and announces it
// to a chat channel. It:
//   - Loads configuration and initializes structured logging.
//   - Logs in to the Star Realms web service and primes the tracker with the
//     current backlog so pre-existing games are not re-announced.
//   - Connects to Discord or Twitch chat and starts the polling loop once the
//     connection is up.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/daniel-tp/starbot/bot"
	"github.com/daniel-tp/starbot/config"
	"github.com/daniel-tp/starbot/server"
	"github.com/daniel-tp/starbot/starrealms"
	"github.com/daniel-tp/starbot/telemetry"
	"github.com/daniel-tp/starbot/tracker"
	"github.com/daniel-tp/starbot/watch"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("starbot", version)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Star Realms session. Login and the priming fetch are fatal: without a
	// session there is nothing to announce, and without the backlog every old
	// game would be re-announced on the first cycle.
	client := starrealms.New(starrealms.Config{
		Username: cfg.SRUsername,
		Password: cfg.SRPassword,
		BaseURL:  cfg.SRBaseURL,
	})
	startupCtx, cancelStartup := context.WithTimeout(ctx, 15*time.Second)
	defer cancelStartup()
	if err := client.Login(startupCtx); err != nil {
		slog.Error("star realms login failed", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("star realms login ok", slog.String("username", cfg.SRUsername))

	tr := tracker.New()
	act, err := client.Activity(startupCtx)
	if err != nil {
		slog.Error("initial activity fetch failed", slog.Any("err", err))
		os.Exit(1)
	}
	tr.Prime(act)
	slog.Info("activity backlog primed",
		slog.Int("games", len(act.ActiveGames)),
		slog.Int("challenges", len(act.Challenges)),
		slog.Int("finished", len(act.FinishedGames)),
	)

	// Chat platform. The watcher starts from the platform's ready callback so
	// announcements never race the connection; ready fires again on reconnect
	// and Start swallows the repeats.
	commander := &bot.Commander{Source: client, Tracker: tr, Version: version}

	var watcher *watch.Watcher
	onReady := func(ctx context.Context) { watcher.Start(ctx) }

	var platform bot.Platform
	switch cfg.ChatPlatform {
	case "twitch":
		platform, err = bot.NewTwitch(bot.TwitchConfig{
			Username:   cfg.TwitchBotUsername,
			OAuthToken: cfg.TwitchOAuthToken,
			Channel:    cfg.TwitchChannel,
			Commander:  commander,
			OnReady:    onReady,
		})
	default:
		platform, err = bot.NewDiscord(bot.DiscordConfig{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannelID,
			Commander: commander,
			OnReady:   onReady,
		})
	}
	if err != nil {
		slog.Error("chat platform setup failed", slog.String("platform", cfg.ChatPlatform), slog.Any("err", err))
		os.Exit(1)
	}

	watcher = watch.New(client, tr, &bot.Announcer{Sink: platform}, watch.Config{
		Interval:     cfg.PollInterval,
		IdleInterval: cfg.IdlePollInterval,
		IdleAfter:    cfg.IdleAfter,
	})

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			// Use an http.Server with timeouts to satisfy G114 and avoid DoS risks
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/status/metrics)
	handlers := server.NewHandlers(tr, watcher, platform.Connected, cfg.ChatPlatform, version)
	go func() {
		if err := server.Start(ctx, handlers, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block in the chat connection until shutdown signal
	if err := platform.Run(ctx); err != nil {
		slog.Error("chat platform exited with error", slog.String("platform", cfg.ChatPlatform), slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
