// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Required credentials are checked separately via Validate.
package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	// Star Realms account
	SRUsername string
	SRPassword string
	SRBaseURL  string

	// Chat platform selection: "discord" or "twitch"
	ChatPlatform string

	// Discord
	DiscordToken     string
	DiscordChannelID string

	// Twitch
	TwitchBotUsername string
	TwitchOAuthToken  string
	TwitchChannel     string

	// Polling cadence
	PollInterval     time.Duration
	IdlePollInterval time.Duration
	IdleAfter        time.Duration

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail on
// missing credentials; use Validate() before connecting anywhere.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.SRUsername = os.Getenv("SR_USERNAME")
	cfg.SRPassword = os.Getenv("SR_PASSWORD")
	// Empty means the client's production default.
	cfg.SRBaseURL = os.Getenv("SR_BASE_URL")

	cfg.ChatPlatform = os.Getenv("CHAT_PLATFORM")
	if cfg.ChatPlatform == "" {
		cfg.ChatPlatform = "discord"
	}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	cfg.DiscordChannelID = os.Getenv("DISCORD_CHANNEL_ID")

	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")
	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")

	var err error
	if cfg.PollInterval, err = envDuration("POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.IdlePollInterval, err = envDuration("IDLE_POLL_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.IdleAfter, err = envDuration("IDLE_AFTER", 30*time.Minute); err != nil {
		return nil, err
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// Validate checks the credentials required to log in and to join chat on the
// selected platform.
func (c *Config) Validate() error {
	if c.SRUsername == "" || c.SRPassword == "" {
		return fmt.Errorf("missing star realms env: require SR_USERNAME, SR_PASSWORD")
	}
	switch c.ChatPlatform {
	case "discord":
		if c.DiscordToken == "" || c.DiscordChannelID == "" {
			return fmt.Errorf("missing discord env: require DISCORD_TOKEN, DISCORD_CHANNEL_ID")
		}
	case "twitch":
		if c.TwitchBotUsername == "" || c.TwitchOAuthToken == "" || c.TwitchChannel == "" {
			return fmt.Errorf("missing twitch env: require TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN, TWITCH_CHANNEL")
		}
	default:
		return fmt.Errorf("unknown CHAT_PLATFORM %q (want discord or twitch)", c.ChatPlatform)
	}
	return nil
}

// envDuration parses a duration environment variable or returns the default.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
