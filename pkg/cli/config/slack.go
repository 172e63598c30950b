package config

import (
	"github.com/flowdeck-dev/flowdeck/pkg/service/feed"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the optional Slack feed notifier
type Slack struct {
	botToken  string
	channelID string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack bot token for mirroring feed notes",
			Sources:     cli.EnvVars("FLOWDECK_SLACK_BOT_TOKEN"),
			Destination: &s.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID for feed notes",
			Sources:     cli.EnvVars("FLOWDECK_SLACK_CHANNEL_ID"),
			Destination: &s.channelID,
		},
	}
}

// IsConfigured reports whether both token and channel are set
func (s *Slack) IsConfigured() bool {
	return s.botToken != "" && s.channelID != ""
}

// Configure creates the Slack notifier, or nil when not configured
func (s *Slack) Configure() (feed.Notifier, error) {
	if !s.IsConfigured() {
		return nil, nil
	}
	return feed.NewSlackNotifier(s.botToken, s.channelID)
}
