package feed

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier mirrors a feed note to an external destination
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type slackNotifier struct {
	api       *slack.Client
	channelID string
}

// NewSlackNotifier creates a Notifier posting to a Slack channel
func NewSlackNotifier(botToken, channelID string) (Notifier, error) {
	if botToken == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	return &slackNotifier{
		api:       slack.New(botToken),
		channelID: channelID,
	}, nil
}

func (n *slackNotifier) Notify(ctx context.Context, text string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post feed note to Slack",
			goerr.V("channelID", n.channelID),
		)
	}
	return nil
}
