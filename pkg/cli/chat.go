package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/flowdeck-dev/flowdeck/pkg/cli/config"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/service/assistant"
	"github.com/flowdeck-dev/flowdeck/pkg/usecase"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// cmdChat runs one assistant exchange for an event from the terminal,
// mainly for trying prompts against real data without the HTTP surface.
func cmdChat() *cli.Command {
	var eventID string
	var message string
	var speaker string
	var appCfg config.App
	var repoCfg config.Repository
	var llmCfg config.LLM

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "event-id",
			Usage:       "Event ID to open the session for",
			Required:    true,
			Sources:     cli.EnvVars("FLOWDECK_EVENT_ID"),
			Destination: &eventID,
		},
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "Message to send to the assistant",
			Required:    true,
			Destination: &message,
		},
		&cli.StringFlag{
			Name:        "speaker",
			Usage:       "Speaker name attributed to the message",
			Value:       "You",
			Destination: &speaker,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Send one message to the session assistant and print the reply",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load app configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}
			if llmClient == nil {
				return goerr.New("LLM credentials are required for chat")
			}

			ucOpts := []usecase.Option{}
			if settings.Assistant.Language != "" {
				ucOpts = append(ucOpts, usecase.WithLanguage(settings.Assistant.Language))
			}
			uc := usecase.New(repo, llmClient, ucOpts...)
			defer uc.Sessions.CloseAll()

			session, err := uc.Sessions.Open(ctx, types.SessionID("chat-"+eventID), types.EventID(eventID))
			if err != nil {
				return goerr.Wrap(err, "failed to open session")
			}

			// Wait for the opening sequence so the assistant is primed
			select {
			case <-session.Ready():
			case <-ctx.Done():
				return ctx.Err()
			}

			for _, turn := range session.Transcript() {
				fmt.Fprintf(os.Stdout, "[%s] %s\n", turn.Speaker, turn.Text)
			}

			events, err := session.SendUserMessage(ctx, types.Speaker(speaker), message)
			if err != nil {
				return goerr.Wrap(err, "failed to send message")
			}

			fmt.Fprintf(os.Stdout, "[%s] %s\n[%s] ", speaker, message, types.SpeakerAssistant)
			for ev := range events {
				switch ev.Kind {
				case assistant.EventChunk:
					fmt.Fprint(os.Stdout, ev.Chunk)
				case assistant.EventSuggestions:
					fmt.Fprintln(os.Stdout, "\n\nSuggested operations:")
					for _, op := range ev.Suggestions {
						fmt.Fprintf(os.Stdout, "  [%s] %s: %s\n", op.Priority, op.Operation, op.Description)
					}
				case assistant.EventDone:
					fmt.Fprintln(os.Stdout)
				case assistant.EventError:
					fmt.Fprintln(os.Stdout)
					return goerr.Wrap(ev.Err, "assistant generation failed")
				}
			}

			return nil
		},
	}
}
