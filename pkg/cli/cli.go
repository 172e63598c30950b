package cli

import (
	"context"

	"github.com/flowdeck-dev/flowdeck/pkg/cli/config"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/errutil"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "flowdeck",
		Usage:   "FlowDeck live session orchestration service",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting flowdeck", "logger", loggerCfg.LogValue())
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdChat(),
			cmdExport(),
		},
	}

	return errutil.Handle(ctx, app.Run(ctx, args), "failed to run app")
}
