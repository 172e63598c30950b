package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/service/archive"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// cmdExport prints an archived session transcript from the sqlite
// archive written by `serve --archive-db`.
func cmdExport() *cli.Command {
	var archivePath string
	var sessionID string
	var asJSON bool

	return &cli.Command{
		Name:  "export",
		Usage: "Print an archived session transcript",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "archive-db",
				Usage:       "Path to the sqlite archive file",
				Required:    true,
				Sources:     cli.EnvVars("FLOWDECK_ARCHIVE_DB"),
				Destination: &archivePath,
			},
			&cli.StringFlag{
				Name:        "session-id",
				Usage:       "Session ID to export",
				Required:    true,
				Destination: &sessionID,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Emit the transcript as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			arc, err := archive.Open(archivePath)
			if err != nil {
				return goerr.Wrap(err, "failed to open transcript archive")
			}
			defer func() {
				if err := arc.Close(); err != nil {
					logging.Default().Error("failed to close transcript archive", "error", err.Error())
				}
			}()

			turns, err := arc.LoadTurns(ctx, types.SessionID(sessionID))
			if err != nil {
				return goerr.Wrap(err, "failed to load archived transcript")
			}
			if len(turns) == 0 {
				return goerr.New("no archived transcript for session", goerr.V("sessionID", sessionID))
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(turns)
			}

			for _, turn := range turns {
				fmt.Fprintf(os.Stdout, "%s [%s] %s\n",
					turn.Time.Format("15:04:05"), turn.Speaker, turn.Text)
			}
			return nil
		},
	}
}
