package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowdeck-dev/flowdeck/pkg/cli/config"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

func configureLogger(t *testing.T, args ...string) (func(), error) {
	t.Helper()
	var loggerCfg config.Logger
	var closer func()
	var cfgErr error

	cmd := &cli.Command{
		Name:  "test",
		Flags: loggerCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			closer, cfgErr = loggerCfg.Configure()
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...))).Required()
	return closer, cfgErr
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("defaults are accepted", func(t *testing.T) {
		closer, err := configureLogger(t)
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("invalid level is rejected", func(t *testing.T) {
		_, err := configureLogger(t, "--log-level", "verbose")
		gt.Value(t, err).NotNil()
		gt.Bool(t, strings.Contains(err.Error(), "invalid log level")).True()
	})

	t.Run("invalid format is rejected", func(t *testing.T) {
		_, err := configureLogger(t, "--log-format", "xml")
		gt.Value(t, err).NotNil()
		gt.Bool(t, strings.Contains(err.Error(), "invalid log format")).True()
	})

	t.Run("file output writes JSON records", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		closer, err := configureLogger(t, "--log-format", "json", "--log-output", path)
		gt.NoError(t, err).Required()

		logging.Default().Info("hello from test", "answer", 42)
		closer()

		data, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.Contains(string(data), "hello from test")).True()
		gt.Bool(t, strings.Contains(string(data), `"answer":42`)).True()
	})
}
