package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/cli/config"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

func configureApp(t *testing.T, args ...string) (*config.AppSettings, error) {
	t.Helper()
	var appCfg config.App
	var settings *config.AppSettings
	var cfgErr error

	cmd := &cli.Command{
		Name:  "test",
		Flags: appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, cfgErr = appCfg.Configure()
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...))).Required()
	return settings, cfgErr
}

func TestAppConfigure(t *testing.T) {
	t.Run("no config file yields defaults", func(t *testing.T) {
		settings, err := configureApp(t)
		gt.NoError(t, err).Required()
		gt.Value(t, settings.Session.WelcomeText).Equal("")
		gt.Value(t, settings.WelcomeDelay()).Equal(time.Duration(0))
		gt.Value(t, settings.Assistant.Language).Equal("")
	})

	t.Run("TOML file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowdeck.toml")
		content := `
[session]
welcome_text = "Welcome aboard."
welcome_delay_ms = 500
context_delay_ms = 250

[assistant]
language = "Japanese"
`
		gt.NoError(t, os.WriteFile(path, []byte(content), 0o644)).Required()

		settings, err := configureApp(t, "--config", path)
		gt.NoError(t, err).Required()
		gt.Value(t, settings.Session.WelcomeText).Equal("Welcome aboard.")
		gt.Value(t, settings.WelcomeDelay()).Equal(500 * time.Millisecond)
		gt.Value(t, settings.ContextDelay()).Equal(250 * time.Millisecond)
		gt.Value(t, settings.Assistant.Language).Equal("Japanese")
	})

	t.Run("missing file is an error, not a silent default", func(t *testing.T) {
		_, err := configureApp(t, "--config", filepath.Join(t.TempDir(), "nope.toml"))
		gt.Value(t, err).NotNil()
	})

	t.Run("malformed TOML is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.toml")
		gt.NoError(t, os.WriteFile(path, []byte("[session\nwelcome_text = "), 0o644)).Required()

		_, err := configureApp(t, "--config", path)
		gt.Value(t, err).NotNil()
	})
}
