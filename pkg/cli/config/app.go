package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppSettings is the TOML application configuration: session pacing and
// assistant presentation. Everything has a sensible zero default, so the
// file is optional.
type AppSettings struct {
	Session struct {
		WelcomeText    string `toml:"welcome_text"`
		WelcomeDelayMS int64  `toml:"welcome_delay_ms"`
		ContextDelayMS int64  `toml:"context_delay_ms"`
	} `toml:"session"`

	Assistant struct {
		Language string `toml:"language"`
	} `toml:"assistant"`
}

// WelcomeDelay returns the welcome pacing delay
func (s *AppSettings) WelcomeDelay() time.Duration {
	return time.Duration(s.Session.WelcomeDelayMS) * time.Millisecond
}

// ContextDelay returns the context announcement pacing delay
func (s *AppSettings) ContextDelay() time.Duration {
	return time.Duration(s.Session.ContextDelayMS) * time.Millisecond
}

// App holds the CLI flag pointing at the TOML config file
type App struct {
	configPath string
}

// Flags returns CLI flags for app configuration
func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to TOML application config file",
			Sources:     cli.EnvVars("FLOWDECK_CONFIG"),
			Destination: &a.configPath,
		},
	}
}

// Configure loads the TOML settings. A missing flag yields defaults; a
// missing file is an error so typos do not silently disable config.
func (a *App) Configure() (*AppSettings, error) {
	settings := &AppSettings{}
	if a.configPath == "" {
		return settings, nil
	}

	data, err := os.ReadFile(a.configPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read app config", goerr.V("path", a.configPath))
	}
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, goerr.Wrap(err, "failed to parse app config", goerr.V("path", a.configPath))
	}
	return settings, nil
}
