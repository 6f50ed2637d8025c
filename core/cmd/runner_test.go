package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/meetsy/core/config"
	"github.com/m3rciful/meetsy/core/slackbot"
)

type stubApp struct {
	opts   slackbot.RunOptions
	err    error
	closed *bool
}

func (a stubApp) SlackRunOptions() (slackbot.RunOptions, error) { return a.opts, a.err }

func (a stubApp) Close() error {
	if a.closed != nil {
		*a.closed = true
	}
	return nil
}

func TestRunWiresLifecycleHooks(t *testing.T) {
	t.Setenv("MEETSY_TEST_CONFIG", "custom.yaml")

	var loadedFrom string
	var started, stopped, shutdown, closed bool
	err := Run(Options{
		ConfigEnvVar: "MEETSY_TEST_CONFIG",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			loadedFrom = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(context.Context, *coreconfig.Config) (SlackApp, error) {
			return stubApp{closed: &closed, opts: slackbot.RunOptions{
				OnStart: func(context.Context, slackbot.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, slackbot.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { shutdown = true; return nil },
		RunSlack: func(ctx context.Context, opts slackbot.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, slackbot.Runtime{}))
			return opts.OnStop(ctx, slackbot.Runtime{})
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "custom.yaml", loadedFrom)
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, shutdown)
	assert.False(t, closed, "a running app is closed by OnStop")
}

func TestRunClosesAppWhenRunOptionsFail(t *testing.T) {
	var closed, ran bool
	err := Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap: func(context.Context, *coreconfig.Config) (SlackApp, error) {
			return stubApp{err: errors.New("bad token"), closed: &closed}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunSlack: func(context.Context, slackbot.RunOptions) error {
			ran = true
			return nil
		},
	})
	assert.ErrorContains(t, err, "slack options build failed")
	assert.True(t, closed)
	assert.False(t, ran)
}

func TestRunDefaultsConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	var loadedFrom string
	err := Run(Options{
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			loadedFrom = path
			return nil, errors.New("stop here")
		},
		Bootstrap: func(context.Context, *coreconfig.Config) (SlackApp, error) { return stubApp{}, nil },
	})
	assert.ErrorContains(t, err, "failed to load config")
	assert.Equal(t, "config.yaml", loadedFrom)
}

func TestRunRequiresBootstrap(t *testing.T) {
	assert.Error(t, Run(Options{}))
}

func TestRunReportsBootstrapFailure(t *testing.T) {
	err := Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap: func(context.Context, *coreconfig.Config) (SlackApp, error) {
			return nil, errors.New("no templates")
		},
	})
	assert.ErrorContains(t, err, "bootstrap failed")
}
