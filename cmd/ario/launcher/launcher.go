package launcher

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ario/flags"
)

const (
	configKey = "config"
	loggerKey = "logger"
)

var errNoConfig = errors.New("launcher: configuration not initialized")

func newApp() *cli.App {
	app := flags.NewApp("ARIO network process: replay messages and inspect snapshots")
	app.Flags = flags.AllFlags()
	app.Metadata = make(map[string]interface{})
	app.Commands = []cli.Command{
		replayCommand,
		dumpStateCommand,
		historyCommand,
		rewindCommand,
		genesisCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := MakeAllConfigs(ctx)
		if err != nil {
			return err
		}
		logger, err := setupLogging(cfg.Logging, ctx.App.ErrWriter)
		if err != nil {
			return err
		}
		ctx.App.Metadata[configKey] = cfg
		ctx.App.Metadata[loggerKey] = logger
		return nil
	}
	return app
}

// Launch parses args and runs the selected command.
func Launch(args []string) error {
	return newApp().Run(args)
}

func configOf(ctx *cli.Context) (Config, *logrus.Logger, error) {
	cfg, ok := ctx.App.Metadata[configKey].(Config)
	if !ok {
		return Config{}, nil, errNoConfig
	}
	logger, ok := ctx.App.Metadata[loggerKey].(*logrus.Logger)
	if !ok {
		return Config{}, nil, errNoConfig
	}
	return cfg, logger, nil
}
