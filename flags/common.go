package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the flags shared by every command: where data lives,
// how the launcher logs and where instrumentation goes.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Data directory for the snapshot store",
			Value: "~/.ario",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML configuration file",
		},
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=crit,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.color",
			Usage: "Enable colored log output",
		},
		cli.StringFlag{
			Name:  "sentry.dsn",
			Usage: "Sentry DSN receiving error-level log events",
		},
		cli.StringFlag{
			Name:  "metrics.file",
			Usage: "Write Prometheus metrics in text format to this file after a replay",
		},
	}
}
