package launcher

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// maxVerbosity matches log.LvlTrace.
const maxVerbosity = 5

// setupLogging builds the launcher logger and routes the root logger of the
// core packages through it.
func setupLogging(cfg LoggingConfig, w io.Writer) (*logrus.Logger, error) {
	if cfg.Verbosity < 0 || cfg.Verbosity > maxVerbosity {
		return nil, fmt.Errorf("log verbosity %d out of range 0..%d", cfg.Verbosity, maxVerbosity)
	}

	logger := logrus.New()
	logger.Out = w
	switch cfg.Format {
	case "", "text":
		logger.Formatter = &logrus.TextFormatter{
			ForceColors:   cfg.Color,
			DisableColors: !cfg.Color,
			FullTimestamp: true,
		}
	case "json":
		logger.Formatter = &logrus.JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", cfg.Format)
	}
	// logrus counts from panic, one level above crit
	logger.SetLevel(logrus.Level(cfg.Verbosity + 1))

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("sentry hook: %w", err)
		}
		logger.AddHook(hook)
	}

	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(cfg.Verbosity), logrusHandler(logger)))
	return logger, nil
}

// logrusHandler forwards records with their context as fields.
func logrusHandler(logger *logrus.Logger) log.Handler {
	return log.FuncHandler(func(r *log.Record) error {
		fields := make(logrus.Fields, len(r.Ctx)/2)
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			k, ok := r.Ctx[i].(string)
			if !ok {
				k = fmt.Sprint(r.Ctx[i])
			}
			fields[k] = r.Ctx[i+1]
		}
		entry := logger.WithFields(fields).WithTime(r.Time)
		switch r.Lvl {
		case log.LvlCrit, log.LvlError:
			entry.Error(r.Msg)
		case log.LvlWarn:
			entry.Warn(r.Msg)
		case log.LvlInfo:
			entry.Info(r.Msg)
		case log.LvlDebug:
			entry.Debug(r.Msg)
		default:
			entry.Trace(r.Msg)
		}
		return nil
	})
}
