package setup

import (
	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"

	"github.com/pdfwala/pdfops/internal/build"
	"github.com/pdfwala/pdfops/internal/config"
)

// InitSentry configures error reporting. It does nothing without a DSN.
func InitSentry(conf *config.Config) error {
	if conf.Sentry.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         conf.Sentry.DSN,
		Environment: conf.Sentry.Environment,
		Release:     build.ShortVersion,
	})
	if err != nil {
		return errors.Wrap(err, "could not initialize sentry")
	}

	return nil
}
