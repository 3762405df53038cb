package config

import (
	"log/slog"
	"reflect"

	"github.com/caarlos0/env/v11"
	"github.com/docker/go-units"
	"github.com/pkg/errors"
)

type Config struct {
	Logger  Logger  `envPrefix:"LOGGER_"`
	HTTP    HTTP    `envPrefix:"HTTP_"`
	Engine  Engine  `envPrefix:"ENGINE_"`
	Storage Storage `envPrefix:"STORAGE_"`
	Sentry  Sentry  `envPrefix:"SENTRY_"`
}

type Logger struct {
	Level slog.Level `env:"LEVEL" envDefault:"info"`
}

type Sentry struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"production"`
}

// Size is a byte count read from a human size such as "100MB" or "1.5GiB".
type Size int64

func Parse() (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix:  "PDFOPS_",
		FuncMap: funcMap,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &conf, nil
}

var funcMap = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(Size(0)): func(v string) (any, error) {
		size, err := units.RAMInBytes(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid size %q", v)
		}
		return Size(size), nil
	},
}
