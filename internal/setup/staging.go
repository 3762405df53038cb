package setup

import (
	"context"

	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops/internal/config"
	"github.com/pdfwala/pdfops/internal/staging"
)

func NewStagerFromConfig(ctx context.Context, conf *config.Config, fs afero.Fs) *staging.Stager {
	return &staging.Stager{
		Fs:      fs,
		Dir:     conf.Storage.UploadDir,
		MaxSize: int64(conf.Engine.MaxFileSize),
		Allowed: []string{staging.MIMETypePDF},
	}
}

func NewSweeperFromConfig(ctx context.Context, conf *config.Config, fs afero.Fs) *staging.Sweeper {
	return &staging.Sweeper{
		Fs:        fs,
		Dir:       conf.Storage.UploadDir,
		Retention: conf.Storage.Retention,
		Interval:  conf.Storage.SweepInterval,
	}
}
