package setup

import (
	"context"

	"github.com/pdfwala/pdfops/internal/adapter/pdfcpu"
	"github.com/pdfwala/pdfops/internal/config"
	"github.com/pdfwala/pdfops/internal/metrics"
	"github.com/pdfwala/pdfops/pipeline"
)

func NewEngineFromConfig(ctx context.Context, conf *config.Config) *pipeline.Engine {
	options := []pipeline.OptionFunc{
		pipeline.WithWorkers(conf.Engine.Workers),
		pipeline.WithLimits(pipeline.Limits{
			MaxFileSize: int64(conf.Engine.MaxFileSize),
			MaxFiles:    conf.Engine.MaxFiles,
			MaxPages:    conf.Engine.MaxPages,
		}),
		pipeline.WithObserver(metrics.JobObserver{}),
	}

	if conf.Engine.VerifyOutput {
		options = append(options, pipeline.WithVerifier(pdfcpu.NewVerifier()))
	}

	return pipeline.NewEngine(options...)
}
