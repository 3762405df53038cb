package common

import (
	"os"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/pdfwala/pdfops/internal/adapter/pdfcpu"
	"github.com/pdfwala/pdfops/pipeline"
)

const (
	paramWorkers     = "workers"
	paramMaxFileSize = "max-file-size"
	paramMaxPages    = "max-pages"
	paramVerify      = "verify"
	paramPassword    = "password"
)

var (
	flagWorkers = &cli.IntFlag{
		Name:    paramWorkers,
		Usage:   "Number of parallel workers (0 for the number of CPUs)",
		EnvVars: []string{"PDFOPS_ENGINE_WORKERS"},
	}
	flagMaxFileSize = &cli.StringFlag{
		Name:    paramMaxFileSize,
		Usage:   "Maximum size of an input file",
		Value:   "100MB",
		EnvVars: []string{"PDFOPS_ENGINE_MAX_FILE_SIZE"},
	}
	flagMaxPages = &cli.IntFlag{
		Name:    paramMaxPages,
		Usage:   "Maximum number of pages of an input document (0 for no limit)",
		EnvVars: []string{"PDFOPS_ENGINE_MAX_PAGES"},
	}
	flagVerify = &cli.BoolFlag{
		Name:    paramVerify,
		Usage:   "Check every output with pdfcpu",
		EnvVars: []string{"PDFOPS_ENGINE_VERIFY_OUTPUT"},
	}
	flagPassword = &cli.StringFlag{
		Name:    paramPassword,
		Usage:   "User or owner password of encrypted inputs",
		EnvVars: []string{"PDFOPS_PASSWORD"},
	}
)

func WithEngineFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		flagWorkers,
		flagMaxFileSize,
		flagMaxPages,
		flagVerify,
		flagPassword,
	}, flags...)
}

func GetEngine(ctx *cli.Context) (*pipeline.Engine, error) {
	maxFileSize, err := units.RAMInBytes(ctx.String(paramMaxFileSize))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", paramMaxFileSize)
	}

	options := []pipeline.OptionFunc{
		pipeline.WithWorkers(ctx.Int(paramWorkers)),
		pipeline.WithLimits(pipeline.Limits{
			MaxFileSize: maxFileSize,
			MaxPages:    ctx.Int(paramMaxPages),
		}),
	}
	if ctx.Bool(paramVerify) {
		options = append(options, pipeline.WithVerifier(pdfcpu.NewVerifier()))
	}

	return pipeline.NewEngine(options...), nil
}

// ReadFiles loads the command arguments as pipeline inputs.
func ReadFiles(ctx *cli.Context) ([]pipeline.File, error) {
	paths := ctx.Args().Slice()
	files := make([]pipeline.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		files = append(files, pipeline.File{Name: path, Data: data, Password: ctx.String(paramPassword)})
	}
	return files, nil
}

// ReadFile loads the single command argument.
func ReadFile(ctx *cli.Context) (pipeline.File, error) {
	if ctx.NArg() != 1 {
		return pipeline.File{}, errors.Errorf("expected one input file, got %d", ctx.NArg())
	}
	files, err := ReadFiles(ctx)
	if err != nil {
		return pipeline.File{}, err
	}
	return files[0], nil
}
