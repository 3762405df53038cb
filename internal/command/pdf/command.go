package pdf

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/pdfwala/pdfops/internal/command/common"
	"github.com/pdfwala/pdfops/pipeline"
)

const (
	flagOutput    = "output"
	flagOrder     = "order"
	flagRotate    = "rotate"
	flagText      = "text"
	flagOpacity   = "opacity"
	flagPosition  = "position"
	flagAlignment = "alignment"
	flagStartPage = "start-page"
	flagAngle     = "angle"
	flagPages     = "pages"
)

func outputFlag(value, usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Value:   value,
		Usage:   usage,
	}
}

// Commands returns one command per document operation.
func Commands() []*cli.Command {
	return []*cli.Command{
		mergeCommand(),
		splitCommand(),
		organizeCommand(),
		rotateCommand(),
		watermarkCommand(),
		pageNumbersCommand(),
		infoCommand(),
		textCommand(),
	}
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Concatenate the pages of two or more PDF files",
		ArgsUsage: "<file> <file> [file...]",
		Flags:     common.WithEngineFlags(outputFlag(pipeline.MergedName, "Output file")),
		Action: func(ctx *cli.Context) error {
			engine, err := common.GetEngine(ctx)
			if err != nil {
				return err
			}
			files, err := common.ReadFiles(ctx)
			if err != nil {
				return err
			}
			result, err := engine.Merge(ctx.Context, files)
			if err != nil {
				return errors.WithStack(err)
			}
			return writeOutput(ctx, ctx.String(flagOutput), result.Data)
		},
	}
}

func splitCommand() *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "Write every page of a PDF file to its own file",
		ArgsUsage: "<file>",
		Flags:     common.WithEngineFlags(outputFlag(".", "Output directory")),
		Action: func(ctx *cli.Context) error {
			engine, err := common.GetEngine(ctx)
			if err != nil {
				return err
			}
			file, err := common.ReadFile(ctx)
			if err != nil {
				return err
			}
			results, err := engine.Split(ctx.Context, file)
			if err != nil {
				return errors.WithStack(err)
			}

			dir := ctx.String(flagOutput)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.WithStack(err)
			}
			for _, r := range results {
				if err := writeOutput(ctx, filepath.Join(dir, r.Name), r.Data); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func organizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "organize",
		Usage:     "Reorder, drop, duplicate and rotate pages",
		ArgsUsage: "<file>",
		Flags: common.WithEngineFlags(
			outputFlag(pipeline.OrganizedName, "Output file"),
			&cli.StringFlag{Name: flagOrder, Usage: "JSON array of 0-based source page indices, e.g. [2,0,1]"},
			&cli.StringFlag{Name: flagRotate, Usage: `JSON object of rotations by source index, e.g. {"0":90}`},
		),
		Action: func(ctx *cli.Context) error {
			params, err := pipeline.ParseOrganizeParams(values(ctx,
				pipeline.FieldOrder, flagOrder,
				pipeline.FieldRotate, flagRotate))
			if err != nil {
				return err
			}
			return transform(ctx, func(engine *pipeline.Engine, file pipeline.File) (*pipeline.Result, error) {
				return engine.Organize(ctx.Context, file, params)
			})
		},
	}
}

func rotateCommand() *cli.Command {
	return &cli.Command{
		Name:      "rotate",
		Usage:     "Turn pages by a multiple of 90 degrees",
		ArgsUsage: "<file>",
		Flags: common.WithEngineFlags(
			outputFlag(pipeline.RotatedName, "Output file"),
			&cli.IntFlag{Name: flagAngle, Value: 90, Usage: "Degrees clockwise, negative for counter-clockwise"},
			&cli.StringFlag{Name: flagPages, Usage: "JSON array of 0-based page indices (default: every page)"},
		),
		Action: func(ctx *cli.Context) error {
			v := values(ctx, pipeline.FieldPages, flagPages)
			v.Set(pipeline.FieldAngle, strconv.Itoa(ctx.Int(flagAngle)))

			params, err := pipeline.ParseRotateParams(v)
			if err != nil {
				return err
			}
			return transform(ctx, func(engine *pipeline.Engine, file pipeline.File) (*pipeline.Result, error) {
				return engine.Rotate(ctx.Context, file, params)
			})
		},
	}
}

func watermarkCommand() *cli.Command {
	return &cli.Command{
		Name:      "watermark",
		Usage:     "Draw a rotated text watermark on every page",
		ArgsUsage: "<file>",
		Flags: common.WithEngineFlags(
			outputFlag(pipeline.WatermarkedName, "Output file"),
			&cli.StringFlag{Name: flagText, Usage: "Watermark text (default: CONFIDENTIAL)"},
			&cli.StringFlag{Name: flagOpacity, Usage: "Opacity between 0 and 1 (default: 0.3)"},
			&cli.StringFlag{Name: flagPosition, Usage: "center, topLeft, topRight, bottomLeft or bottomRight"},
		),
		Action: func(ctx *cli.Context) error {
			params, err := pipeline.ParseWatermarkParams(values(ctx,
				pipeline.FieldText, flagText,
				pipeline.FieldOpacity, flagOpacity,
				pipeline.FieldPosition, flagPosition))
			if err != nil {
				return err
			}
			return transform(ctx, func(engine *pipeline.Engine, file pipeline.File) (*pipeline.Result, error) {
				return engine.Watermark(ctx.Context, file, params)
			})
		},
	}
}

func pageNumbersCommand() *cli.Command {
	return &cli.Command{
		Name:      "page-numbers",
		Usage:     "Number the pages",
		ArgsUsage: "<file>",
		Flags: common.WithEngineFlags(
			outputFlag(pipeline.NumberedName, "Output file"),
			&cli.StringFlag{Name: flagPosition, Usage: "bottom or top"},
			&cli.StringFlag{Name: flagAlignment, Usage: "center, left or right"},
			&cli.IntFlag{Name: flagStartPage, Value: 1, Usage: "Label of the first page"},
		),
		Action: func(ctx *cli.Context) error {
			v := values(ctx,
				pipeline.FieldPosition, flagPosition,
				pipeline.FieldAlignment, flagAlignment)
			v.Set(pipeline.FieldStartPage, strconv.Itoa(ctx.Int(flagStartPage)))

			params, err := pipeline.ParsePageNumberParams(v)
			if err != nil {
				return err
			}
			return transform(ctx, func(engine *pipeline.Engine, file pipeline.File) (*pipeline.Result, error) {
				return engine.PageNumbers(ctx.Context, file, params)
			})
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print the version, metadata and page geometry of a PDF file as JSON",
		ArgsUsage: "<file>",
		Flags:     common.WithEngineFlags(),
		Action: func(ctx *cli.Context) error {
			engine, err := common.GetEngine(ctx)
			if err != nil {
				return err
			}
			file, err := common.ReadFile(ctx)
			if err != nil {
				return err
			}
			info, err := engine.Inspect(ctx.Context, file)
			if err != nil {
				return errors.WithStack(err)
			}

			enc := json.NewEncoder(ctx.App.Writer)
			enc.SetIndent("", "  ")
			return errors.WithStack(enc.Encode(info))
		},
	}
}

func textCommand() *cli.Command {
	return &cli.Command{
		Name:      "text",
		Usage:     "Extract the text of a PDF file",
		ArgsUsage: "<file>",
		Flags:     common.WithEngineFlags(outputFlag("-", "Output file ('-' for stdout)")),
		Action: func(ctx *cli.Context) error {
			return transform(ctx, func(engine *pipeline.Engine, file pipeline.File) (*pipeline.Result, error) {
				return engine.ExtractText(ctx.Context, file)
			})
		},
	}
}

// values maps pairs of request field and flag names to the flags that are
// set.
func values(ctx *cli.Context, pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if ctx.IsSet(pairs[i+1]) {
			v.Set(pairs[i], ctx.String(pairs[i+1]))
		}
	}
	return v
}

func transform(ctx *cli.Context, run func(*pipeline.Engine, pipeline.File) (*pipeline.Result, error)) error {
	engine, err := common.GetEngine(ctx)
	if err != nil {
		return err
	}
	file, err := common.ReadFile(ctx)
	if err != nil {
		return err
	}
	result, err := run(engine, file)
	if err != nil {
		return errors.WithStack(err)
	}

	output := ctx.String(flagOutput)
	if output == "-" {
		_, err := ctx.App.Writer.Write(result.Data)
		return errors.WithStack(err)
	}
	return writeOutput(ctx, output, result.Data)
}

func writeOutput(ctx *cli.Context, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WithStack(err)
	}
	fmt.Fprintf(ctx.App.ErrWriter, "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	return nil
}
