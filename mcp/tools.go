package mcp

import (
	"context"
	"encoding/json"
	"maps"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/pipeline"
)

const (
	argPath       = "path"
	argPaths      = "paths"
	argOutputPath = "outputPath"
	argOutputDir  = "outputDir"
)

func mergeTool() mcp.Tool {
	return mcp.NewTool("merge_pdfs",
		mcp.WithDescription("Concatenate the pages of two or more PDF files, in the given order, into a new file."),
		mcp.WithArray(argPaths,
			mcp.Description("Paths of the PDF files to merge"),
			mcp.Items(map[string]any{"type": "string"}),
			mcp.Required(),
		),
		mcp.WithString(argOutputPath,
			mcp.Description("Path of the merged file"),
			mcp.Required(),
		),
	)
}

func splitTool() mcp.Tool {
	return mcp.NewTool("split_pdf",
		mcp.WithDescription("Write every page of a PDF file to its own file named page_N.pdf."),
		mcp.WithString(argPath,
			mcp.Description("Path of the PDF file to split"),
			mcp.Required(),
		),
		mcp.WithString(argOutputDir,
			mcp.Description("Directory receiving the page files"),
			mcp.Required(),
		),
	)
}

func organizeTool() mcp.Tool {
	return mcp.NewTool("organize_pages",
		mcp.WithDescription("Reorder, drop, duplicate and rotate the pages of a PDF file. Indices are 0-based; out of range indices are skipped."),
		mcp.WithString(argPath,
			mcp.Description("Path of the PDF file"),
			mcp.Required(),
		),
		mcp.WithArray(pipeline.FieldOrder,
			mcp.Description("Source page indices in output order. Every page in place when omitted."),
			mcp.Items(map[string]any{"type": "integer"}),
		),
		mcp.WithObject(pipeline.FieldRotate,
			mcp.Description(`Rotation in degrees by source page index, e.g. {"0": 90}`),
		),
		mcp.WithString(argOutputPath,
			mcp.Description("Path of the organized file"),
			mcp.Required(),
		),
	)
}

func rotateTool() mcp.Tool {
	return mcp.NewTool("rotate_pages",
		mcp.WithDescription("Turn pages of a PDF file by a multiple of 90 degrees, adding to their current rotation."),
		mcp.WithString(argPath,
			mcp.Description("Path of the PDF file"),
			mcp.Required(),
		),
		mcp.WithNumber(pipeline.FieldAngle,
			mcp.Description("Degrees clockwise, negative for counter-clockwise"),
			mcp.Required(),
		),
		mcp.WithArray(pipeline.FieldPages,
			mcp.Description("0-based indices of the pages to turn. Every page when omitted."),
			mcp.Items(map[string]any{"type": "integer"}),
		),
		mcp.WithString(argOutputPath,
			mcp.Description("Path of the rotated file"),
			mcp.Required(),
		),
	)
}

func watermarkTool() mcp.Tool {
	return mcp.NewTool("add_watermark",
		mcp.WithDescription("Draw a rotated text watermark on every page of a PDF file."),
		mcp.WithString(argPath,
			mcp.Description("Path of the PDF file"),
			mcp.Required(),
		),
		mcp.WithString(pipeline.FieldText,
			mcp.Description("Watermark text (default: CONFIDENTIAL)"),
		),
		mcp.WithNumber(pipeline.FieldOpacity,
			mcp.Description("Opacity between 0 and 1 (default: 0.3)"),
			mcp.Min(0),
			mcp.Max(1),
		),
		mcp.WithString(pipeline.FieldPosition,
			mcp.Description("Placement of the watermark (default: center)"),
			mcp.Enum("center", "topLeft", "topRight", "bottomLeft", "bottomRight"),
		),
		mcp.WithString(argOutputPath,
			mcp.Description("Path of the watermarked file"),
			mcp.Required(),
		),
	)
}

func pageNumbersTool() mcp.Tool {
	return mcp.NewTool("add_page_numbers",
		mcp.WithDescription("Number the pages of a PDF file."),
		mcp.WithString(argPath,
			mcp.Description("Path of the PDF file"),
			mcp.Required(),
		),
		mcp.WithString(pipeline.FieldPosition,
			mcp.Description("Edge of the page (default: bottom)"),
			mcp.Enum("bottom", "top"),
		),
		mcp.WithString(pipeline.FieldAlignment,
			mcp.Description("Horizontal alignment (default: center)"),
			mcp.Enum("center", "left", "right"),
		),
		mcp.WithNumber(pipeline.FieldStartPage,
			mcp.Description("Label of the first page (default: 1)"),
		),
		mcp.WithString(argOutputPath,
			mcp.Description("Path of the numbered file"),
			mcp.Required(),
		),
	)
}

func extractTextTool() mcp.Tool {
	return mcp.NewTool("extract_text",
		mcp.WithDescription("Extract the text of a PDF file. Pages are separated by a blank line."),
		mcp.WithString(argPath,
			mcp.Description("Path of the PDF file"),
			mcp.Required(),
		),
	)
}

func infoTool() mcp.Tool {
	return mcp.NewTool("pdf_info",
		mcp.WithDescription("Describe a PDF file: version, metadata, page count and page geometry, as JSON."),
		mcp.WithString(argPath,
			mcp.Description("Path of the PDF file"),
			mcp.Required(),
		),
	)
}

func (s *Server) handleMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "merge_pdfs"
	arguments := request.Params.Arguments

	paths, err := stringsArg(arguments, argPaths)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	output, err := stringArg(arguments, argOutputPath, true)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	files := make([]pipeline.File, 0, len(paths))
	for _, path := range paths {
		file, err := s.readFile(path)
		if err != nil {
			return s.errorResult(ctx, tool, err), nil
		}
		files = append(files, file)
	}

	result, err := s.engine.Merge(ctx, files)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	if err := s.writeFile(output, result.Data); err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	return textResult("Merged %d files into %s (%s)", len(files), output, humanize.Bytes(uint64(len(result.Data)))), nil
}

func (s *Server) handleSplit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "split_pdf"
	arguments := request.Params.Arguments

	file, err := s.readPathArg(arguments)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	dir, err := stringArg(arguments, argOutputDir, true)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	results, err := s.engine.Split(ctx, file)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return s.errorResult(ctx, tool, pdfops.NewError(tool, pdfops.ErrInternal, err)), nil
	}
	for _, r := range results {
		if err := s.writeFile(filepath.Join(dir, r.Name), r.Data); err != nil {
			return s.errorResult(ctx, tool, err), nil
		}
	}

	return textResult("Split %s into %d files in %s", file.Name, len(results), dir), nil
}

func (s *Server) handleOrganize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "organize_pages"
	arguments := request.Params.Arguments

	values, err := jsonValues(arguments, pipeline.FieldOrder, pipeline.FieldRotate)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	params, err := pipeline.ParseOrganizeParams(values)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	return s.transform(ctx, tool, arguments, func(file pipeline.File) (*pipeline.Result, error) {
		return s.engine.Organize(ctx, file, params)
	})
}

func (s *Server) handleRotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "rotate_pages"
	arguments := request.Params.Arguments

	values, err := scalarValues(arguments, pipeline.FieldAngle)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	pages, err := jsonValues(arguments, pipeline.FieldPages)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	maps.Copy(values, pages)

	params, err := pipeline.ParseRotateParams(values)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	return s.transform(ctx, tool, arguments, func(file pipeline.File) (*pipeline.Result, error) {
		return s.engine.Rotate(ctx, file, params)
	})
}

func (s *Server) handleWatermark(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "add_watermark"
	arguments := request.Params.Arguments

	values, err := scalarValues(arguments, pipeline.FieldText, pipeline.FieldOpacity, pipeline.FieldPosition)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	params, err := pipeline.ParseWatermarkParams(values)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	return s.transform(ctx, tool, arguments, func(file pipeline.File) (*pipeline.Result, error) {
		return s.engine.Watermark(ctx, file, params)
	})
}

func (s *Server) handlePageNumbers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "add_page_numbers"
	arguments := request.Params.Arguments

	values, err := scalarValues(arguments, pipeline.FieldPosition, pipeline.FieldAlignment, pipeline.FieldStartPage)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	params, err := pipeline.ParsePageNumberParams(values)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	return s.transform(ctx, tool, arguments, func(file pipeline.File) (*pipeline.Result, error) {
		return s.engine.PageNumbers(ctx, file, params)
	})
}

func (s *Server) handleExtractText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "extract_text"

	file, err := s.readPathArg(request.Params.Arguments)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	result, err := s.engine.ExtractText(ctx, file)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	return textResult("%s", result.Data), nil
}

func (s *Server) handleInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "pdf_info"

	file, err := s.readPathArg(request.Params.Arguments)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	info, err := s.engine.Inspect(ctx, file)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return s.errorResult(ctx, tool, pdfops.NewError(tool, pdfops.ErrInternal, err)), nil
	}

	return textResult("%s", data), nil
}

// transform runs a single-input operation and writes its result to the
// outputPath argument.
func (s *Server) transform(ctx context.Context, tool string, arguments map[string]any, run func(pipeline.File) (*pipeline.Result, error)) (*mcp.CallToolResult, error) {
	file, err := s.readPathArg(arguments)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	output, err := stringArg(arguments, argOutputPath, true)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	result, err := run(file)
	if err != nil {
		return s.errorResult(ctx, tool, err), nil
	}
	if err := s.writeFile(output, result.Data); err != nil {
		return s.errorResult(ctx, tool, err), nil
	}

	return textResult("Wrote %s (%s)", output, humanize.Bytes(uint64(len(result.Data)))), nil
}

func (s *Server) readPathArg(arguments map[string]any) (pipeline.File, error) {
	path, err := stringArg(arguments, argPath, true)
	if err != nil {
		return pipeline.File{}, err
	}
	return s.readFile(path)
}

func (s *Server) readFile(path string) (pipeline.File, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return pipeline.File{}, pdfops.Errorf("ReadFile", pdfops.ErrValidation, "could not read %s: %v", path, err)
	}
	return pipeline.File{Name: filepath.Base(path), Data: data}, nil
}

func (s *Server) writeFile(path string, data []byte) error {
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return pdfops.NewError("WriteFile", pdfops.ErrInternal, err)
	}
	return nil
}

func stringArg(arguments map[string]any, name string, required bool) (string, error) {
	raw, exists := arguments[name]
	if !exists || raw == nil {
		if required {
			return "", pdfops.Errorf("Arguments", pdfops.ErrValidation, "missing %s argument", name)
		}
		return "", nil
	}
	value, ok := raw.(string)
	if !ok || (required && value == "") {
		return "", pdfops.Errorf("Arguments", pdfops.ErrValidation, "invalid %s argument", name)
	}
	return value, nil
}

func stringsArg(arguments map[string]any, name string) ([]string, error) {
	raw, ok := arguments[name].([]any)
	if !ok {
		return nil, pdfops.Errorf("Arguments", pdfops.ErrValidation, "invalid %s argument", name)
	}
	values := make([]string, 0, len(raw))
	for _, r := range raw {
		value, ok := r.(string)
		if !ok {
			return nil, pdfops.Errorf("Arguments", pdfops.ErrValidation, "invalid %s argument", name)
		}
		values = append(values, value)
	}
	return values, nil
}

// jsonValues re-encodes structured arguments as the JSON request fields the
// pipeline parsers read.
func jsonValues(arguments map[string]any, names ...string) (url.Values, error) {
	values := url.Values{}
	for _, name := range names {
		raw, exists := arguments[name]
		if !exists || raw == nil {
			continue
		}
		if str, ok := raw.(string); ok {
			values.Set(name, str)
			continue
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, pdfops.Errorf("Arguments", pdfops.ErrValidation, "invalid %s argument: %v", name, err)
		}
		values.Set(name, string(data))
	}
	return values, nil
}

// scalarValues formats string and number arguments as request fields.
func scalarValues(arguments map[string]any, names ...string) (url.Values, error) {
	values := url.Values{}
	for _, name := range names {
		switch v := arguments[name].(type) {
		case nil:
		case string:
			values.Set(name, v)
		case float64:
			values.Set(name, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return nil, pdfops.Errorf("Arguments", pdfops.ErrValidation, "invalid %s argument", name)
		}
	}
	return values, nil
}
