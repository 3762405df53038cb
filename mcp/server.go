// Package mcp exposes the document operations as Model Context Protocol
// tools. Tools read their inputs from and write their outputs to the local
// filesystem, so an assistant passes file paths rather than document bytes.
//
// # Usage with an MCP client
//
//	{
//	  "mcpServers": {
//	    "pdfops": {
//	      "command": "pdfops-mcp"
//	    }
//	  }
//	}
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/internal/build"
	"github.com/pdfwala/pdfops/pipeline"
)

const serverName = "pdfops"

type Options struct {
	Fs     afero.Fs
	Logger *slog.Logger
}

type OptionFunc func(opts *Options)

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Fs:     afero.NewOsFs(),
		Logger: slog.Default(),
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// WithFs sets the filesystem tool paths are resolved against.
func WithFs(fs afero.Fs) OptionFunc {
	return func(opts *Options) {
		opts.Fs = fs
	}
}

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Server registers one tool per pipeline operation.
type Server struct {
	engine *pipeline.Engine
	fs     afero.Fs
	logger *slog.Logger
	mcp    *server.MCPServer
}

func NewServer(engine *pipeline.Engine, funcs ...OptionFunc) *Server {
	opts := NewOptions(funcs...)

	s := &Server{
		engine: engine,
		fs:     opts.Fs,
		logger: opts.Logger,
	}

	mcpServer := server.NewMCPServer(serverName, build.ShortVersion,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(mergeTool(), s.handleMerge)
	mcpServer.AddTool(splitTool(), s.handleSplit)
	mcpServer.AddTool(organizeTool(), s.handleOrganize)
	mcpServer.AddTool(rotateTool(), s.handleRotate)
	mcpServer.AddTool(watermarkTool(), s.handleWatermark)
	mcpServer.AddTool(pageNumbersTool(), s.handlePageNumbers)
	mcpServer.AddTool(extractTextTool(), s.handleExtractText)
	mcpServer.AddTool(infoTool(), s.handleInfo)

	s.mcp = mcpServer

	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the tools over standard input and output until the
// input is closed.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcp); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: fmt.Sprintf(format, args...),
			},
		},
	}
}

// errorResult reports a failed operation to the client as a tool error
// rather than a protocol error.
func (s *Server) errorResult(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	kind := pdfops.KindOf(err)
	if kind == pdfops.ErrInternal || kind == pdfops.ErrCorruptDocument {
		s.logger.ErrorContext(ctx, "tool failed", slog.String("tool", tool), slog.Any("error", errors.WithStack(err)))
	} else {
		s.logger.WarnContext(ctx, "tool rejected", slog.String("tool", tool), slog.Any("error", err))
	}

	result := textResult("Error: %v", err)
	result.IsError = true
	return result
}
