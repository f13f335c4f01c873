package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool argument keys, shared by the schemas and the handlers.
const (
	argInput     = "input"
	argSource    = "source"
	argTarget    = "target"
	argIndent    = "indent"
	argTableName = "table_name"
	argDelimiter = "delimiter"
	argRootName  = "root_name"
)

func formatIDs() []string {
	all := format.All()
	ids := make([]string, len(all))
	for i, d := range all {
		ids[i] = string(d.ID)
	}
	return ids
}

// registerTools binds the MCP tool definitions to the service.
func registerTools(s *server.MCPServer, svc *core.Service) {
	h := &handlers{svc: svc}

	s.AddTool(
		mcp.NewTool("convert_document",
			mcp.WithDescription("Convert a document between JSON, CSV, XML, YAML, SQL, Markdown and HTML. "+
				"The source format is detected when omitted. Lossy steps are reported as warnings after the output."),
			mcp.WithString(argInput,
				mcp.Required(),
				mcp.Description("The document text to convert"),
			),
			mcp.WithString(argTarget,
				mcp.Required(),
				mcp.Description("Target format"),
				mcp.Enum(formatIDs()...),
			),
			mcp.WithString(argSource,
				mcp.Description("Source format; detected from the input when empty"),
			),
			mcp.WithNumber(argIndent,
				mcp.Description("Indentation width for JSON, XML and YAML output (default 2)"),
			),
			mcp.WithString(argTableName,
				mcp.Description("Table name for SQL output (default data)"),
			),
			mcp.WithString(argDelimiter,
				mcp.Description("CSV field delimiter (default comma)"),
			),
			mcp.WithString(argRootName,
				mcp.Description("Root element name for XML output (default root)"),
			),
		),
		h.convertDocument,
	)

	s.AddTool(
		mcp.NewTool("list_formats",
			mcp.WithDescription("List the supported formats with their file extensions and the formats each converts to."),
		),
		h.listFormats,
	)

	s.AddTool(
		mcp.NewTool("detect_format",
			mcp.WithDescription("Guess the format of a document."),
			mcp.WithString(argInput,
				mcp.Required(),
				mcp.Description("The document text to inspect"),
			),
		),
		h.detectFormat,
	)
}

type handlers struct {
	svc *core.Service
}

func (h *handlers) convertDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments

	input, _ := args[argInput].(string)
	target, _ := args[argTarget].(string)
	if target == "" {
		return mcp.NewToolResultError(argTarget + " is required"), nil
	}
	source, _ := args[argSource].(string)

	opts := codec.Options{}
	if n, ok := args[argIndent].(float64); ok {
		opts.Indent = codec.Indent(int(n))
	}
	opts.TableName, _ = args[argTableName].(string)
	opts.Delimiter, _ = args[argDelimiter].(string)
	opts.RootName, _ = args[argRootName].(string)

	res := h.svc.Convert(ctx, "", core.Request{
		Input:   input,
		Source:  format.ID(source),
		Target:  format.ID(target),
		Options: opts,
	})
	if !res.OK {
		return mcp.NewToolResultError(errorText(res)), nil
	}

	result := mcp.NewToolResultText(res.Output)
	if len(res.Warnings) > 0 {
		var b strings.Builder
		b.WriteString("Warnings:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w.Message)
		}
		result.Content = append(result.Content, mcp.NewTextContent(b.String()))
	}
	return result, nil
}

type formatInfo struct {
	ID        format.ID   `json:"id"`
	Label     string      `json:"label"`
	Extension string      `json:"extension"`
	Aliases   []string    `json:"aliases,omitempty"`
	Targets   []format.ID `json:"targets"`
}

func (h *handlers) listFormats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out []formatInfo
	for _, d := range format.All() {
		info := formatInfo{ID: d.ID, Label: d.Label, Extension: d.Extension, Aliases: d.Aliases}
		for _, p := range format.PairsFrom(d.ID) {
			info.Targets = append(info.Targets, p.Target)
		}
		out = append(out, info)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode formats: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) detectFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, _ := req.Params.Arguments[argInput].(string)

	id, err := h.svc.Detect(input)
	if err != nil {
		msg := core.MapError(err)
		return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", msg.Message, msg.Code)), nil
	}
	return mcp.NewToolResultText(string(id)), nil
}

// errorText renders a failed result for the model: message, hint and code.
func errorText(res core.Result) string {
	var b strings.Builder
	b.WriteString(res.Error)
	if res.Detail != "" {
		fmt.Fprintf(&b, ": %s", res.Detail)
	}
	if res.Action != "" {
		fmt.Fprintf(&b, ". %s", res.Action)
	}
	fmt.Fprintf(&b, " (%s)", res.Code)
	return b.String()
}
