package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/pdftool"
)

// Tool slugs. They appear in URLs and as the operation of recent entries.
const (
	ToolPDFDarkMode = "pdf-dark-mode"
	ToolPDFFlatten  = "pdf-flatten"
	ToolPDFToText   = "pdf-to-text"
	ToolXLSXExport  = "xlsx-export"
)

// ErrNoFile is returned when a tool receives no data.
var ErrNoFile = errors.New("no file provided")

// ErrUnknownTool is returned for slugs with no registered tool.
var ErrUnknownTool = errors.New("unknown tool")

// ToolInfo is the display metadata of a tool.
type ToolInfo struct {
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Accept    []string `json:"accept"`     // accepted file extensions
	OutputExt string   `json:"output_ext"` // empty when it depends on params
}

// NameKey is the translation key of the tool name.
func (i ToolInfo) NameKey() string { return "tool." + i.Slug + ".name" }

// DescriptionKey is the translation key of the tool description.
func (i ToolInfo) DescriptionKey() string { return "tool." + i.Slug + ".description" }

// Accepts reports whether fileName has one of the accepted extensions.
func (i ToolInfo) Accepts(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, a := range i.Accept {
		if ext == a {
			return true
		}
	}
	return false
}

// ToolParams are the per-run settings. Each tool reads the fields it needs.
type ToolParams struct {
	Opacity float64       `json:"opacity,omitempty"` // pdf-dark-mode
	Invert  bool          `json:"invert,omitempty"`  // pdf-dark-mode
	Sheet   string        `json:"sheet,omitempty"`   // xlsx-export
	Target  format.ID     `json:"target,omitempty"`  // xlsx-export, default json
	Options codec.Options `json:"options,omitempty"` // xlsx-export
}

// ToolInput is one file handed to a tool.
type ToolInput struct {
	FileName string
	Data     []byte
	Params   ToolParams
}

// ToolOutput is the file a tool produced.
type ToolOutput struct {
	FileName    string
	ContentType string
	Data        []byte
	Warnings    []codec.Warning
	Summary     map[string]any // tool specific counters for logs and API responses
}

// ToolFunc runs a tool. Progress may be nil.
type ToolFunc func(ctx context.Context, e *Engine, in ToolInput, progress pdftool.Progress) (*ToolOutput, error)

// ToolDefinition is a registered tool.
type ToolDefinition struct {
	Info ToolInfo
	Run  ToolFunc
}

var (
	tools   = make(map[string]ToolDefinition)
	toolsMu sync.RWMutex
)

// RegisterTool adds a tool to the registry.
// Panics if a tool with the same slug is already registered.
func RegisterTool(def ToolDefinition) {
	toolsMu.Lock()
	defer toolsMu.Unlock()

	if _, exists := tools[def.Info.Slug]; exists {
		panic(fmt.Sprintf("tool already registered: %s", def.Info.Slug))
	}
	tools[def.Info.Slug] = def
}

// GetTool returns a tool by slug.
func GetTool(slug string) (ToolDefinition, bool) {
	toolsMu.RLock()
	defer toolsMu.RUnlock()

	def, ok := tools[strings.ToLower(strings.TrimSpace(slug))]
	return def, ok
}

// Tools returns the metadata of every registered tool, sorted by slug.
func Tools() []ToolInfo {
	toolsMu.RLock()
	defer toolsMu.RUnlock()

	result := make([]ToolInfo, 0, len(tools))
	for _, def := range tools {
		result = append(result, def.Info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Slug < result[j].Slug
	})
	return result
}

func init() {
	RegisterTool(ToolDefinition{
		Info: ToolInfo{Slug: ToolPDFDarkMode, Name: "PDF dark mode", Accept: []string{".pdf"}, OutputExt: "pdf"},
		Run:  runDarkMode,
	})
	RegisterTool(ToolDefinition{
		Info: ToolInfo{Slug: ToolPDFFlatten, Name: "Flatten PDF form", Accept: []string{".pdf"}, OutputExt: "pdf"},
		Run:  runFlatten,
	})
	RegisterTool(ToolDefinition{
		Info: ToolInfo{Slug: ToolPDFToText, Name: "PDF to text", Accept: []string{".pdf"}, OutputExt: "txt"},
		Run:  runPDFToText,
	})
	RegisterTool(ToolDefinition{
		Info: ToolInfo{Slug: ToolXLSXExport, Name: "Spreadsheet export", Accept: []string{".xlsx", ".xlsm"}},
		Run:  runXLSXExport,
	})
}

// outputName derives the result file name: the base of the input name plus
// suffix and the new extension.
func outputName(fileName, suffix, ext string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "document"
	}
	return base + suffix + "." + ext
}

func runDarkMode(ctx context.Context, _ *Engine, in ToolInput, progress pdftool.Progress) (*ToolOutput, error) {
	var out bytes.Buffer
	opts := pdftool.DarkModeOptions{Opacity: in.Params.Opacity, Invert: in.Params.Invert}
	if err := pdftool.DarkMode(ctx, bytes.NewReader(in.Data), &out, opts, progress); err != nil {
		return nil, err
	}
	return &ToolOutput{
		FileName:    outputName(in.FileName, "-dark", "pdf"),
		ContentType: "application/pdf",
		Data:        out.Bytes(),
	}, nil
}

func runFlatten(ctx context.Context, _ *Engine, in ToolInput, progress pdftool.Progress) (*ToolOutput, error) {
	var out bytes.Buffer
	stats, err := pdftool.Flatten(ctx, bytes.NewReader(in.Data), &out, progress)
	if err != nil {
		return nil, err
	}
	return &ToolOutput{
		FileName:    outputName(in.FileName, "-flattened", "pdf"),
		ContentType: "application/pdf",
		Data:        out.Bytes(),
		Summary: map[string]any{
			"pages":   stats.Pages,
			"widgets": stats.Widgets,
			"removed": stats.Removed,
		},
	}, nil
}

func runPDFToText(ctx context.Context, _ *Engine, in ToolInput, progress pdftool.Progress) (*ToolOutput, error) {
	pages, err := pdftool.ExtractText(ctx, bytes.NewReader(in.Data), int64(len(in.Data)), progress)
	if err != nil {
		return nil, err
	}
	empty := 0
	for _, p := range pages {
		if p.Text == "" {
			empty++
		}
	}
	return &ToolOutput{
		FileName:    outputName(in.FileName, "", "txt"),
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(pdftool.JoinText(pages)),
		Summary:     map[string]any{"pages": len(pages), "empty_pages": empty},
	}, nil
}

func runXLSXExport(ctx context.Context, e *Engine, in ToolInput, progress pdftool.Progress) (*ToolOutput, error) {
	target := in.Params.Target
	if target == "" {
		target = format.JSON
	}
	d, ok := format.Lookup(string(target))
	if !ok {
		return nil, fmt.Errorf("target: %w: %q", format.ErrUnknownFormat, target)
	}

	// Reading the workbook is most of the work; encoding gets the rest.
	var readProgress pdftool.Progress
	if progress != nil {
		readProgress = func(p int) { progress(p * 80 / 100) }
	}
	sheet, err := pdftool.ReadSheet(ctx, bytes.NewReader(in.Data), in.Params.Sheet, readProgress)
	if err != nil {
		return nil, err
	}

	res := e.ConvertTree(ctx, sheet.Data, d.ID, in.Params.Options)
	if !res.OK {
		return nil, res.Err()
	}
	if progress != nil {
		progress(100)
	}

	suffix := ""
	if slug := slugify(sheet.Name); slug != "" {
		suffix = "-" + slug
	}
	return &ToolOutput{
		FileName:    outputName(in.FileName, suffix, d.Extension),
		ContentType: d.MIMEType + "; charset=utf-8",
		Data:        []byte(res.Output),
		Warnings:    res.Warnings,
		Summary:     map[string]any{"sheet": sheet.Name, "sheets": sheet.Sheets, "rows": sheet.Data.Len()},
	}, nil
}

// slugify lowercases s and replaces runs of anything but letters and digits
// with a single dash.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
