package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/spf13/cobra"
)

func newToolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool <name> <file>",
		Short: "Run a document tool on a file",
		Long: `Tool runs one of the document tools on a local file and writes the result
next to it, or to --out.

Tools:
  pdf-dark-mode   dark overlay on every page (--opacity, --invert)
  pdf-flatten     bake form field values into the page content
  pdf-to-text     extract the text of every page
  xlsx-export     export one sheet (--sheet) to a text format (--target)`,
		Example: `  formatbridge tool pdf-dark-mode paper.pdf --opacity 0.9
  formatbridge tool xlsx-export staff.xlsx --sheet People --target csv -o -`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 0 {
				return nil, cobra.ShellCompDirectiveDefault
			}
			var slugs []string
			for _, t := range core.Tools() {
				slugs = append(slugs, t.Slug)
			}
			return slugs, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringP("out", "o", "", "output file or directory (default: next to the input)")
	f.Float64("opacity", 0.85, "overlay opacity for pdf-dark-mode")
	f.Bool("invert", false, "invert page colours for pdf-dark-mode")
	f.String("sheet", "", "sheet name for xlsx-export (default: first sheet)")
	f.String("target", "json", "output format for xlsx-export")
	f.Int("indent", codec.DefaultIndent, "indentation width for xlsx-export, 0 for compact JSON")
	f.Bool("quiet", false, "do not print progress")
	return cmd
}

func (a *app) runTool(cmd *cobra.Command, slug, path string) error {
	if _, ok := core.GetTool(slug); !ok {
		return fmt.Errorf("%w %q, available: %s", core.ErrUnknownTool, slug, toolList())
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	name, data, err := a.readInput(path, int64(svc.MaxUploadBytes()))
	if err != nil {
		return err
	}

	f := cmd.Flags()
	params := core.ToolParams{}
	params.Opacity, _ = f.GetFloat64("opacity")
	params.Invert, _ = f.GetBool("invert")
	params.Sheet, _ = f.GetString("sheet")
	target, _ := f.GetString("target")
	params.Target = format.ID(strings.ToLower(target))
	if f.Changed("indent") {
		indent, _ := f.GetInt("indent")
		params.Options.Indent = codec.Indent(indent)
	}

	var progress func(int)
	if quiet, _ := f.GetBool("quiet"); !quiet {
		last := -1
		progress = func(percent int) {
			if percent != last {
				last = percent
				fmt.Fprintf(a.stderr, "\r%s: %3d%%", slug, percent)
			}
		}
	}

	out, err := svc.RunTool(a.context(cmd.Context()), slug, core.ToolInput{
		FileName: name,
		Data:     data,
		Params:   params,
	}, progress)
	if progress != nil {
		fmt.Fprintln(a.stderr)
	}
	if err != nil {
		return core.NewUserError(err)
	}

	for _, w := range out.Warnings {
		fmt.Fprintf(a.stderr, "warning: %s\n", w.Message)
	}
	for _, k := range sortedKeys(out.Summary) {
		fmt.Fprintf(a.stderr, "%s: %v\n", k, out.Summary[k])
	}

	dest, _ := f.GetString("out")
	return a.writeOutput(toolOutputPath(dest, path, out.FileName), out.Data)
}

// toolOutputPath resolves --out for a tool result: empty writes next to the
// input, a directory receives the tool's file name.
func toolOutputPath(out, inputPath, fileName string) string {
	switch {
	case out == "-":
		return out
	case out == "":
		if inputPath == "" || inputPath == "-" {
			return "-"
		}
		return filepath.Join(filepath.Dir(inputPath), fileName)
	case isDir(out):
		return filepath.Join(out, fileName)
	default:
		return out
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func toolList() string {
	var slugs []string
	for _, t := range core.Tools() {
		slugs = append(slugs, t.Slug)
	}
	return strings.Join(slugs, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
