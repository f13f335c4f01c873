package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document to another format",
		Long: `Convert reads a document from a file, or stdin when no file is given, and
writes it in the target format. The source format is detected when --from is
not set. Without --to, an interactive terminal offers the possible targets.`,
		Example: `  formatbridge convert people.json --to csv
  cat config.yml | formatbridge convert --to json --indent 4
  formatbridge convert dump.csv --to sql --table-name users -o users.sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return a.runConvert(cmd, path)
		},
	}

	f := cmd.Flags()
	f.String("from", "", "source format (detected when empty)")
	f.String("to", "", "target format")
	f.StringP("out", "o", "", "output file (default stdout)")
	f.Int("indent", codec.DefaultIndent, "indentation width for JSON, XML and YAML, 0 for compact JSON")
	f.String("table-name", "", "table name for SQL output")
	f.String("delimiter", "", "CSV field delimiter")
	f.String("root-name", "", "root element name for XML output")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, path string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}

	name, data, err := a.readInput(path, int64(svc.Engine().MaxInputBytes()))
	if err != nil {
		return err
	}
	input := string(data)

	f := cmd.Flags()
	from, _ := f.GetString("from")
	to, _ := f.GetString("to")

	source := format.ID(from)
	if source == "" {
		detected, err := svc.Detect(input)
		if err != nil {
			return core.NewUserError(err)
		}
		source = detected
	}

	if to == "" {
		to, err = a.pickTarget(source)
		if err != nil {
			return err
		}
	}

	opts := codec.Options{}
	if f.Changed("indent") {
		indent, _ := f.GetInt("indent")
		opts.Indent = codec.Indent(indent)
	}
	opts.TableName, _ = f.GetString("table-name")
	opts.Delimiter, _ = f.GetString("delimiter")
	opts.RootName, _ = f.GetString("root-name")

	res := svc.Convert(a.context(cmd.Context()), name, core.Request{
		Input:   input,
		Source:  source,
		Target:  format.ID(to),
		Options: opts,
	})
	if !res.OK {
		return &core.UserError{
			Technical: res.Err(),
			User:      core.UserMessage{Message: res.Error, Action: res.Action, Code: res.Code},
		}
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(a.stderr, "warning: %s\n", w.Message)
	}

	out, _ := f.GetString("out")
	return a.writeOutput(outputPath(out, name, res.Target), []byte(res.Output))
}

// outputPath resolves --out. A directory receives the input's base name with
// the target extension.
func outputPath(out, inputName string, target format.ID) string {
	if out == "" || out == "-" {
		return out
	}
	if isDir(out) {
		base := strings.TrimSuffix(inputName, filepath.Ext(inputName))
		return filepath.Join(out, format.MustLookup(target).FileName(base))
	}
	return out
}

// pickTarget asks for the target format on a terminal and fails elsewhere.
func (a *app) pickTarget(source format.ID) (string, error) {
	d, ok := format.Lookup(string(source))
	if !ok {
		return "", fmt.Errorf("%w: %q", format.ErrUnknownFormat, source)
	}
	if !a.interactive() {
		return "", errors.New("--to is required when stdin is not a terminal")
	}

	pairs := format.PairsFrom(d.ID)
	options := make([]string, len(pairs))
	for i, p := range pairs {
		options[i] = string(p.Target)
	}

	choice, err := a.selectOne(fmt.Sprintf("Convert %s to", d.Label), options)
	if err != nil {
		return "", fmt.Errorf("choose target format: %w", err)
	}
	return choice, nil
}
