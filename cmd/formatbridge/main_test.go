package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/history"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

type run struct {
	stdout, stderr bytes.Buffer
	err            error
}

// runCLI executes the CLI with stdin and a temporary recent list.
func runCLI(t *testing.T, stdin string, args ...string) *run {
	t.Helper()
	return runApp(t, newTestApp(stdin), args...)
}

func newTestApp(stdin string) *app {
	a := newApp(strings.NewReader(stdin), nil, nil)
	a.interactive = func() bool { return false }
	return a
}

func runApp(t *testing.T, a *app, args ...string) *run {
	t.Helper()
	r := &run{}
	a.stdout = &r.stdout
	a.stderr = &r.stderr
	if !hasFlag(args, "--history-file") {
		args = append(args, "--history-file", filepath.Join(t.TempDir(), "recent.db"))
	}
	r.err = execute(a, args)
	return r
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name || strings.HasPrefix(a, name+"=") {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvert_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.json", `[{"id":1,"name":"Ada"},{"id":2,"name":"Linus"}]`)
	db := filepath.Join(dir, "recent.db")

	r := runCLI(t, "", "convert", path, "--to", "csv", "--history-file", db)
	if r.err != nil {
		t.Fatalf("convert: %v\n%s", r.err, r.stderr.String())
	}
	if got := r.stdout.String(); got != "id,name\n1,Ada\n2,Linus\n" {
		t.Errorf("stdout = %q", got)
	}

	// A second invocation sees the entry through the SQLite file.
	list := runCLI(t, "", "recent", "--json", "--history-file", db)
	if list.err != nil {
		t.Fatalf("recent: %v", list.err)
	}
	var entries []history.Entry
	if err := json.Unmarshal(list.stdout.Bytes(), &entries); err != nil {
		t.Fatalf("decode recent: %v\n%s", err, list.stdout.String())
	}
	if len(entries) != 1 || entries[0].FileName != "people.json" || entries[0].Operation != "json-to-csv" {
		t.Errorf("entries = %+v", entries)
	}

	cleared := runCLI(t, "", "recent", "--clear", "--history-file", db)
	if cleared.err != nil {
		t.Fatalf("recent --clear: %v", cleared.err)
	}
	empty := runCLI(t, "", "recent", "--history-file", db)
	if got := empty.stdout.String(); got != "No recent files yet.\n" {
		t.Errorf("after clear = %q", got)
	}
}

func TestConvert_StdinDetectsSource(t *testing.T) {
	r := runCLI(t, `{"name": "Ada", "tags": ["a", "b"]}`, "convert", "--to", "yaml")
	if r.err != nil {
		t.Fatalf("convert: %v", r.err)
	}
	want := "name: Ada\ntags:\n  - a\n  - b\n"
	if diff := cmp.Diff(want, r.stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestConvert_Indent(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", nil, "{\n  \"a\": [\n    1\n  ]\n}\n"},
		{"wide", []string{"--indent", "4"}, "{\n    \"a\": [\n        1\n    ]\n}\n"},
		{"compact", []string{"--indent", "0"}, "{\"a\":[1]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"convert", "--from", "yaml", "--to", "json"}, tt.args...)
			r := runCLI(t, "a: [1]\n", args...)
			if r.err != nil {
				t.Fatalf("convert: %v", r.err)
			}
			if diff := cmp.Diff(tt.want, r.stdout.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvert_PromptsForTarget(t *testing.T) {
	a := newTestApp(`{"name": "Ada"}`)
	a.interactive = func() bool { return true }

	var offered []string
	a.selectOne = func(message string, options []string) (string, error) {
		offered = options
		return "xml", nil
	}

	r := runApp(t, a, "convert")
	if r.err != nil {
		t.Fatalf("convert: %v", r.err)
	}
	want := []string{"csv", "xml", "yaml", "sql", "markdown", "html"}
	if diff := cmp.Diff(want, offered); diff != "" {
		t.Errorf("offered targets mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(r.stdout.String(), "<name>Ada</name>") {
		t.Errorf("stdout = %q, want XML", r.stdout.String())
	}
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"no target without terminal", `{"a":1}`, []string{"convert"}, "--to is required"},
		{"syntax error", `{"a":`, []string{"convert", "--from", "json", "--to", "yaml"}, "CONV001"},
		{"identity", `{"a":1}`, []string{"convert", "--to", "json"}, "CONV002"},
		{"unknown target", `{"a":1}`, []string{"convert", "--to", "docx"}, "CONV003"},
		{"empty input", "", []string{"convert", "--from", "csv", "--to", "json"}, "CONV004"},
		{"missing file", "", []string{"convert", "nope.json", "--to", "csv"}, "nope.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, tt.stdin, tt.args...)
			if r.err == nil {
				t.Fatalf("expected error, stdout = %q", r.stdout.String())
			}
			if !strings.Contains(r.err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", r.err, tt.want)
			}
		})
	}
}

func TestConvert_ErrorCarriesUserMessage(t *testing.T) {
	r := runCLI(t, `{"a":`, "convert", "--from", "json", "--to", "yaml")

	var userErr *core.UserError
	if !errors.As(r.err, &userErr) {
		t.Fatalf("error = %T %v, want *core.UserError", r.err, r.err)
	}
	if userErr.User.Code != "CONV001" {
		t.Errorf("code = %q, want CONV001", userErr.User.Code)
	}
	var syntax *codec.SyntaxError
	if !errors.As(r.err, &syntax) {
		t.Errorf("technical error %v does not unwrap to *codec.SyntaxError", userErr.Technical)
	}
}

func TestConvert_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "formatbridge.yaml", "max-input-size: 8\n")

	r := runCLI(t, `{"name": "Ada Lovelace"}`, "convert", "--to", "csv", "--config", cfg)
	if r.err == nil || !strings.Contains(r.err.Error(), "FILE001") {
		t.Errorf("error = %v, want FILE001 from the configured limit", r.err)
	}
}

func TestConvert_EnvironmentOverride(t *testing.T) {
	t.Setenv("FORMATBRIDGE_MAX_INPUT_SIZE", "4")

	r := runCLI(t, `{"a": 1}`, "convert", "--to", "csv")
	if r.err == nil || !strings.Contains(r.err.Error(), "FILE001") {
		t.Errorf("error = %v, want FILE001 from the environment limit", r.err)
	}
}

func TestConvert_OutDirectory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "list.csv", "a,b\n1,2\n")
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	r := runCLI(t, "", "convert", path, "--to", "sql", "--table-name", "pairs", "-o", outDir)
	if r.err != nil {
		t.Fatalf("convert: %v", r.err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "list.sql"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "CREATE TABLE pairs") {
		t.Errorf("output = %s", data)
	}
}

func TestFormatsAndPairs(t *testing.T) {
	r := runCLI(t, "", "pairs", "--from", "yml")
	if r.err != nil {
		t.Fatal(r.err)
	}
	lines := strings.Split(strings.TrimSpace(r.stdout.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("pairs = %v, want 6", lines)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "yaml-to-") {
			t.Errorf("pair %q does not start from yaml", l)
		}
	}

	if r := runCLI(t, "", "pairs", "--from", "docx"); r.err == nil {
		t.Error("unknown source should fail")
	}

	formats := runCLI(t, "", "formats", "--json", "--locale", "de")
	if formats.err != nil {
		t.Fatal(formats.err)
	}
	var items []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(formats.stdout.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 7 {
		t.Errorf("formats = %d, want 7", len(items))
	}
}

func TestDetect(t *testing.T) {
	r := runCLI(t, `<?xml version="1.0"?><a><b>1</b></a>`, "detect")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if got := r.stdout.String(); got != "xml\tXML\n" {
		t.Errorf("stdout = %q", got)
	}

	if r := runCLI(t, "   ", "detect"); r.err == nil || !strings.Contains(r.err.Error(), "CONV004") {
		t.Errorf("error = %v, want CONV004", r.err)
	}
}

func TestTool_XLSXExport(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "People")
	f.SetCellValue("People", "A1", "id")
	f.SetCellValue("People", "B1", "name")
	f.SetCellValue("People", "A2", 1)
	f.SetCellValue("People", "B2", "Ada")
	path := filepath.Join(dir, "staff.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r := runCLI(t, "", "tool", "xlsx-export", path, "--target", "csv", "--quiet")
	if r.err != nil {
		t.Fatalf("tool: %v\n%s", r.err, r.stderr.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "staff-people.csv"))
	if err != nil {
		t.Fatalf("output next to input: %v", err)
	}
	if string(data) != "id,name\n1,Ada\n" {
		t.Errorf("output = %q", data)
	}

	stdout := runCLI(t, "", "tool", "xlsx-export", path, "--target", "yaml", "-o", "-", "--quiet")
	if stdout.err != nil {
		t.Fatal(stdout.err)
	}
	if !strings.Contains(stdout.stdout.String(), "name: Ada") {
		t.Errorf("stdout = %q", stdout.stdout.String())
	}
}

func TestTool_Errors(t *testing.T) {
	dir := t.TempDir()
	notPDF := writeFile(t, dir, "a.pdf", "hello")

	if r := runCLI(t, "", "tool", "zip", notPDF); r.err == nil || !strings.Contains(r.err.Error(), "pdf-flatten") {
		t.Errorf("unknown tool error = %v, want the list of tools", r.err)
	}
	if r := runCLI(t, "", "tool", "pdf-to-text", notPDF, "--quiet"); r.err == nil || !strings.Contains(r.err.Error(), "PDF001") {
		t.Errorf("invalid pdf error = %v, want PDF001", r.err)
	}
}

func TestRecent_Disabled(t *testing.T) {
	r := runCLI(t, "", "recent", "--history-file", "")
	if r.err == nil || !strings.Contains(r.err.Error(), "disabled") {
		t.Errorf("error = %v", r.err)
	}
}

func TestToolOutputPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		out, input, want string
	}{
		{"", "docs/a.pdf", filepath.Join("docs", "a-dark.pdf")},
		{"", "-", "-"},
		{"-", "docs/a.pdf", "-"},
		{dir, "docs/a.pdf", filepath.Join(dir, "a-dark.pdf")},
		{"b.pdf", "docs/a.pdf", "b.pdf"},
	}
	for _, tt := range tests {
		if got := toolOutputPath(tt.out, tt.input, "a-dark.pdf"); got != tt.want {
			t.Errorf("toolOutputPath(%q, %q) = %q, want %q", tt.out, tt.input, got, tt.want)
		}
	}
}
