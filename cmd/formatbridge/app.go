package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/history"
	"github.com/spf13/viper"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// interactive reports whether prompts may be shown.
	interactive func() bool
	// selectOne asks the user to pick one of options.
	selectOne func(message string, options []string) (string, error)

	svc    *core.Service
	recent *history.Recent
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	a := &app{
		v:         viper.New(),
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		selectOne: surveySelect,
	}
	a.interactive = func() bool { return isTerminal(a.stdin) }
	return a
}

// service builds the conversion service on first use. The recent list is
// backed by the configured SQLite file.
func (a *app) service() (*core.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	if path := a.v.GetString("history-file"); path != "" {
		store, err := history.OpenSQLite(path, history.DefaultCapacity)
		if err != nil {
			return nil, fmt.Errorf("open recent list: %w", err)
		}
		a.recent = history.NewRecent(store)
	}

	a.svc = core.NewService(core.ServiceConfig{
		MaxInputBytes:     int(a.v.GetInt64("max-input-size")),
		MaxUploadBytes:    int(a.v.GetInt64("max-upload-size")),
		MaxConcurrentJobs: 1,
		JobTimeout:        a.v.GetDuration("job-timeout"),
	}, a.recent)
	return a.svc, nil
}

func (a *app) close() error {
	if a.recent == nil {
		return nil
	}
	err := a.recent.Close()
	a.recent = nil
	return err
}

// context returns ctx bound to the local user's recent list.
func (a *app) context(ctx context.Context) context.Context {
	return core.ContextWithClientID(ctx, localClientID())
}

// localClientID names the recent list of the current OS user.
func localClientID() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return "cli:" + u.Username
	}
	return "cli"
}

// readInput reads the named file, or stdin for "" and "-". The returned
// name is the file's base name, empty for stdin.
func (a *app) readInput(path string, limit int64) (string, []byte, error) {
	var r io.Reader = a.stdin
	name := ""
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		r = f
		name = filepath.Base(path)
	}

	// One byte over the limit so the size check reports the error.
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("read input: %w", err)
	}
	return name, data, nil
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func surveySelect(message string, options []string) (string, error) {
	var out string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", err
	}
	return out, nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
