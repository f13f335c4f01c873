// Package main is the entry point for the formatbridge CLI.
//
// The CLI runs the same conversions and tools as the web server against
// local files. Settings come from flags, a formatbridge.yaml config file and
// FORMATBRIDGE_* environment variables, in that order of precedence.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "formatbridge",
		Short: "Convert documents between JSON, CSV, XML, YAML, SQL, Markdown and HTML",
		Long: `formatbridge converts structured documents between formats through a
shared intermediate tree, and runs the document tools of the web service
(PDF dark mode, PDF form flattening, PDF text extraction, spreadsheet export)
on local files.

Converted files are added to a local recent list; see "formatbridge recent".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(cmd); err != nil {
				return err
			}
			logging.SetupWriter(cmd.ErrOrStderr(), a.v.GetString("log-level"), "text")
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ./formatbridge.yaml or ~/.config/formatbridge/config.yaml)")
	flags.String("history-file", defaultHistoryFile(), "SQLite file of the recent list; empty disables it")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.Int64("max-input-size", 10<<20, "largest text document to convert, in bytes")
	flags.Int64("max-upload-size", 50<<20, "largest file a tool accepts, in bytes")
	flags.Duration("job-timeout", 0, "time limit of one tool run (default 2m)")

	for _, name := range []string{"history-file", "log-level", "max-input-size", "max-upload-size", "job-timeout"} {
		a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newConvertCmd(a),
		newFormatsCmd(a),
		newPairsCmd(a),
		newDetectCmd(a),
		newToolCmd(a),
		newRecentCmd(a),
	)
	return root
}

// initConfig reads the config file and environment into the app's viper.
func (a *app) initConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("formatbridge")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "formatbridge"))
		}
	}

	a.v.SetEnvPrefix("FORMATBRIDGE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", a.v.ConfigFileUsed())
	return nil
}

func defaultHistoryFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "formatbridge", "recent.db")
}

// execute runs the CLI with args and releases the recent store afterwards.
func execute(a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func main() {
	if err := execute(newApp(os.Stdin, os.Stdout, os.Stderr), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
