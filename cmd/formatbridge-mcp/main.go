// Command formatbridge-mcp serves the document conversions over the Model
// Context Protocol on stdio.
package main

import (
	"log/slog"
	"os"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/config"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/mark3labs/mcp-go/server"
)

// Server identity constants.
const (
	serverName    = "formatbridge"
	serverVersion = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// stdout carries the protocol; configuration problems go to stderr.
		logging.SetupWriter(os.Stderr, "info", "text")
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	svc := core.NewService(core.ServiceConfig{
		MaxInputBytes:     int(cfg.Convert.MaxInputSize),
		MaxUploadBytes:    int(cfg.Convert.MaxUploadSize),
		MaxConcurrentJobs: cfg.Convert.MaxConcurrentJobs,
		MaxWait:           cfg.Convert.MaxWaitTime,
		JobTimeout:        cfg.Convert.JobTimeout,
		Defaults: codec.Options{
			Indent:    codec.Indent(cfg.Convert.DefaultIndent),
			TableName: cfg.Convert.DefaultTableName,
		},
	}, nil)

	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, svc)

	slog.Info("mcp server listening on stdio", "version", serverVersion)
	if err := server.ServeStdio(s); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
