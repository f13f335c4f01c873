package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/history"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/JonMunkholm/formatbridge/internal/pdftool"
)

// DefaultJobTimeout bounds a single tool run.
const DefaultJobTimeout = 2 * time.Minute

// DefaultMaxUploadBytes is the tool upload limit used when none is configured.
const DefaultMaxUploadBytes = 50 << 20

// ServiceConfig holds the limits of a Service. Zero values use the defaults.
type ServiceConfig struct {
	MaxInputBytes     int           // text conversions
	MaxUploadBytes    int           // tool uploads
	MaxConcurrentJobs int           // job slot capacity
	MaxWait           time.Duration // how long a job waits for a slot
	JobTimeout        time.Duration // per tool run
	Defaults          codec.Options // applied where a request leaves an option unset
}

// Service is the entry point for conversions, tools and the recent list.
// It is used by the web handlers, the CLI and the MCP server.
type Service struct {
	engine     *Engine
	limiter    *JobLimiter
	recent     *history.Recent
	maxUpload  int
	jobTimeout time.Duration
	defaults   codec.Options
}

// NewService creates a Service. A nil recent list disables recording.
func NewService(cfg ServiceConfig, recent *history.Recent) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	return &Service{
		engine:     NewEngine(cfg.MaxInputBytes),
		limiter:    NewJobLimiter(cfg.MaxConcurrentJobs, cfg.MaxWait),
		recent:     recent,
		maxUpload:  cfg.MaxUploadBytes,
		jobTimeout: cfg.JobTimeout,
		defaults:   cfg.Defaults,
	}
}

// Engine returns the conversion engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// MaxUploadBytes returns the tool upload limit.
func (s *Service) MaxUploadBytes() int {
	return s.maxUpload
}

// Convert runs a conversion. When fileName is set and ctx carries a client
// ID, a successful conversion is added to that client's recent list.
func (s *Service) Convert(ctx context.Context, fileName string, req Request) Result {
	start := time.Now()
	req.Options = withDefaults(req.Options, s.defaults)
	res := s.engine.Convert(ctx, req)

	logger := logging.WithFields(ctx, "source", res.Source, "target", res.Target, "input_bytes", len(req.Input))
	if !res.OK {
		level := slog.LevelInfo
		if res.Code == defaultMessage.Code {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "conversion failed", "code", res.Code, "error", res.Err())
		return res
	}
	logger.Info("conversion completed",
		"detected", res.Detected,
		"warnings", len(res.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if fileName != "" {
		s.record(ctx, history.Entry{
			FileName:  fileName,
			Operation: format.Slug(res.Source, res.Target),
			Size:      int64(len(req.Input)),
		})
	}
	return res
}

// Detect guesses the format of input.
func (s *Service) Detect(input string) (format.ID, error) {
	return s.engine.Detect(input)
}

// RunTool runs the tool with the given slug on in. The job waits for a free
// slot, is bounded by the job timeout and is added to the recent list on
// success.
func (s *Service) RunTool(ctx context.Context, slug string, in ToolInput, progress pdftool.Progress) (out *ToolOutput, err error) {
	def, ok := GetTool(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, slug)
	}
	if len(in.Data) == 0 {
		return nil, ErrNoFile
	}
	if len(in.Data) > s.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrInputTooLarge, len(in.Data), s.maxUpload)
	}

	logger := logging.WithFields(ctx,
		"tool", def.Info.Slug,
		"file", in.FileName,
		"bytes", len(in.Data),
		"ip", IPAddressFromContext(ctx),
	)

	release, err := s.limiter.Acquire(ctx, len(in.Data))
	if err != nil {
		logger.Warn("job rejected", "error", err, "slots", s.limiter.Weight(len(in.Data)), "active", s.limiter.ActiveCount())
		return nil, err
	}
	defer release()

	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in tool job", "panic", r, "stack", string(debug.Stack()))
			out, err = nil, fmt.Errorf("tool %s failed unexpectedly", def.Info.Slug)
		}
	}()

	start := time.Now()
	logger.Info("job started")

	in.Params.Options = withDefaults(in.Params.Options, s.defaults)
	out, err = def.Run(jobCtx, s.engine, in, progress)
	if err != nil {
		logger.Warn("job failed", "error", err, "code", MapError(err).Code)
		return nil, err
	}

	logger.Info("job completed",
		"output", out.FileName,
		"output_bytes", len(out.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	name := in.FileName
	if name == "" {
		name = out.FileName
	}
	s.record(ctx, history.Entry{FileName: name, Operation: def.Info.Slug, Size: int64(len(in.Data))})
	return out, nil
}

// record adds e to the recent list of the client in ctx. Failures are
// logged; they never fail the operation that produced the entry.
func (s *Service) record(ctx context.Context, e history.Entry) {
	clientID := ClientIDFromContext(ctx)
	if s.recent == nil || clientID == "" {
		return
	}
	if _, err := s.recent.Record(ctx, clientID, e); err != nil {
		logging.FromContext(ctx).Warn("record recent file failed", "error", err)
	}
}

// Recent returns the recent list of the client in ctx, newest first.
func (s *Service) Recent(ctx context.Context) ([]history.Entry, error) {
	clientID := ClientIDFromContext(ctx)
	if s.recent == nil || clientID == "" {
		return []history.Entry{}, nil
	}
	return s.recent.List(ctx, clientID)
}

// ClearRecent empties the recent list of the client in ctx.
func (s *Service) ClearRecent(ctx context.Context) error {
	clientID := ClientIDFromContext(ctx)
	if s.recent == nil || clientID == "" {
		return nil
	}
	return s.recent.Clear(ctx, clientID)
}

// Jobs returns the state of the job limiter.
func (s *Service) Jobs() JobLimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for running tool jobs to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	if n := s.limiter.ActiveCount(); n > 0 {
		slog.Info("waiting for tool jobs to finish", "active", n)
	}
	return s.limiter.WaitForDrain(ctx)
}

func withDefaults(o, defaults codec.Options) codec.Options {
	if o.Indent == nil {
		o.Indent = defaults.Indent
	}
	if o.TableName == "" {
		o.TableName = defaults.TableName
	}
	if o.Delimiter == "" {
		o.Delimiter = defaults.Delimiter
	}
	if o.RootName == "" {
		o.RootName = defaults.RootName
	}
	return o
}
