package core

// engine.go converts documents between formats.
//
// Every conversion goes decode(source) -> document tree -> encode(target),
// except Markdown <-> HTML which is transcoded directly so prose survives.
// Convert never returns an error or panics: failures come back as a Result
// with a user message and a support code.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

// ErrInputTooLarge is returned when an input exceeds the engine's limit.
var ErrInputTooLarge = errors.New("file too large")

// DefaultMaxInputBytes is the input limit used when none is configured.
const DefaultMaxInputBytes = 10 << 20

// Request is one conversion. An empty Source asks the engine to detect it.
type Request struct {
	Input   string        `json:"input"`
	Source  format.ID     `json:"source,omitempty"`
	Target  format.ID     `json:"target"`
	Options codec.Options `json:"options,omitempty"`
}

// Result is the outcome of a conversion. Exactly one of the success fields
// (Output, Warnings) or failure fields (Error, Action, Code, Detail) is set,
// as reported by OK.
type Result struct {
	OK       bool            `json:"ok"`
	Output   string          `json:"output,omitempty"`
	Source   format.ID       `json:"source,omitempty"`
	Target   format.ID       `json:"target,omitempty"`
	Detected bool            `json:"detected,omitempty"`
	Warnings []codec.Warning `json:"warnings,omitempty"`

	Error  string `json:"error,omitempty"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`

	err error
}

// Err returns the technical error behind a failed result, for logging.
func (r Result) Err() error {
	return r.err
}

// failed builds a failure Result from err. The technical message is kept as
// Detail only when it maps to a known code, so internal errors stay private.
func failed(req Request, err error) Result {
	msg := MapError(err)
	res := Result{
		Source: req.Source,
		Target: req.Target,
		Error:  msg.Message,
		Action: msg.Action,
		Code:   msg.Code,
		err:    err,
	}
	if msg.Code != defaultMessage.Code {
		res.Detail = err.Error()
	}
	return res
}

// Engine runs conversions.
type Engine struct {
	maxInput int
}

// NewEngine returns an engine that rejects inputs longer than maxInputBytes.
// A value <= 0 selects DefaultMaxInputBytes.
func NewEngine(maxInputBytes int) *Engine {
	if maxInputBytes <= 0 {
		maxInputBytes = DefaultMaxInputBytes
	}
	return &Engine{maxInput: maxInputBytes}
}

// MaxInputBytes returns the configured input limit.
func (e *Engine) MaxInputBytes() int {
	return e.maxInput
}

// Convert runs req and reports the outcome.
func (e *Engine) Convert(ctx context.Context, req Request) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("conversion panicked",
				"source", req.Source,
				"target", req.Target,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			res = failed(req, fmt.Errorf("internal conversion failure: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return failed(req, err)
	}
	if len(req.Input) > e.maxInput {
		return failed(req, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrInputTooLarge, len(req.Input), e.maxInput))
	}

	target, err := resolveFormat(req.Target, "target")
	if err != nil {
		return failed(req, err)
	}
	req.Target = target

	input := codec.Normalize([]byte(req.Input))

	detected := false
	if req.Source == "" {
		id, err := codec.Detect(input)
		if err != nil {
			return failed(req, err)
		}
		req.Source = id
		detected = true
	} else {
		source, err := resolveFormat(req.Source, "source")
		if err != nil {
			return failed(req, err)
		}
		req.Source = source
	}

	if !format.IsValidConversion(req.Source, req.Target) {
		return failed(req, format.ErrIdentityPair)
	}

	if codec.HasProsePath(req.Source, req.Target) {
		out, err := codec.Transcode(req.Source, req.Target, input)
		if err != nil {
			return failed(req, err)
		}
		return Result{OK: true, Output: out, Source: req.Source, Target: req.Target, Detected: detected}
	}

	tree, err := codecFor(req.Source).Decode(input, req.Options)
	if err != nil {
		return failed(req, err)
	}
	if err := ctx.Err(); err != nil {
		return failed(req, err)
	}

	res = e.encode(req, tree)
	res.Detected = detected
	return res
}

// ConvertTree encodes an already decoded document, e.g. a worksheet, into
// target.
func (e *Engine) ConvertTree(ctx context.Context, tree *document.Node, target format.ID, opts codec.Options) Result {
	req := Request{Target: target, Options: opts}
	if err := ctx.Err(); err != nil {
		return failed(req, err)
	}
	id, err := resolveFormat(target, "target")
	if err != nil {
		return failed(req, err)
	}
	req.Target = id
	return e.encode(req, tree)
}

func (e *Engine) encode(req Request, tree *document.Node) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("encode panicked", "target", req.Target, "panic", p, "stack", string(debug.Stack()))
			res = failed(req, fmt.Errorf("internal conversion failure: %v", p))
		}
	}()

	out, warnings, err := codecFor(req.Target).Encode(tree, req.Options)
	if err != nil {
		return failed(req, err)
	}
	return Result{
		OK:       true,
		Output:   out,
		Source:   req.Source,
		Target:   req.Target,
		Warnings: warnings,
	}
}

// Detect guesses the format of input.
func (e *Engine) Detect(input string) (format.ID, error) {
	if len(input) > e.maxInput {
		return "", ErrInputTooLarge
	}
	return codec.Detect(codec.Normalize([]byte(input)))
}

// resolveFormat accepts identifiers and aliases ("yml", "md") and returns
// the canonical ID.
func resolveFormat(id format.ID, role string) (format.ID, error) {
	if id == "" {
		return "", fmt.Errorf("%s: %w: none given", role, format.ErrUnknownFormat)
	}
	d, ok := format.Lookup(string(id))
	if !ok {
		return "", fmt.Errorf("%s: %w: %q", role, format.ErrUnknownFormat, id)
	}
	return d.ID, nil
}

func codecFor(id format.ID) codec.Codec {
	c, ok := codec.Get(id)
	if !ok {
		panic(fmt.Sprintf("no codec registered for %s", id))
	}
	return c
}
