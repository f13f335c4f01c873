// Package core provides the business logic of formatbridge: document
// conversion, the file tools and the per-client recent list.
//
// This package has no transport dependencies. The web handlers, the CLI and
// the MCP server all drive it through [Service].
//
// # Conversion
//
// [Engine.Convert] decodes the input into the document tree of package
// document and encodes the tree into the target format. Markdown and HTML
// are transcoded directly. The outcome is always a [Result]; failures carry
// a user message and a support code instead of a Go error:
//
//	res := svc.Convert(ctx, "people.json", core.Request{
//	    Input:  input,
//	    Source: format.JSON,
//	    Target: format.CSV,
//	})
//	if !res.OK {
//	    fmt.Println(res.Error, res.Code)
//	}
//
// # Tools
//
// Tools transform uploaded files: PDF dark mode, PDF form flattening, PDF
// text extraction and spreadsheet export. They are registered at init time
// with [RegisterTool] and run through [Service.RunTool]. A [JobLimiter]
// shares a fixed number of slots between running jobs, weighted by input size.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - CONV001-CONV005: conversion errors (parse, pair, format, empty, detection)
//   - FILE001-FILE004: file errors (size, spreadsheet, missing file)
//   - PDF001-PDF002: PDF errors (invalid, encrypted)
//   - JOB001, TOOL001, UPL004-UPL005, RATE001: job and request errors
package core
