package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Users can quote the code when reporting a problem.
//
// # Conversion Errors (CONV001-CONV099)
//
//	CONV001 - Parse failure: the input is not valid in the source format
//	          Patterns: "syntax error"
//	CONV002 - Unsupported pair: source and target cannot be converted
//	          Patterns: "unsupported conversion", "no prose conversion"
//	CONV003 - Unknown format: a format identifier is not registered
//	          Patterns: "unknown format", "malformed conversion slug"
//	CONV004 - Empty input: nothing to convert
//	          Patterns: "empty input"
//	CONV005 - Detection failed: the source format could not be guessed
//	          Patterns: "could not detect"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: input exceeds the configured maximum
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid spreadsheet: workbook unreadable or sheet missing
//	          Patterns: "open xlsx", "worksheet not found"
//	FILE004 - No file: the request carried no file
//	          Patterns: "no file provided"
//
// # PDF Errors (PDF001-PDF099)
//
//	PDF002 - Encrypted: password protected documents are not processed
//	         Patterns: "encrypt", "password"
//	PDF001 - Invalid PDF: the file could not be parsed as a PDF
//	         Patterns: "read pdf", "validate pdf", "pdf has no pages"
//
// # Job and Request Errors
//
//	JOB001  - Busy: every job slot is taken
//	          Patterns: "too many concurrent jobs"
//	TOOL001 - Unknown tool: no tool with the requested slug
//	          Patterns: "unknown tool"
//	UPL004  - Request cancelled
//	          Patterns: "context canceled"
//	UPL005  - Request timeout
//	          Patterns: "context deadline exceeded"
//	RATE001 - Rate limited
//	          Patterns: "rate limit"
//	REQ001  - Malformed request body
//	          Patterns: "invalid request body"
//	REQ002  - Unknown page or endpoint
//	          Patterns: "page not found"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Support staff should check the
// application logs for the original technical error.
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/format"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Conversion (CONV001-CONV005)
	// =========================================================================
	{
		pattern: "syntax error",
		msg: UserMessage{
			Message: "The input could not be parsed",
			Action:  "Check that the input matches the source format",
			Code:    "CONV001",
		},
	},
	{
		pattern: "unsupported conversion",
		msg: UserMessage{
			Message: "This conversion is not supported",
			Action:  "Pick a different target format",
			Code:    "CONV002",
		},
	},
	{
		pattern: "no prose conversion",
		msg: UserMessage{
			Message: "This conversion is not supported",
			Action:  "Pick a different target format",
			Code:    "CONV002",
		},
	},
	{
		pattern: "unknown format",
		msg: UserMessage{
			Message: "Unknown format",
			Action:  "Use one of the listed formats",
			Code:    "CONV003",
		},
	},
	{
		pattern: "malformed conversion slug",
		msg: UserMessage{
			Message: "Unknown conversion",
			Action:  "Use a link of the form source-to-target, e.g. json-to-csv",
			Code:    "CONV003",
		},
	},
	{
		pattern: "empty input",
		msg: UserMessage{
			Message: "The input is empty",
			Action:  "Paste or upload a document to convert",
			Code:    "CONV004",
		},
	},
	{
		pattern: "could not detect",
		msg: UserMessage{
			Message: "The input format could not be detected",
			Action:  "Pick the source format explicitly",
			Code:    "CONV005",
		},
	},

	// =========================================================================
	// Files (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The input is too large",
			Action:  "Split the document into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The input is too large",
			Action:  "Split the document into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "open xlsx",
		msg: UserMessage{
			Message: "The file is not a readable Excel workbook",
			Action:  "Save the workbook as .xlsx and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "worksheet not found",
		msg: UserMessage{
			Message: "The requested sheet does not exist",
			Action:  "Check the sheet name or leave it empty to use the first sheet",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was uploaded",
			Action:  "Choose a file and try again",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// PDF (PDF001-PDF002). Encryption first: pdfcpu reports it while reading.
	// =========================================================================
	{
		pattern: "encrypt",
		msg: UserMessage{
			Message: "Encrypted PDFs are not supported",
			Action:  "Remove the password and upload the file again",
			Code:    "PDF002",
		},
	},
	{
		pattern: "password",
		msg: UserMessage{
			Message: "Encrypted PDFs are not supported",
			Action:  "Remove the password and upload the file again",
			Code:    "PDF002",
		},
	},
	{
		pattern: "read pdf",
		msg: UserMessage{
			Message: "The file is not a valid PDF",
			Action:  "Check that the file opens in a PDF viewer",
			Code:    "PDF001",
		},
	},
	{
		pattern: "validate pdf",
		msg: UserMessage{
			Message: "The file is not a valid PDF",
			Action:  "Check that the file opens in a PDF viewer",
			Code:    "PDF001",
		},
	},
	{
		pattern: "pdf has no pages",
		msg: UserMessage{
			Message: "The PDF has no pages",
			Action:  "Upload a document with at least one page",
			Code:    "PDF001",
		},
	},

	// =========================================================================
	// Jobs and requests
	// =========================================================================
	{
		pattern: "too many concurrent jobs",
		msg: UserMessage{
			Message: "The server is busy",
			Action:  "Please wait a moment and try again",
			Code:    "JOB001",
		},
	},
	{
		pattern: "unknown tool",
		msg: UserMessage{
			Message: "Unknown tool",
			Action:  "Pick one of the listed tools",
			Code:    "TOOL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send a JSON object with input, source and target fields",
			Code:    "REQ001",
		},
	},
	{
		pattern: "page not found",
		msg: UserMessage{
			Message: "Page not found",
			Action:  "Go back to the list of converters",
			Code:    "REQ002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned. A nil error maps to the
// zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// LocalizedMessage returns msg with its Message translated for locale. The
// catalog key is "error.<Code>"; untranslated codes keep the English text.
func LocalizedMessage(t format.Translator, locale string, msg UserMessage) UserMessage {
	if t == nil || msg.Code == "" {
		return msg
	}
	if s, ok := t.Translate(locale, "error."+msg.Code); ok && strings.TrimSpace(s) != "" {
		msg.Message = s
	}
	return msg
}

// IsUserFacing reports whether err matches a known pattern, that is whether
// it maps to anything other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with its user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

// Error renders "Message [CODE]: Action. technical" for terminal output.
func (e *UserError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", e.User.Message, e.User.Code)
	if e.User.Action != "" {
		fmt.Fprintf(&b, ": %s.", e.User.Action)
	}
	if e.Technical != nil {
		if e.User.Action == "" {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, " %v", e.Technical)
	}
	return b.String()
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
