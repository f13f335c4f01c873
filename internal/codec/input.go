package codec

// input.go cleans raw uploaded bytes before decoding:
//
//   - UTF-8 BOM (0xEF 0xBB 0xBF) from Windows programs is removed
//   - invalid UTF-8 sequences are replaced with U+FFFD
//   - CRLF and lone CR line endings become LF

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize returns data as clean UTF-8 text.
func Normalize(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)
	if bytes.IndexByte(data, '\r') < 0 {
		return string(data)
	}
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// StripBOM removes a leading byte order mark from s.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, string(utf8BOM))
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + 8)

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.WriteRune(r)
		}
		data = data[size:]
	}

	return buf.Bytes()
}
