package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func TestJSON_DecodeKeepsOrderAndLiterals(t *testing.T) {
	in := `{"z": 1, "a": {"big": 10000000000000000001, "f": 1.0}, "m": [true, null, "x"]}`

	got, err := jsonCodec{}.Decode(in, Options{})
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}

	want := mapping(
		"z", num(1),
		"a", mapping(
			"big", &document.Node{Kind: document.Number, Text: "10000000000000000001"},
			"f", &document.Node{Kind: document.Number, Text: "1.0"},
		),
		"m", document.NewSequence(document.NewBool(true), document.NewNull(), str("x")),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON_Encode(t *testing.T) {
	n := mapping(
		"id", num(1),
		"name", str("<Ada>"),
		"tags", document.NewSequence(),
		"meta", document.NewMapping(),
	)

	got, warnings, err := jsonCodec{}.Encode(n, Options{})
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	want := "{\n  \"id\": 1,\n  \"name\": \"<Ada>\",\n  \"tags\": [],\n  \"meta\": {}\n}\n"
	if got != want {
		t.Errorf("Encode =\n%s\nwant\n%s", got, want)
	}
}

func TestJSON_EncodeIndent(t *testing.T) {
	got, _, err := jsonCodec{}.Encode(document.NewSequence(num(1)), Options{Indent: Indent(4)})
	if err != nil {
		t.Fatal(err)
	}
	if want := "[\n    1\n]\n"; got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestJSON_EncodeCompact(t *testing.T) {
	n := mapping("a", document.NewSequence(num(1), num(2)), "b", document.NewMapping())
	got, _, err := jsonCodec{}.Encode(n, Options{Indent: Indent(0)})
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\"a\":[1,2],\"b\":{}}\n"; got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestJSON_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantLine int
	}{
		{"missing value", "{\n  \"a\": \n}", 3},
		{"truncated", "[1, 2", 1},
		{"trailing data", "{}\n{}", 2},
		{"bare word", "hello", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jsonCodec{}.Decode(tt.in, Options{})
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *SyntaxError", err)
			}
			if se.Format != format.JSON {
				t.Errorf("Format = %q", se.Format)
			}
			if se.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%v)", se.Line, tt.wantLine, err)
			}
		})
	}
}

func TestCompactJSON(t *testing.T) {
	n := mapping("a", document.NewSequence(num(1), str("x: y")))
	if got, want := compactJSON(n), `{"a":[1,"x: y"]}`; got != want {
		t.Errorf("compactJSON = %s, want %s", got, want)
	}
}

func TestJSON_DecodeDepthLimit(t *testing.T) {
	nested := func(n int) string { return strings.Repeat("[", n) + strings.Repeat("]", n) }

	if _, err := (jsonCodec{}).Decode(nested(MaxDepth), Options{}); err != nil {
		t.Fatalf("Decode at the limit: %v", err)
	}

	_, err := jsonCodec{}.Decode(nested(4<<20), Options{})
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if !strings.Contains(se.Msg, "max depth") {
		t.Errorf("Msg = %q", se.Msg)
	}
}
