package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/formatbridge/internal/document"
)

func TestSQL_Encode(t *testing.T) {
	n := document.NewSequence(
		mapping("id", num(1), "name", str("Ada"), "active", document.NewBool(true), "score", document.NewNumber("1.5")),
		mapping("id", num(2), "name", str("O'Brien"), "active", document.NewBool(false), "score", document.NewNull()),
	)

	got, warnings, err := sqlCodec{}.Encode(n, Options{})
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	want := `CREATE TABLE data (
  id INTEGER,
  name TEXT,
  active BOOLEAN,
  score NUMERIC
);

INSERT INTO data (id, name, active, score) VALUES
  (1, 'Ada', TRUE, 1.5),
  (2, 'O''Brien', FALSE, NULL);
`
	if got != want {
		t.Errorf("Encode =\n%s\nwant\n%s", got, want)
	}
}

func TestSQL_EncodeTableNameAndQuoting(t *testing.T) {
	n := mapping("user", str("ada"), "first name", str("Ada"))

	got, _, err := sqlCodec{}.Encode(n, Options{TableName: "My Table"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`CREATE TABLE "My Table"`, `"user" TEXT`, `"first name" TEXT`, `INSERT INTO "My Table" ("user", "first name")`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s:\n%s", want, got)
		}
	}
}

func TestSQL_EncodeNestedValuesAsJSON(t *testing.T) {
	n := document.NewSequence(
		mapping("id", num(1), "tags", document.NewSequence(str("a"), str("b"))),
	)

	got, warnings, err := sqlCodec{}.Encode(n, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `(1, '["a","b"]')`) {
		t.Errorf("nested value not stored as JSON text:\n%s", got)
	}
	if len(warnings) != 1 || warnings[0].Type != WarnStringified {
		t.Errorf("warnings = %v, want one %s", warnings, WarnStringified)
	}
}

func TestSQL_EncodeMultipleTables(t *testing.T) {
	n := mapping(
		"users", document.NewSequence(mapping("id", num(1))),
		"orders", document.NewSequence(mapping("id", num(7))),
	)

	got, _, err := sqlCodec{}.Encode(n, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "CREATE TABLE users") || !strings.Contains(got, "CREATE TABLE orders") {
		t.Errorf("expected one table per key:\n%s", got)
	}

	back, err := sqlCodec{}.Decode(got, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(n, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSQL_Decode(t *testing.T) {
	in := `-- export
/* generated
   by hand */
BEGIN;
CREATE TABLE IF NOT EXISTS public.people (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  balance NUMERIC(10, 2),
  CONSTRAINT people_name_uq UNIQUE (name)
);
INSERT INTO public.people VALUES
  (1, 'Ada', -12.50),
  (2, E'Li\'nus', .5);
INSERT INTO people ("id", "name", "balance", "seen")
VALUES (3, 'O''Brien', NULL, '2024-01-02'::date) ON CONFLICT DO NOTHING;
COMMIT;
`
	got, err := sqlCodec{}.Decode(in, Options{})
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}

	want := document.NewSequence(
		mapping("id", num(1), "name", str("Ada"), "balance", document.NewNumber("-12.50")),
		mapping("id", num(2), "name", str("Li'nus"), "balance", document.NewNumber("0.5")),
		mapping("id", num(3), "name", str("O'Brien"), "balance", document.NewNull(), "seen", str("2024-01-02")),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestSQL_DecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantLine int
	}{
		{"no inserts", "CREATE TABLE t (a INT);", 0},
		{"unterminated string", "INSERT INTO t (a) VALUES\n('x);", 2},
		{"missing values", "INSERT INTO t (a) SELECT 1;", 1},
		{"bad tuple", "INSERT INTO t (a) VALUES\n(1 2);", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlCodec{}.Decode(tt.in, Options{})
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *SyntaxError", err)
			}
			if se.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%v)", se.Line, tt.wantLine, err)
			}
		})
	}
}

func TestInferSQLType(t *testing.T) {
	tests := []struct {
		name   string
		values []*document.Node
		want   SQLType
	}{
		{"bools", []*document.Node{document.NewBool(true), document.NewNull()}, SQLBoolean},
		{"small ints", []*document.Node{num(1), num(-2)}, SQLInteger},
		{"big int widens", []*document.Node{num(1), num(5000000000)}, SQLBigInt},
		{"decimal widens", []*document.Node{num(1), document.NewNumber("2.5")}, SQLNumeric},
		{"huge integer", []*document.Node{document.NewNumber("10000000000000000001")}, SQLNumeric},
		{"dates", []*document.Node{str("2024-01-02"), str("2024-12-31")}, SQLDate},
		{"date and timestamp", []*document.Node{str("2024-01-02"), str("2024-01-02T10:00:00Z")}, SQLTimestamp},
		{"uuid", []*document.Node{str("6ba7b810-9dad-11d1-80b4-00c04fd430c8")}, SQLUUID},
		{"mixed", []*document.Node{num(1), str("x")}, SQLText},
		{"nested", []*document.Node{document.NewSequence()}, SQLText},
		{"all null", []*document.Node{document.NewNull(), nil}, SQLText},
		{"bad date", []*document.Node{str("2024-13-45")}, SQLText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferSQLType(tt.values); got != tt.want {
				t.Errorf("InferSQLType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := map[string]string{
		"id":         "id",
		"user_name":  "user_name",
		"user":       `"user"`,
		"First Name": `"First Name"`,
		`a"b`:        `"a""b"`,
		"1col":       `"1col"`,
	}
	for in, want := range tests {
		if got := QuoteIdentifier(in); got != want {
			t.Errorf("QuoteIdentifier(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSQL_EncodeTypedLiterals(t *testing.T) {
	n := document.NewSequence(
		mapping(
			"day", str("2024-01-02"),
			"at", str("2024-01-02T10:00:00+02:00"),
			"local", str("2024-01-02T10:00:00"),
			"id", str("{6BA7B810-9DAD-11D1-80B4-00C04FD430C8}"),
			"amount", document.NewNumber("1e3"),
		),
		mapping(
			"day", str("2024-12-31"),
			"at", str("2024-03-04"),
			"local", str("2024-01-02 10:00:00.5"),
			"id", str("urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			"amount", document.NewNumber("2.50"),
		),
	)

	got, _, err := sqlCodec{}.Encode(n, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"day DATE", "at TIMESTAMP", "local TIMESTAMP", "id UUID", "amount NUMERIC",
		"('2024-01-02', '2024-01-02 10:00:00+02:00', '2024-01-02 10:00:00', '6ba7b810-9dad-11d1-80b4-00c04fd430c8', 1000)",
		"('2024-12-31', '2024-03-04 00:00:00', '2024-01-02 10:00:00.5', '6ba7b810-9dad-11d1-80b4-00c04fd430c8', 2.50)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s:\n%s", want, got)
		}
	}
}

func TestSQL_HexStringIsNotUUID(t *testing.T) {
	values := []*document.Node{str("6ba7b8109dad11d180b400c04fd430c8")}
	if got := InferSQLType(values); got != SQLText {
		t.Errorf("InferSQLType = %s, want TEXT", got)
	}
}
