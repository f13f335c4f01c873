package codec

// sql_types.go infers a PostgreSQL column type from every value of a column.
//
// Candidates are checked from most to least specific. A column whose values
// disagree falls back to TEXT, and a column with only nulls is TEXT as well.

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/formatbridge/internal/document"
)

// SQLType is an inferred column type.
type SQLType string

const (
	SQLBoolean   SQLType = "BOOLEAN"
	SQLInteger   SQLType = "INTEGER"
	SQLBigInt    SQLType = "BIGINT"
	SQLNumeric   SQLType = "NUMERIC"
	SQLDate      SQLType = "DATE"
	SQLTimestamp SQLType = "TIMESTAMP"
	SQLUUID      SQLType = "UUID"
	SQLText      SQLType = "TEXT"
)

// quoted reports whether values of this type are written as string literals.
func (t SQLType) quoted() bool {
	switch t {
	case SQLBoolean, SQLInteger, SQLBigInt, SQLNumeric:
		return false
	default:
		return true
	}
}

var (
	dateLayouts = []string{"2006-01-02"}

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05Z07:00",
	}
)

// Literal layouts in PostgreSQL's own output style.
const (
	pgDateLayout        = "2006-01-02"
	pgTimestampLayout   = "2006-01-02 15:04:05.999999999"
	pgTimestampTZLayout = pgTimestampLayout + "Z07:00"
)

// scalarSQLType returns the narrowest type for one non-null scalar.
func scalarSQLType(n *document.Node) SQLType {
	switch n.Kind {
	case document.Bool:
		return SQLBoolean
	case document.Number:
		if i, ok := n.Int(); ok {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return SQLInteger
			}
			return SQLBigInt
		}
		if toPgNumeric(n.Text).Valid {
			return SQLNumeric
		}
		return SQLText
	case document.String:
		s := strings.TrimSpace(n.Text)
		switch {
		case toPgDate(s).Valid:
			return SQLDate
		case timestampValid(s):
			return SQLTimestamp
		case toPgUUID(s).Valid:
			return SQLUUID
		}
	}
	return SQLText
}

// InferSQLType returns the column type that fits every value.
// Nulls are ignored. Integer widths widen (INTEGER, BIGINT, NUMERIC) and a
// mix of DATE and TIMESTAMP widens to TIMESTAMP.
func InferSQLType(values []*document.Node) SQLType {
	var current SQLType
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if !v.IsScalar() {
			return SQLText
		}
		t := scalarSQLType(v)
		if current == "" {
			current = t
			continue
		}
		current = widenSQLType(current, t)
		if current == SQLText {
			return SQLText
		}
	}
	if current == "" {
		return SQLText
	}
	return current
}

var numericRank = map[SQLType]int{SQLInteger: 1, SQLBigInt: 2, SQLNumeric: 3}

func widenSQLType(a, b SQLType) SQLType {
	if a == b {
		return a
	}
	ra, aNum := numericRank[a]
	rb, bNum := numericRank[b]
	if aNum && bNum {
		if ra > rb {
			return a
		}
		return b
	}
	if (a == SQLDate && b == SQLTimestamp) || (a == SQLTimestamp && b == SQLDate) {
		return SQLTimestamp
	}
	return SQLText
}

func toPgDate(s string) pgtype.Date {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}
	return pgtype.Date{Valid: false}
}

// toPgTimestamp parses s; zoned reports whether s carried a UTC offset.
func toPgTimestamp(s string) (ts pgtype.Timestamp, zoned bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Timestamp{Time: t, Valid: true}, strings.HasSuffix(layout, "Z07:00")
		}
	}
	return pgtype.Timestamp{Valid: false}, false
}

func timestampValid(s string) bool {
	ts, _ := toPgTimestamp(s)
	return ts.Valid
}

func toPgNumeric(s string) pgtype.Numeric {
	if _, ok := document.ParseNumber(s); !ok {
		return pgtype.Numeric{Valid: false}
	}
	var (
		n   pgtype.Numeric
		err error
	)
	if strings.ContainsAny(s, "eE") {
		err = n.ScanScientific(s)
	} else {
		err = n.Scan(s)
	}
	if err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// toPgUUID accepts the hyphenated, braced and urn: forms. Bare 32-digit hex
// strings are left alone since hashes look the same.
func toPgUUID(s string) pgtype.UUID {
	if len(s) == 32 {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// numericLiteral renders a number in PostgreSQL's NUMERIC text form.
func numericLiteral(s string) (string, bool) {
	n := toPgNumeric(s)
	if !n.Valid {
		return "", false
	}
	v, err := n.Value()
	if err != nil {
		return "", false
	}
	lit, ok := v.(string)
	return lit, ok
}

// typedLiteral renders s as a literal of column type t from its parsed
// PostgreSQL value. ok is false when s does not parse as t.
func typedLiteral(s string, t SQLType) (lit string, ok bool) {
	s = strings.TrimSpace(s)
	switch t {
	case SQLDate:
		if d := toPgDate(s); d.Valid {
			return d.Time.Format(pgDateLayout), true
		}
	case SQLTimestamp:
		if ts, zoned := toPgTimestamp(s); ts.Valid {
			if zoned {
				return ts.Time.Format(pgTimestampTZLayout), true
			}
			return ts.Time.Format(pgTimestampLayout), true
		}
		// DATE values widened into a TIMESTAMP column.
		if d := toPgDate(s); d.Valid {
			return d.Time.Format(pgTimestampLayout), true
		}
	case SQLUUID:
		if u := toPgUUID(s); u.Valid {
			return uuid.UUID(u.Bytes).String(), true
		}
	}
	return "", false
}
