package codec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func init() { Register(sqlCodec{}) }

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedWords must be quoted when used as identifiers.
var reservedWords = map[string]bool{
	"all": true, "and": true, "as": true, "asc": true, "by": true, "case": true,
	"check": true, "column": true, "constraint": true, "create": true, "default": true,
	"desc": true, "distinct": true, "else": true, "end": true, "false": true,
	"from": true, "group": true, "having": true, "in": true, "insert": true,
	"into": true, "is": true, "join": true, "key": true, "limit": true, "not": true,
	"null": true, "on": true, "or": true, "order": true, "primary": true,
	"references": true, "select": true, "table": true, "then": true, "to": true,
	"true": true, "union": true, "unique": true, "update": true, "user": true,
	"values": true, "when": true, "where": true, "with": true,
}

// sqlCodec writes CREATE TABLE plus INSERT statements and reads INSERT
// statements back into records.
type sqlCodec struct{}

func (sqlCodec) Format() format.ID { return format.SQL }

// QuoteIdentifier returns name as a PostgreSQL identifier, double-quoted when
// it is not a plain lowercase-safe word.
func QuoteIdentifier(name string) string {
	if plainIdentifier.MatchString(name) && !reservedWords[strings.ToLower(name)] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString returns s as a SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type sqlTable struct {
	name string
	rows []*document.Node
}

func (sqlCodec) Encode(n *document.Node, opts Options) (string, []Warning, error) {
	tables, warnings := sqlTables(n, opts)

	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		warnings = append(warnings, writeSQLTable(&b, t)...)
	}
	return b.String(), warnings, nil
}

// sqlTables splits the document into tables. A mapping whose values are all
// record lists becomes one table per key unless a table name was given;
// anything else is a single table.
func sqlTables(n *document.Node, opts Options) ([]sqlTable, []Warning) {
	if opts.TableName == "" && n != nil && n.Kind == document.Mapping && len(n.Entries) > 0 {
		allRecords := true
		for _, e := range n.Entries {
			if !e.Value.IsRecords() {
				allRecords = false
				break
			}
		}
		if allRecords {
			tables := make([]sqlTable, len(n.Entries))
			for i, e := range n.Entries {
				tables[i] = sqlTable{name: e.Key, rows: e.Value.Items}
			}
			return tables, nil
		}
	}

	name := opts.TableNameOrDefault()
	switch {
	case n.IsRecords():
		return []sqlTable{{name: name, rows: n.Items}}, nil
	case n != nil && n.Kind == document.Mapping:
		return []sqlTable{{name: name, rows: []*document.Node{n}}}, nil
	default:
		rows, flattened := document.Records(n)
		var warnings []Warning
		if flattened {
			warnings = append(warnings, warn(WarnFlattened, "nested input was flattened into a single row"))
		}
		return []sqlTable{{name: name, rows: rows}}, warnings
	}
}

func writeSQLTable(b *strings.Builder, t sqlTable) []Warning {
	var warnings []Warning
	cols := document.Columns(t.rows)
	table := QuoteIdentifier(t.name)

	if len(cols) == 0 {
		fmt.Fprintf(b, "-- %s: no columns\n", table)
		return nil
	}

	types := make([]SQLType, len(cols))
	for i, col := range cols {
		values := make([]*document.Node, len(t.rows))
		nested := false
		for j, row := range t.rows {
			values[j], _ = row.Get(col)
			if !values[j].IsScalar() {
				nested = true
			}
		}
		types[i] = InferSQLType(values)
		if nested {
			warnings = append(warnings, warn(WarnStringified, "column %q holds nested values; stored as JSON text", col))
		}
	}

	fmt.Fprintf(b, "CREATE TABLE %s (\n", table)
	for i, col := range cols {
		sep := ","
		if i == len(cols)-1 {
			sep = ""
		}
		fmt.Fprintf(b, "  %s %s%s\n", QuoteIdentifier(col), types[i], sep)
	}
	b.WriteString(");\n")

	if len(t.rows) == 0 {
		return warnings
	}

	quotedCols := make([]string, len(cols))
	for i, col := range cols {
		quotedCols[i] = QuoteIdentifier(col)
	}
	fmt.Fprintf(b, "\nINSERT INTO %s (%s) VALUES\n", table, strings.Join(quotedCols, ", "))
	for r, row := range t.rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			v, _ := row.Get(col)
			values[i] = sqlLiteral(v, types[i])
		}
		sep := ","
		if r == len(t.rows)-1 {
			sep = ";"
		}
		fmt.Fprintf(b, "  (%s)%s\n", strings.Join(values, ", "), sep)
	}
	return warnings
}

func sqlLiteral(v *document.Node, t SQLType) string {
	if v.IsNull() {
		return "NULL"
	}
	if !v.IsScalar() {
		return QuoteString(compactJSON(v))
	}
	if t.quoted() {
		if lit, ok := typedLiteral(v.ScalarText(), t); ok {
			return QuoteString(lit)
		}
		return QuoteString(v.ScalarText())
	}
	if v.Kind == document.Bool {
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	}
	if t == SQLNumeric {
		if lit, ok := numericLiteral(v.ScalarText()); ok {
			return lit
		}
	}
	return v.ScalarText()
}

// Decode reads INSERT statements. CREATE TABLE statements supply column
// names for INSERTs without a column list; other statements are skipped.
// One table yields its records; several tables yield a mapping of table name
// to records in first-seen order.
func (sqlCodec) Decode(input string, _ Options) (*document.Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	toks, err := tokenizeSQL(input)
	if err != nil {
		return nil, err
	}

	p := &sqlParser{
		toks:    toks,
		columns: make(map[string][]string),
		tables:  document.NewMapping(),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}

	switch len(p.tables.Entries) {
	case 0:
		return nil, &SyntaxError{Format: format.SQL, Msg: "no INSERT statements found"}
	case 1:
		return p.tables.Entries[0].Value, nil
	default:
		return p.tables, nil
	}
}

type sqlParser struct {
	toks    []sqlToken
	pos     int
	columns map[string][]string // from CREATE TABLE
	tables  *document.Node
}

func (p *sqlParser) peek() sqlToken {
	if p.pos >= len(p.toks) {
		return sqlToken{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *sqlParser) next() sqlToken {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *sqlParser) errorf(t sqlToken, msg string, args ...any) error {
	return &SyntaxError{Format: format.SQL, Line: t.line, Msg: fmt.Sprintf(msg, args...)}
}

func (p *sqlParser) expectPunct(s string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != s {
		return p.errorf(t, "expected %q, found %q", s, t.text)
	}
	return nil
}

func (p *sqlParser) parse() error {
	for p.peek().kind != tokEOF {
		t := p.peek()
		switch {
		case t.isKeyword("insert"):
			if err := p.parseInsert(); err != nil {
				return err
			}
		case t.isKeyword("create"):
			if err := p.parseCreate(); err != nil {
				return err
			}
		default:
			p.skipStatement()
		}
	}
	return nil
}

// skipStatement consumes tokens through the next top-level semicolon. A
// statement missing its semicolon ends where the next INSERT or CREATE begins.
func (p *sqlParser) skipStatement() {
	depth := 0
	for first := true; ; first = false {
		if t := p.peek(); !first && depth <= 0 && (t.isKeyword("insert") || t.isKeyword("create")) {
			return
		}
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return
		case t.kind == tokPunct && t.text == "(":
			depth++
		case t.kind == tokPunct && t.text == ")":
			depth--
		case t.kind == tokPunct && t.text == ";" && depth <= 0:
			return
		}
	}
}

// parseName reads a possibly schema-qualified name and returns its last part.
func (p *sqlParser) parseName() (string, error) {
	t := p.next()
	if t.kind != tokIdent {
		return "", p.errorf(t, "expected name, found %q", t.text)
	}
	name := t.text
	for p.peek().kind == tokPunct && p.peek().text == "." {
		p.next()
		t = p.next()
		if t.kind != tokIdent {
			return "", p.errorf(t, "expected name after '.', found %q", t.text)
		}
		name = t.text
	}
	return name, nil
}

func (p *sqlParser) parseCreate() error {
	p.next() // CREATE
	for t := p.peek(); t.kind == tokIdent && !t.quoted && !t.isKeyword("table"); t = p.peek() {
		p.next() // TEMP, UNLOGGED, ...
	}
	if !p.peek().isKeyword("table") {
		p.skipStatement()
		return nil
	}
	p.next()
	if p.peek().isKeyword("if") {
		p.next() // IF
		p.next() // NOT
		p.next() // EXISTS
	}
	name, err := p.parseName()
	if err != nil {
		return err
	}
	if err := p.expectPunct("("); err != nil {
		return err
	}

	var cols []string
	for {
		t := p.next()
		if t.kind == tokEOF {
			return p.errorf(t, "unterminated CREATE TABLE")
		}
		if t.kind == tokIdent && !isConstraintKeyword(t) {
			cols = append(cols, t.text)
		}
		// Skip the rest of the column definition.
		depth := 0
		for {
			t = p.peek()
			if t.kind == tokEOF {
				return p.errorf(t, "unterminated CREATE TABLE")
			}
			if t.kind == tokPunct {
				if t.text == "(" {
					depth++
				} else if t.text == ")" {
					if depth == 0 {
						break
					}
					depth--
				} else if t.text == "," && depth == 0 {
					break
				}
			}
			p.next()
		}
		if p.next().text == ")" {
			break
		}
	}
	p.columns[strings.ToLower(name)] = cols
	p.skipStatement()
	return nil
}

func isConstraintKeyword(t sqlToken) bool {
	if t.quoted {
		return false
	}
	switch strings.ToLower(t.text) {
	case "primary", "foreign", "unique", "check", "constraint", "exclude":
		return true
	}
	return false
}

func (p *sqlParser) parseInsert() error {
	p.next() // INSERT
	if t := p.next(); !t.isKeyword("into") {
		return p.errorf(t, "expected INTO after INSERT")
	}
	name, err := p.parseName()
	if err != nil {
		return err
	}

	var cols []string
	if p.peek().kind == tokPunct && p.peek().text == "(" {
		p.next()
		for {
			t := p.next()
			if t.kind != tokIdent {
				return p.errorf(t, "expected column name, found %q", t.text)
			}
			cols = append(cols, t.text)
			sep := p.next()
			if sep.kind == tokPunct && sep.text == ")" {
				break
			}
			if sep.kind != tokPunct || sep.text != "," {
				return p.errorf(sep, "expected ',' or ')' in column list")
			}
		}
	} else {
		cols = p.columns[strings.ToLower(name)]
	}

	if t := p.next(); !t.isKeyword("values") {
		return p.errorf(t, "expected VALUES, found %q", t.text)
	}

	records, ok := p.tables.Get(name)
	if !ok {
		records = document.NewSequence()
		p.tables.Set(name, records)
	}

	for {
		if err := p.expectPunct("("); err != nil {
			return err
		}
		row := document.NewMapping()
		for i := 0; ; i++ {
			v, err := p.parseValue()
			if err != nil {
				return err
			}
			col := fmt.Sprintf("column_%d", i+1)
			if i < len(cols) {
				col = cols[i]
			}
			row.Set(col, v)

			sep := p.next()
			if sep.kind == tokPunct && sep.text == ")" {
				break
			}
			if sep.kind != tokPunct || sep.text != "," {
				return p.errorf(sep, "expected ',' or ')' in VALUES")
			}
		}
		records.Append(row)

		t := p.peek()
		if t.kind == tokPunct && t.text == "," {
			p.next()
			continue
		}
		break
	}

	// ON CONFLICT, RETURNING and the terminating semicolon.
	p.skipStatement()
	return nil
}

func (p *sqlParser) parseValue() (*document.Node, error) {
	t := p.next()
	var v *document.Node

	switch t.kind {
	case tokString:
		v = document.NewString(t.text)
	case tokNumber:
		v = document.NewNumber(t.text)
	case tokPunct:
		if t.text == "-" || t.text == "+" {
			num := p.next()
			if num.kind != tokNumber {
				return nil, p.errorf(num, "expected number after %q", t.text)
			}
			lit := num.text
			if t.text == "-" {
				lit = "-" + lit
			}
			v = document.NewNumber(lit)
			break
		}
		return nil, p.errorf(t, "unexpected %q in VALUES", t.text)
	case tokIdent:
		switch {
		case t.isKeyword("null"), t.isKeyword("default"):
			v = document.NewNull()
		case t.isKeyword("true"):
			v = document.NewBool(true)
		case t.isKeyword("false"):
			v = document.NewBool(false)
		case p.peek().kind == tokPunct && p.peek().text == "(":
			v = document.NewString(t.text + p.rawParens())
		default:
			return nil, p.errorf(t, "unexpected %q in VALUES", t.text)
		}
	default:
		return nil, p.errorf(t, "unexpected end of input in VALUES")
	}

	// Casts: 'x'::date
	for p.peek().kind == tokPunct && p.peek().text == "::" {
		p.next()
		if t := p.next(); t.kind != tokIdent {
			return nil, p.errorf(t, "expected type after '::'")
		}
	}
	return v, nil
}

// rawParens consumes a parenthesized argument list and returns its text,
// used to keep function calls such as now() as strings.
func (p *sqlParser) rawParens() string {
	var b strings.Builder
	depth := 0
	for {
		t := p.next()
		if t.kind == tokEOF {
			return b.String()
		}
		if t.kind == tokString {
			b.WriteString(QuoteString(t.text))
		} else {
			b.WriteString(t.text)
		}
		if t.kind == tokPunct {
			switch t.text {
			case "(":
				depth++
			case ")":
				depth--
				if depth == 0 {
					return b.String()
				}
			case ",":
				b.WriteByte(' ')
			}
		}
	}
}
