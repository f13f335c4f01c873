package pdftool

// sheet.go reads one worksheet of an XLSX workbook into records. The first
// row is the header; cell values are typed the same way as CSV input.

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/document"
)

// ErrNoSheet is returned when the requested worksheet does not exist or the
// workbook has none.
var ErrNoSheet = errors.New("worksheet not found")

// Sheet is a decoded worksheet.
type Sheet struct {
	Name   string
	Sheets []string // every sheet in the workbook, in tab order
	Data   *document.Node
}

// ReadSheet decodes the named sheet, or the first one when name is empty.
func ReadSheet(ctx context.Context, r io.Reader, name string, progress Progress) (*Sheet, error) {
	t := newTracker(progress)
	t.report(0)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	if name == "" {
		name = sheets[0]
	} else if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSheet, name)
	}
	t.report(20)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	t.report(80)

	data := document.NewSequence()
	if len(rows) > 0 {
		data = codec.TableRecords(rows[0], rows[1:])
	}

	t.report(100)
	return &Sheet{Name: name, Sheets: sheets, Data: data}, nil
}
