package pdftool

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// testPDF describes a small document for the tool tests.
type testPDF struct {
	Pages  []string // text drawn on each page
	Widget bool     // add a filled text field on page 1
	Hidden bool     // mark the widget hidden
	Info   bool     // add a document information dictionary
}

// build writes an uncompressed PDF with a valid cross-reference table.
func (p testPDF) build(t *testing.T) []byte {
	t.Helper()

	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}
	set := func(n int, body string) { objs[n-1] = body }

	catalog := add("")
	pages := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	var widget int
	for i, text := range p.Pages {
		content := fmt.Sprintf("BT /F1 12 Tf 20 250 Td (%s) Tj ET", text)
		c := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		page := add("")
		annots := ""
		if i == 0 && p.Widget {
			ap := "BT /F1 10 Tf 2 5 Td (Ada Lovelace) Tj ET"
			apObj := add(fmt.Sprintf(
				"<< /Type /XObject /Subtype /Form /BBox [0 0 100 20] /Resources << /Font << /F1 %d 0 R >> >> /Length %d >>\nstream\n%s\nendstream",
				font, len(ap), ap))
			flags := 4
			if p.Hidden {
				flags |= annotHidden
			}
			widget = add(fmt.Sprintf(
				"<< /Type /Annot /Subtype /Widget /FT /Tx /T (name) /V (Ada Lovelace) /DA (/F1 10 Tf 0 g) /F %d /Rect [50 100 150 120] /P %d 0 R /AP << /N %d 0 R >> >>",
				flags, page, apObj))
			annots = fmt.Sprintf(" /Annots [%d 0 R]", widget)
		}
		set(page, fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R%s >>",
			pages, font, c, annots))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 200 300] >>",
		strings.Join(kids, " "), len(kids)))

	acro := ""
	if p.Widget {
		form := add(fmt.Sprintf("<< /Fields [%d 0 R] /DA (/F1 10 Tf 0 g) /DR << /Font << /F1 %d 0 R >> >> >>", widget, font))
		acro = fmt.Sprintf(" /AcroForm %d 0 R", form)
	}
	set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R%s >>", pages, acro))

	info := 0
	if p.Info {
		info = add("<< /Title (Quarterly report) /Author (Ada) /Subject (Numbers) /Keywords (q3) /Creator (builder) /Producer (builder) >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	trailer := fmt.Sprintf("<< /Size %d /Root %d 0 R", len(objs)+1, catalog)
	if info != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", info)
	}
	fmt.Fprintf(&buf, "trailer\n%s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

// buildXLSX writes a workbook with one sheet per entry of sheets.
func buildXLSX(t *testing.T, sheets map[string][][]string, order []string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for r, row := range sheets[name] {
			for c, val := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(name, cell, val); err != nil {
					t.Fatal(err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// progressLog records every reported percentage.
type progressLog struct{ got []int }

func (l *progressLog) fn(p int) { l.got = append(l.got, p) }

func (l *progressLog) check(t *testing.T) {
	t.Helper()
	if len(l.got) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(l.got); i++ {
		if l.got[i] <= l.got[i-1] {
			t.Fatalf("progress not increasing: %v", l.got)
		}
	}
	if last := l.got[len(l.got)-1]; last != 100 {
		t.Fatalf("last progress = %d, want 100 (%v)", last, l.got)
	}
}
