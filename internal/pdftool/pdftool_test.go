package pdftool

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/JonMunkholm/formatbridge/internal/document"
)

// reread parses tool output the same way the tools parse their input, so
// page counts and the page tree are populated.
func reread(t *testing.T, data []byte) *model.Context {
	t.Helper()
	pctx, err := readPDF(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	return pctx
}

func TestDarkModeOptions(t *testing.T) {
	tests := []struct {
		name    string
		in      DarkModeOptions
		want    DarkModeOptions
		wantErr bool
	}{
		{name: "defaults", want: DarkModeOptions{Opacity: 0.85, Color: defaultDarkColor}},
		{name: "invert", in: DarkModeOptions{Invert: true}, want: DarkModeOptions{Opacity: 0.85, Color: []float64{1, 1, 1}, Invert: true}},
		{name: "custom", in: DarkModeOptions{Opacity: 0.5, Color: []float64{0, 0, 0}}, want: DarkModeOptions{Opacity: 0.5, Color: []float64{0, 0, 0}}},
		{name: "opacity too high", in: DarkModeOptions{Opacity: 1.5}, wantErr: true},
		{name: "negative opacity", in: DarkModeOptions{Opacity: -0.1}, wantErr: true},
		{name: "short color", in: DarkModeOptions{Color: []float64{0, 0}}, wantErr: true},
		{name: "color out of range", in: DarkModeOptions{Color: []float64{0, 2, 0}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.normalize()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOverlayContent(t *testing.T) {
	opts, _ := DarkModeOptions{}.normalize()
	got := overlayContent(types.NewRectangle(0, 0, 200, 300), opts)
	want := "Q\nq\n/FBDark gs\n0.08 0.09 0.11 rg\n0 0 200 300 re\nf\nQ\n"
	if got != want {
		t.Errorf("overlayContent =\n%q\nwant\n%q", got, want)
	}

	got = overlayContent(types.NewRectangle(10.5, 20, 110.5, 70), DarkModeOptions{Color: []float64{1, 1, 1}})
	if !strings.Contains(got, "1 1 1 rg\n10.5 20 100 50 re\n") {
		t.Errorf("offset crop box not honored: %q", got)
	}
}

func TestDarkMode(t *testing.T) {
	in := testPDF{Pages: []string{"one", "two", "three"}}.build(t)

	var out bytes.Buffer
	var log progressLog
	if err := DarkMode(context.Background(), bytes.NewReader(in), &out, DarkModeOptions{}, log.fn); err != nil {
		t.Fatal(err)
	}
	log.check(t)

	pctx := reread(t, out.Bytes())
	if pctx.PageCount != 3 {
		t.Fatalf("PageCount = %d, want 3", pctx.PageCount)
	}
	for i := 1; i <= pctx.PageCount; i++ {
		page, _, _, err := pctx.PageDict(i, false)
		if err != nil {
			t.Fatal(err)
		}
		contents, err := pctx.DereferenceArray(page["Contents"])
		if err != nil {
			t.Fatalf("page %d contents: %v", i, err)
		}
		if len(contents) != 3 {
			t.Errorf("page %d has %d content streams, want 3", i, len(contents))
		}

		res, err := pctx.DereferenceDict(page["Resources"])
		if err != nil || res == nil {
			t.Fatalf("page %d resources: %v", i, err)
		}
		states, err := pctx.DereferenceDict(res["ExtGState"])
		if err != nil || states == nil {
			t.Fatalf("page %d has no ExtGState: %v", i, err)
		}
		gs, err := pctx.DereferenceDict(states[darkStateName])
		if err != nil || gs == nil {
			t.Fatalf("page %d missing %s: %v", i, darkStateName, err)
		}
		if ca, ok := number(pctx, gs["ca"]); !ok || ca != DefaultDarkOpacity {
			t.Errorf("page %d opacity = %v, want %v", i, ca, DefaultDarkOpacity)
		}
	}
}

func TestDarkMode_Errors(t *testing.T) {
	t.Run("not a pdf", func(t *testing.T) {
		err := DarkMode(context.Background(), strings.NewReader("hello"), &bytes.Buffer{}, DarkModeOptions{}, nil)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad options", func(t *testing.T) {
		in := testPDF{Pages: []string{"one"}}.build(t)
		err := DarkMode(context.Background(), bytes.NewReader(in), &bytes.Buffer{}, DarkModeOptions{Opacity: 3}, nil)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		in := testPDF{Pages: []string{"one"}}.build(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := DarkMode(ctx, bytes.NewReader(in), &bytes.Buffer{}, DarkModeOptions{}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}

func TestFlatten(t *testing.T) {
	in := testPDF{Pages: []string{"form", "second"}, Widget: true, Info: true}.build(t)

	var out bytes.Buffer
	var log progressLog
	stats, err := Flatten(context.Background(), bytes.NewReader(in), &out, log.fn)
	if err != nil {
		t.Fatal(err)
	}
	log.check(t)

	if diff := cmp.Diff(FlattenStats{Pages: 2, Widgets: 1, Removed: 1}, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	pctx := reread(t, out.Bytes())

	root, err := pctx.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := root["AcroForm"]; ok {
		t.Error("AcroForm survived")
	}

	page, _, _, err := pctx.PageDict(1, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := page["Annots"]; ok {
		t.Error("widget annotations survived")
	}
	res, _ := pctx.DereferenceDict(page["Resources"])
	xobjs, _ := pctx.DereferenceDict(res["XObject"])
	if _, ok := xobjs[widgetPrefix+"1"]; !ok {
		t.Errorf("appearance not registered, XObject = %v", xobjs)
	}

	if pctx.Info != nil {
		info, err := pctx.DereferenceDict(*pctx.Info)
		if err != nil {
			t.Fatal(err)
		}
		for _, k := range []string{"Title", "Author", "Subject", "Keywords", "Creator"} {
			if _, ok := info[k]; ok {
				t.Errorf("info still has %s", k)
			}
		}
	}
}

func TestFlatten_HiddenWidget(t *testing.T) {
	in := testPDF{Pages: []string{"form"}, Widget: true, Hidden: true}.build(t)

	var out bytes.Buffer
	stats, err := Flatten(context.Background(), bytes.NewReader(in), &out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(FlattenStats{Pages: 1, Widgets: 0, Removed: 1}, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_NoForm(t *testing.T) {
	in := testPDF{Pages: []string{"plain"}}.build(t)

	var out bytes.Buffer
	stats, err := Flatten(context.Background(), bytes.NewReader(in), &out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Widgets != 0 || stats.Removed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	reread(t, out.Bytes())
}

func TestPlacementMatrix(t *testing.T) {
	tests := []struct {
		name       string
		bbox, rect *types.Rectangle
		want       string
	}{
		{"same size", types.NewRectangle(0, 0, 100, 20), types.NewRectangle(50, 100, 150, 120), "1 0 0 1 50 100"},
		{"scaled", types.NewRectangle(0, 0, 50, 10), types.NewRectangle(0, 0, 100, 30), "2 0 0 3 0 0"},
		{"offset bbox", types.NewRectangle(10, 10, 20, 20), types.NewRectangle(0, 0, 10, 10), "1 0 0 1 -10 -10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := placementMatrix(tt.bbox, tt.rect); got != tt.want {
				t.Errorf("placementMatrix = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransformBox(t *testing.T) {
	box := types.NewRectangle(0, 0, 100, 20)

	if got := transformBox(box, [6]float64{1, 0, 0, 1, 0, 0}); got != box {
		t.Error("identity should return the input")
	}

	// 90 degree rotation.
	got := transformBox(box, [6]float64{0, 1, -1, 0, 0, 0})
	want := []float64{-20, 0, 0, 100}
	if diff := cmp.Diff(want, []float64{got.LL.X, got.LL.Y, got.UR.X, got.UR.Y}); diff != "" {
		t.Errorf("rotated box mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker(t *testing.T) {
	var log progressLog
	tr := newTracker(log.fn)
	tr.report(0)
	tr.step(1, 3)
	tr.step(1, 3)
	tr.report(10)
	tr.step(3, 3)
	tr.report(150)

	if diff := cmp.Diff([]int{0, 30, 90, 100}, log.got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	// A nil callback is allowed.
	newTracker(nil).report(50)
}

func TestExtractText(t *testing.T) {
	in := testPDF{Pages: []string{"First page", "Second page"}}.build(t)

	var log progressLog
	pages, err := ExtractText(context.Background(), bytes.NewReader(in), int64(len(in)), log.fn)
	if err != nil {
		t.Fatal(err)
	}
	log.check(t)

	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	for i, want := range []string{"First page", "Second page"} {
		if pages[i].Page != i+1 {
			t.Errorf("pages[%d].Page = %d", i, pages[i].Page)
		}
		if !strings.Contains(pages[i].Text, want) {
			t.Errorf("pages[%d].Text = %q, want it to contain %q", i, pages[i].Text, want)
		}
	}

	joined := JoinText(pages)
	if !strings.Contains(joined, "\n\n---\n\n") || !strings.HasSuffix(joined, "\n") {
		t.Errorf("JoinText = %q", joined)
	}
}

func TestExtractText_Invalid(t *testing.T) {
	in := []byte("definitely not a pdf")
	if _, err := ExtractText(context.Background(), bytes.NewReader(in), int64(len(in)), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestJoinText(t *testing.T) {
	if got := JoinText(nil); got != "" {
		t.Errorf("JoinText(nil) = %q", got)
	}
	got := JoinText([]PageText{{Page: 1, Text: "a"}, {Page: 2}, {Page: 3, Text: "b"}})
	if want := "a\n\n---\n\nb\n"; got != want {
		t.Errorf("JoinText = %q, want %q", got, want)
	}
}

func record(kv ...any) *document.Node {
	m := document.NewMapping()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1].(*document.Node))
	}
	return m
}

func TestReadSheet(t *testing.T) {
	data := buildXLSX(t, map[string][][]string{
		"Summary": {{"total"}, {"3"}},
		"People":  {{"id", "name", "active"}, {"1", "Ada", "true"}, {"2", "Linus", ""}},
	}, []string{"Summary", "People"})

	t.Run("first sheet by default", func(t *testing.T) {
		var log progressLog
		s, err := ReadSheet(context.Background(), bytes.NewReader(data), "", log.fn)
		if err != nil {
			t.Fatal(err)
		}
		log.check(t)
		if s.Name != "Summary" {
			t.Errorf("Name = %q", s.Name)
		}
		if diff := cmp.Diff([]string{"Summary", "People"}, s.Sheets); diff != "" {
			t.Errorf("Sheets mismatch (-want +got):\n%s", diff)
		}
		want := document.NewSequence(record("total", document.NewNumber("3")))
		if diff := cmp.Diff(want, s.Data); diff != "" {
			t.Errorf("Data mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("named sheet", func(t *testing.T) {
		s, err := ReadSheet(context.Background(), bytes.NewReader(data), "People", nil)
		if err != nil {
			t.Fatal(err)
		}
		want := document.NewSequence(
			record("id", document.NewNumber("1"), "name", document.NewString("Ada"), "active", document.NewBool(true)),
			record("id", document.NewNumber("2"), "name", document.NewString("Linus"), "active", document.NewNull()),
		)
		if diff := cmp.Diff(want, s.Data); diff != "" {
			t.Errorf("Data mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := ReadSheet(context.Background(), bytes.NewReader(data), "Nope", nil)
		if !errors.Is(err, ErrNoSheet) {
			t.Fatalf("err = %v, want ErrNoSheet", err)
		}
	})

	t.Run("not a workbook", func(t *testing.T) {
		if _, err := ReadSheet(context.Background(), strings.NewReader("a,b\n1,2\n"), "", nil); err == nil {
			t.Fatal("expected error")
		}
	})
}
