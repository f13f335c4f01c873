// Package pdftool implements the document tools: PDF dark mode, PDF form
// flattening, PDF text extraction and spreadsheet export.
//
// The tools are sequential; concurrency limits are applied by the caller.
// Library failures are returned wrapped with the step that failed.
package pdftool

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoPages is returned for documents without pages.
var ErrNoPages = errors.New("pdf has no pages")

// Progress receives completion percentages in increasing order. The last
// call on success is 100.
type Progress func(percent int)

// tracker forwards percentages to a Progress, dropping repeats and values
// lower than one already reported.
type tracker struct {
	fn   Progress
	last int
}

func newTracker(fn Progress) *tracker {
	return &tracker{fn: fn, last: -1}
}

func (t *tracker) report(percent int) {
	if percent > 100 {
		percent = 100
	}
	if t.fn == nil || percent <= t.last {
		return
	}
	t.last = percent
	t.fn(percent)
}

// step reports progress for page done of total, scaled into [0, 90]. The
// remaining share belongs to writing the document.
func (t *tracker) step(done, total int) {
	if total <= 0 {
		return
	}
	t.report(done * 90 / total)
}

func readPDF(rs io.ReadSeeker) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	if pctx.PageCount == 0 {
		return nil, ErrNoPages
	}
	return pctx, nil
}

func writePDF(pctx *model.Context, w io.Writer) error {
	if err := api.WriteContext(pctx, w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pageBox returns the visible area of a page: the crop box when present,
// else the media box.
func pageBox(inh *model.InheritedPageAttrs) *types.Rectangle {
	if inh == nil {
		return types.RectForFormat("A4")
	}
	if inh.CropBox != nil {
		return inh.CropBox
	}
	if inh.MediaBox != nil {
		return inh.MediaBox
	}
	return types.RectForFormat("A4")
}

// pageResources returns the page's resource dictionary, creating an empty
// one when the page has none.
func pageResources(pctx *model.Context, page types.Dict) (types.Dict, error) {
	return subDict(pctx, page, "Resources")
}

// subDict returns parent[key] as a dictionary, inserting an empty one when
// the entry is missing.
func subDict(pctx *model.Context, parent types.Dict, key string) (types.Dict, error) {
	if o, ok := parent[key]; ok && o != nil {
		d, err := pctx.DereferenceDict(o)
		if err != nil {
			return nil, fmt.Errorf("resolve /%s: %w", key, err)
		}
		if d != nil {
			return d, nil
		}
	}
	d := types.Dict{}
	parent[key] = d
	return d, nil
}

// newContentStream adds a Flate-encoded stream holding content and returns
// its reference.
func newContentStream(pctx *model.Context, content string) (*types.IndirectRef, error) {
	sd, err := pctx.NewStreamDictForBuf([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("encode content stream: %w", err)
	}
	ref, err := pctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("add content stream: %w", err)
	}
	return ref, nil
}

// wrapContents makes the page content [before, original..., after].
func wrapContents(pctx *model.Context, page types.Dict, before, after *types.IndirectRef) error {
	contents := types.Array{}
	if before != nil {
		contents = append(contents, *before)
	}

	if o, ok := page["Contents"]; ok && o != nil {
		resolved, err := pctx.Dereference(o)
		if err != nil {
			return fmt.Errorf("resolve page contents: %w", err)
		}
		switch c := resolved.(type) {
		case types.Array:
			contents = append(contents, c...)
		case types.StreamDict:
			contents = append(contents, o)
		}
	}

	if after != nil {
		contents = append(contents, *after)
	}
	page["Contents"] = contents
	return nil
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// number reads a PDF numeric object.
func number(pctx *model.Context, o types.Object) (float64, bool) {
	resolved, err := pctx.Dereference(o)
	if err != nil {
		return 0, false
	}
	switch v := resolved.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

// rectangle reads a four-number array such as /Rect or /BBox.
func rectangle(pctx *model.Context, o types.Object) (*types.Rectangle, bool) {
	arr, err := pctx.DereferenceArray(o)
	if err != nil || len(arr) != 4 {
		return nil, false
	}
	var v [4]float64
	for i := range v {
		f, ok := number(pctx, arr[i])
		if !ok {
			return nil, false
		}
		v[i] = f
	}
	llx, urx := min(v[0], v[2]), max(v[0], v[2])
	lly, ury := min(v[1], v[3]), max(v[1], v[3])
	return types.NewRectangle(llx, lly, urx, ury), true
}
