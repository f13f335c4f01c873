package pdftool

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Annotation flag bits.
const (
	annotHidden  = 1 << 1
	annotNoView  = 1 << 5
	widgetPrefix = "FBW"
)

// clearedInfoKeys are removed from the document information dictionary.
var clearedInfoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}

// FlattenStats describes what Flatten changed.
type FlattenStats struct {
	Pages   int
	Widgets int // widgets drawn into page content
	Removed int // widgets removed, drawn or not
}

// Flatten reads a PDF from r, draws every visible form widget into its
// page, removes the interactive form and clears document metadata. The
// result is written to w.
func Flatten(ctx context.Context, r io.ReadSeeker, w io.Writer, progress Progress) (FlattenStats, error) {
	var stats FlattenStats

	t := newTracker(progress)
	t.report(0)

	pctx, err := readPDF(r)
	if err != nil {
		return stats, err
	}
	stats.Pages = pctx.PageCount

	seq := 0
	for i := 1; i <= pctx.PageCount; i++ {
		if err := checkContext(ctx); err != nil {
			return stats, err
		}
		drawn, removed, err := flattenPage(pctx, i, &seq)
		if err != nil {
			return stats, fmt.Errorf("page %d: %w", i, err)
		}
		stats.Widgets += drawn
		stats.Removed += removed
		t.step(i, pctx.PageCount)
	}

	if err := removeForm(pctx); err != nil {
		return stats, err
	}
	if err := clearMetadata(pctx); err != nil {
		return stats, err
	}

	if err := writePDF(pctx, w); err != nil {
		return stats, err
	}
	t.report(100)
	return stats, nil
}

func flattenPage(pctx *model.Context, pageNr int, seq *int) (drawn, removed int, err error) {
	page, _, inh, err := pctx.PageDict(pageNr, true)
	if err != nil {
		return 0, 0, fmt.Errorf("load page: %w", err)
	}
	if page == nil {
		return 0, 0, fmt.Errorf("missing page dictionary")
	}
	delete(page, "Metadata")

	annots, ok := page["Annots"]
	if !ok || annots == nil {
		return 0, 0, nil
	}
	arr, err := pctx.DereferenceArray(annots)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve annotations: %w", err)
	}

	var (
		kept  types.Array
		draws strings.Builder
		xobjs types.Dict
	)
	for _, a := range arr {
		annot, err := pctx.DereferenceDict(a)
		if err != nil || annot == nil {
			kept = append(kept, a)
			continue
		}
		if sub, _ := annot["Subtype"].(types.Name); sub != "Widget" {
			kept = append(kept, a)
			continue
		}
		removed++

		ref, placement, ok := widgetAppearance(pctx, annot)
		if !ok {
			continue
		}
		if xobjs == nil {
			if _, ok := page["Resources"]; !ok && inh != nil && inh.Resources != nil {
				page["Resources"] = inh.Resources.Clone()
			}
			res, err := pageResources(pctx, page)
			if err != nil {
				return drawn, removed, err
			}
			if xobjs, err = subDict(pctx, res, "XObject"); err != nil {
				return drawn, removed, err
			}
		}

		*seq++
		name := fmt.Sprintf("%s%d", widgetPrefix, *seq)
		xobjs[name] = ref
		fmt.Fprintf(&draws, "q\n%s cm\n/%s Do\nQ\n", placement, name)
		drawn++
	}

	if len(kept) == 0 {
		delete(page, "Annots")
	} else {
		page["Annots"] = kept
	}

	if drawn == 0 {
		return drawn, removed, nil
	}
	prefix, err := newContentStream(pctx, "q\n")
	if err != nil {
		return drawn, removed, err
	}
	suffix, err := newContentStream(pctx, "Q\n"+draws.String())
	if err != nil {
		return drawn, removed, err
	}
	return drawn, removed, wrapContents(pctx, page, prefix, suffix)
}

// widgetAppearance returns the normal appearance stream of a visible widget
// and the matrix that places it on the page.
func widgetAppearance(pctx *model.Context, annot types.Dict) (types.IndirectRef, string, bool) {
	if f, ok := number(pctx, annot["F"]); ok {
		flags := int(f)
		if flags&annotHidden != 0 || flags&annotNoView != 0 {
			return types.IndirectRef{}, "", false
		}
	}

	rect, ok := rectangle(pctx, annot["Rect"])
	if !ok || rect.Width() == 0 || rect.Height() == 0 {
		return types.IndirectRef{}, "", false
	}

	ap, err := pctx.DereferenceDict(annot["AP"])
	if err != nil || ap == nil {
		return types.IndirectRef{}, "", false
	}
	normal, ok := ap["N"]
	if !ok {
		return types.IndirectRef{}, "", false
	}

	// Checkboxes and radio buttons keep one stream per state, selected by AS.
	if states, err := pctx.DereferenceDict(normal); err == nil && states != nil {
		as, _ := annot["AS"].(types.Name)
		if as == "" {
			return types.IndirectRef{}, "", false
		}
		if normal, ok = states[string(as)]; !ok {
			return types.IndirectRef{}, "", false
		}
	}

	ref, ok := normal.(types.IndirectRef)
	if !ok {
		return types.IndirectRef{}, "", false
	}
	sd, _, err := pctx.DereferenceStreamDict(ref)
	if err != nil || sd == nil {
		return types.IndirectRef{}, "", false
	}
	if _, ok := sd.Dict["Type"]; !ok {
		sd.Dict["Type"] = types.Name("XObject")
	}
	if _, ok := sd.Dict["Subtype"]; !ok {
		sd.Dict["Subtype"] = types.Name("Form")
	}

	bbox, ok := rectangle(pctx, sd.Dict["BBox"])
	if !ok || bbox.Width() == 0 || bbox.Height() == 0 {
		return types.IndirectRef{}, "", false
	}
	bbox = transformBox(bbox, formMatrix(pctx, sd.Dict["Matrix"]))

	return ref, placementMatrix(bbox, rect), true
}

// formMatrix reads a form's /Matrix, defaulting to the identity.
func formMatrix(pctx *model.Context, o types.Object) [6]float64 {
	m := [6]float64{1, 0, 0, 1, 0, 0}
	if o == nil {
		return m
	}
	arr, err := pctx.DereferenceArray(o)
	if err != nil || len(arr) != 6 {
		return m
	}
	var out [6]float64
	for i := range out {
		f, ok := number(pctx, arr[i])
		if !ok {
			return m
		}
		out[i] = f
	}
	return out
}

// transformBox returns the bounding box of box after applying m.
func transformBox(box *types.Rectangle, m [6]float64) *types.Rectangle {
	if m == [6]float64{1, 0, 0, 1, 0, 0} {
		return box
	}
	xs := []float64{box.LL.X, box.UR.X}
	ys := []float64{box.LL.Y, box.UR.Y}
	first := true
	var llx, lly, urx, ury float64
	for _, x := range xs {
		for _, y := range ys {
			tx := m[0]*x + m[2]*y + m[4]
			ty := m[1]*x + m[3]*y + m[5]
			if first {
				llx, urx, lly, ury = tx, tx, ty, ty
				first = false
				continue
			}
			llx, urx = min(llx, tx), max(urx, tx)
			lly, ury = min(lly, ty), max(ury, ty)
		}
	}
	return types.NewRectangle(llx, lly, urx, ury)
}

// placementMatrix maps the transformed appearance box onto the annotation
// rectangle.
func placementMatrix(bbox, rect *types.Rectangle) string {
	sx := rect.Width() / bbox.Width()
	sy := rect.Height() / bbox.Height()
	tx := rect.LL.X - bbox.LL.X*sx
	ty := rect.LL.Y - bbox.LL.Y*sy
	return strings.Join([]string{
		formatNumber(sx), "0", "0", formatNumber(sy), formatNumber(tx), formatNumber(ty),
	}, " ")
}

func removeForm(pctx *model.Context) error {
	root, err := pctx.Catalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	delete(root, "AcroForm")
	delete(root, "Metadata")
	delete(root, "NeedsRendering")
	return nil
}

// clearMetadata removes the descriptive fields of the information
// dictionary. The writer adds its own Producer and modification date back.
func clearMetadata(pctx *model.Context) error {
	if pctx.Info == nil {
		return nil
	}
	info, err := pctx.DereferenceDict(*pctx.Info)
	if err != nil {
		return fmt.Errorf("load document info: %w", err)
	}
	for _, k := range clearedInfoKeys {
		delete(info, k)
	}
	return nil
}
