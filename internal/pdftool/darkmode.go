package pdftool

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DefaultDarkOpacity is the overlay opacity used when none is given.
const DefaultDarkOpacity = 0.85

// darkStateName is the graphics state resource added to every page.
const darkStateName = "FBDark"

// DarkModeOptions controls the overlay.
type DarkModeOptions struct {
	// Opacity of the overlay in (0, 1]. Zero means DefaultDarkOpacity.
	Opacity float64

	// Color is the overlay fill as RGB components in [0, 1]. Nil means a
	// near-black slate.
	Color []float64

	// Invert paints white with the Difference blend mode instead, which
	// inverts page colors rather than dimming them.
	Invert bool
}

var defaultDarkColor = []float64{0.08, 0.09, 0.11}

func (o DarkModeOptions) normalize() (DarkModeOptions, error) {
	if o.Opacity == 0 {
		o.Opacity = DefaultDarkOpacity
	}
	if o.Opacity < 0 || o.Opacity > 1 {
		return o, fmt.Errorf("opacity %.2f out of range (0, 1]", o.Opacity)
	}
	if o.Invert {
		o.Color = []float64{1, 1, 1}
	}
	if o.Color == nil {
		o.Color = defaultDarkColor
	}
	if len(o.Color) != 3 {
		return o, fmt.Errorf("color needs 3 components, got %d", len(o.Color))
	}
	for _, c := range o.Color {
		if c < 0 || c > 1 {
			return o, fmt.Errorf("color component %.2f out of range [0, 1]", c)
		}
	}
	return o, nil
}

func (o DarkModeOptions) blendMode() string {
	if o.Invert {
		return "Difference"
	}
	return "Normal"
}

// DarkMode reads a PDF from r, covers every page with a semi-transparent
// rectangle and writes the result to w.
func DarkMode(ctx context.Context, r io.ReadSeeker, w io.Writer, opts DarkModeOptions, progress Progress) error {
	opts, err := opts.normalize()
	if err != nil {
		return err
	}

	t := newTracker(progress)
	t.report(0)

	pctx, err := readPDF(r)
	if err != nil {
		return err
	}

	state, err := pctx.IndRefForNewObject(types.Dict{
		"Type": types.Name("ExtGState"),
		"BM":   types.Name(opts.blendMode()),
		"ca":   types.Float(opts.Opacity),
		"CA":   types.Float(opts.Opacity),
	})
	if err != nil {
		return fmt.Errorf("add graphics state: %w", err)
	}

	// Every page shares one "save state" prefix so the original content
	// cannot leak a transformation into the overlay.
	prefix, err := newContentStream(pctx, "q\n")
	if err != nil {
		return err
	}

	for i := 1; i <= pctx.PageCount; i++ {
		if err := checkContext(ctx); err != nil {
			return err
		}
		if err := darkenPage(pctx, i, state, prefix, opts); err != nil {
			return fmt.Errorf("page %d: %w", i, err)
		}
		t.step(i, pctx.PageCount)
	}

	if err := writePDF(pctx, w); err != nil {
		return err
	}
	t.report(100)
	return nil
}

func darkenPage(pctx *model.Context, pageNr int, state, prefix *types.IndirectRef, opts DarkModeOptions) error {
	page, _, inh, err := pctx.PageDict(pageNr, true)
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	if page == nil {
		return fmt.Errorf("missing page dictionary")
	}

	// Inherited resources are copied onto the page so the new entry does not
	// modify a dictionary shared with sibling pages.
	if _, ok := page["Resources"]; !ok && inh != nil && inh.Resources != nil {
		page["Resources"] = inh.Resources.Clone()
	}
	res, err := pageResources(pctx, page)
	if err != nil {
		return err
	}
	states, err := subDict(pctx, res, "ExtGState")
	if err != nil {
		return err
	}
	states[darkStateName] = *state

	overlay, err := newContentStream(pctx, overlayContent(pageBox(inh), opts))
	if err != nil {
		return err
	}
	return wrapContents(pctx, page, prefix, overlay)
}

// overlayContent restores the state saved by the prefix stream and paints
// the rectangle.
func overlayContent(box *types.Rectangle, opts DarkModeOptions) string {
	var b strings.Builder
	b.WriteString("Q\nq\n/")
	b.WriteString(darkStateName)
	b.WriteString(" gs\n")
	for _, c := range opts.Color {
		b.WriteString(formatNumber(c))
		b.WriteByte(' ')
	}
	b.WriteString("rg\n")
	fmt.Fprintf(&b, "%s %s %s %s re\nf\nQ\n",
		formatNumber(box.LL.X), formatNumber(box.LL.Y),
		formatNumber(box.Width()), formatNumber(box.Height()))
	return b.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
