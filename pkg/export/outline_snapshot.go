package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/treeline/pkg/analysis"
	"github.com/vanderheijden86/treeline/pkg/metrics"
	"github.com/vanderheijden86/treeline/pkg/tree"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

// OutlineSnapshotOptions controls outline snapshot export behaviour.
type OutlineSnapshotOptions struct {
	Path        string               // Output path; format inferred from extension when Format empty
	Format      string               // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title       string               // Optional title rendered in summary block
	Preset      string               // Layout preset: "compact" (default) or "roomy"
	Source      string               // Optional provenance line, usually the outline file path
	VisibleOnly bool                 // Render only rows reachable through expanded branches
	Tree        *tree.Tree           // Outline to render
	State       *tree.State          // Optional; nil renders every row unselected
	Stats       *analysis.ShapeStats // Optional; computed from Tree when nil
}

// SaveOutlineSnapshot renders a static picture of the outline (SVG or PNG):
// one row per node, indented by depth and colored by selection state, with a
// summary block and legend. The visual language is kept concise so the output
// reads at a glance in docs and chat threads.
func SaveOutlineSnapshot(opts OutlineSnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()

	if opts.Tree == nil || opts.Tree.Len() == 0 {
		return fmt.Errorf("no outline to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildOutlineLayout(opts)

	switch format {
	case "svg":
		return renderOutlineSVG(opts, layout)
	case "png":
		return renderOutlinePNG(opts, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// --- layout computation ----------------------------------------------------

// rowState is the rendering bucket a node falls into. Disabled wins over the
// selection buckets: a disabled node may still carry selection in the engine,
// but the snapshot shows it greyed out.
type rowState int

const (
	rowUnselected rowState = iota
	rowSelected
	rowHalfSelected
	rowDisabled
)

func selectionState(st *tree.State, id string) rowState {
	if st == nil {
		return rowUnselected
	}
	switch {
	case st.DisabledIDs.Has(id):
		return rowDisabled
	case st.SelectedIDs.Has(id):
		return rowSelected
	case st.HalfSelectedIDs.Has(id):
		return rowHalfSelected
	default:
		return rowUnselected
	}
}

type outlineRow struct {
	ID    string
	Name  string
	Depth int
	State rowState
	Badge string // child count for branches, "" for leaves
	X, Y  float64
	W, H  float64
}

// outlineLink is an elbow connector from a parent row to a child row, drawn
// as a vertical drop plus a short horizontal run into the child.
type outlineLink struct {
	FromRow int
	ToRow   int
}

type outlineLayout struct {
	Rows    []outlineRow
	Links   []outlineLink
	Width   int
	Height  int
	Header  float64
	Summary outlineSummary
}

type outlineSummary struct {
	Title    string
	Source   string
	Nodes    int
	Branches int
	MaxDepth int
	Selected int
	Partial  int
}

func buildOutlineLayout(opts OutlineSnapshotOptions) outlineLayout {
	const (
		rowWCompact  = 300.0
		rowHCompact  = 34.0
		rowWRoomy    = 360.0
		rowHRoomy    = 42.0
		gapCompact   = 10.0
		gapRoomy     = 16.0
		indentStep   = 28.0
		padding      = 36.0
		headerHeight = 120.0
	)

	roomy := strings.EqualFold(opts.Preset, "roomy")
	rowW := rowWCompact
	rowH := rowHCompact
	rowGap := gapCompact
	if roomy {
		rowW = rowWRoomy
		rowH = rowHRoomy
		rowGap = gapRoomy
	}

	stats := opts.Stats
	if stats == nil {
		s := analysis.AnalyzeShape(opts.Tree)
		stats = &s
	}

	ids := opts.Tree.IDs()
	if opts.VisibleOnly && opts.State != nil {
		ids = opts.Tree.AccessibleIDs(opts.State.ExpandedIDs)
	}

	rows := make([]outlineRow, 0, len(ids))
	rowIndex := make(map[string]int, len(ids))
	maxDepth := 0
	for _, id := range ids {
		node, _ := opts.Tree.Get(id)
		depth := opts.Tree.Depth(id)
		if depth > maxDepth {
			maxDepth = depth
		}
		badge := ""
		if opts.Tree.IsBranch(id) {
			badge = fmt.Sprintf("(%d)", len(opts.Tree.ChildIDs(id)))
		}
		rowIndex[id] = len(rows)
		rows = append(rows, outlineRow{
			ID:    id,
			Name:  truncate(node.Name, 40),
			Depth: depth,
			State: selectionState(opts.State, id),
			Badge: badge,
			X:     padding + float64(depth)*indentStep,
			Y:     padding + headerHeight + float64(len(rows))*(rowH+rowGap),
			W:     rowW,
			H:     rowH,
		})
	}

	var links []outlineLink
	for i, r := range rows {
		parent, ok := opts.Tree.Parent(r.ID)
		if !ok || parent == "" {
			continue
		}
		if pi, seen := rowIndex[parent]; seen {
			links = append(links, outlineLink{FromRow: pi, ToRow: i})
		}
	}

	width := int(padding*2 + float64(maxDepth)*indentStep + rowW)
	if width < 640 {
		width = 640
	}
	height := int(padding*2 + headerHeight + float64(len(rows))*(rowH+rowGap))
	if height < 480 {
		height = 480
	}

	selected, partial := 0, 0
	for _, r := range rows {
		switch r.State {
		case rowSelected:
			selected++
		case rowHalfSelected:
			partial++
		}
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Outline Snapshot"
	}
	source := opts.Source
	if strings.TrimSpace(source) == "" {
		source = "n/a"
	}

	return outlineLayout{
		Rows:   rows,
		Links:  links,
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: outlineSummary{
			Title:    title,
			Source:   source,
			Nodes:    len(rows),
			Branches: stats.BranchCount,
			MaxDepth: stats.MaxDepth,
			Selected: selected,
			Partial:  partial,
		},
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorSelected   = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorPartial    = color.RGBA{0xff, 0xf3, 0xe0, 0xff}
	colorUnselected = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorDisabled   = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorStroke     = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorGuide      = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText       = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle     = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop   = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG   = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG   = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func stateColor(s rowState) color.RGBA {
	switch s {
	case rowSelected:
		return colorSelected
	case rowHalfSelected:
		return colorPartial
	case rowDisabled:
		return colorDisabled
	default:
		return colorUnselected
	}
}

func renderOutlinePNG(opts OutlineSnapshotOptions, layout outlineLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	// header
	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	drawOutlineSummary(dc, layout)
	drawOutlineLegend(dc, layout)

	// guides before rows so row boxes sit on top
	dc.SetColor(colorGuide)
	dc.SetLineWidth(1.5)
	for _, l := range layout.Links {
		from := layout.Rows[l.FromRow]
		to := layout.Rows[l.ToRow]
		gx := from.X + 14
		gy := to.Y + to.H/2
		dc.DrawLine(gx, from.Y+from.H, gx, gy)
		dc.Stroke()
		dc.DrawLine(gx, gy, to.X, gy)
		dc.Stroke()
	}

	for _, r := range layout.Rows {
		drawRow(dc, r)
	}

	return dc.SavePNG(opts.Path)
}

func renderOutlineSVG(opts OutlineSnapshotOptions, layout outlineLayout) error {
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderOutlineSVGToWriter(file, layout)
}

func renderOutlineSVGToWriter(w io.Writer, layout outlineLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawOutlineSummarySVG(canvas, layout)
	drawOutlineLegendSVG(canvas, layout)

	guideStyle := fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorGuide))
	for _, l := range layout.Links {
		from := layout.Rows[l.FromRow]
		to := layout.Rows[l.ToRow]
		gx := int(from.X + 14)
		gy := int(to.Y + to.H/2)
		canvas.Line(gx, int(from.Y+from.H), gx, gy, guideStyle)
		canvas.Line(gx, gy, int(to.X), gy, guideStyle)
	}

	for _, r := range layout.Rows {
		x := int(r.X)
		y := int(r.Y)
		canvas.Roundrect(x, y, int(r.W), int(r.H), 6, 6,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(stateColor(r.State)), css(colorStroke)))
		nameColor := colorText
		if r.State == rowDisabled {
			nameColor = colorSubtle
		}
		canvas.Text(x+10, y+22, r.Name, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(nameColor)))
		if r.Badge != "" {
			canvas.Text(x+int(r.W)-10, y+22, r.Badge,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:end", css(colorSubtle)))
		}
	}

	canvas.End()
	return nil
}

func drawRow(dc *gg.Context, r outlineRow) {
	dc.SetColor(stateColor(r.State))
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 6)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 6)
	dc.Stroke()

	if r.State == rowDisabled {
		dc.SetColor(colorSubtle)
	} else {
		dc.SetColor(colorText)
	}
	dc.DrawStringAnchored(r.Name, r.X+10, r.Y+r.H/2, 0, 0.5)
	if r.Badge != "" {
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(r.Badge, r.X+r.W-10, r.Y+r.H/2, 1, 0.5)
	}
}

func drawOutlineSummary(dc *gg.Context, layout outlineLayout) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Summary.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("source: %s", layout.Summary.Source), 32, 64, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("nodes: %d  branches: %d  max depth: %d",
		layout.Summary.Nodes, layout.Summary.Branches, layout.Summary.MaxDepth), 32, 84, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("selected: %d  partially selected: %d",
		layout.Summary.Selected, layout.Summary.Partial), 32, 104, 0, 0.5)
}

func drawOutlineLegend(dc *gg.Context, layout outlineLayout) {
	boxW := 180.0
	boxH := 96.0
	x := float64(layout.Width) - boxW - 20
	y := 24.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+18, 0, 0.5)
	drawLegendRow(dc, x+12, y+36, colorSelected, "Selected")
	drawLegendRow(dc, x+12, y+52, colorPartial, "Partially selected")
	drawLegendRow(dc, x+12, y+68, colorUnselected, "Unselected")
	drawLegendRow(dc, x+12, y+84, colorDisabled, "Disabled")
}

func drawLegendRow(dc *gg.Context, x, y float64, c color.RGBA, label string) {
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Stroke()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(label, x+20, y, 0, 0.5)
}

func drawOutlineSummarySVG(canvas *svg.SVG, layout outlineLayout) {
	canvas.Text(32, 44, layout.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, fmt.Sprintf("source: %s", layout.Summary.Source), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 84, fmt.Sprintf("nodes: %d  branches: %d  max depth: %d",
		layout.Summary.Nodes, layout.Summary.Branches, layout.Summary.MaxDepth),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 104, fmt.Sprintf("selected: %d  partially selected: %d",
		layout.Summary.Selected, layout.Summary.Partial),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

func drawOutlineLegendSVG(canvas *svg.SVG, layout outlineLayout) {
	boxW := 180
	boxH := 96
	x := layout.Width - boxW - 20
	y := 24
	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+18, "Legend", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	drawLegendRowSVG(canvas, x+12, y+36, colorSelected, "Selected")
	drawLegendRowSVG(canvas, x+12, y+52, colorPartial, "Partially selected")
	drawLegendRowSVG(canvas, x+12, y+68, colorUnselected, "Unselected")
	drawLegendRowSVG(canvas, x+12, y+84, colorDisabled, "Disabled")
}

func drawLegendRowSVG(canvas *svg.SVG, x, y int, c color.RGBA, label string) {
	canvas.Roundrect(x, y-8, 14, 14, 3, 3, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(c), css(colorStroke)))
	canvas.Text(x+20, y, label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
