package suelo

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// nrgbaToRGBA converts color.NRGBA to premultiplied color.RGBA, which the
// canvas library expects.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer renders an analysis result as vector graphics. World units
// are projected kilometers, so stroke widths and marker radii are in km
// relative to the diagram extent.
type VectorRenderer struct {
	Result     *AnalysisResult
	Samples    []SamplePoint
	Bounds     BoundingBox
	Padding    float64 // padding around the drawing, in km
	Palette    MapPalette
	Resolution canvas.Resolution // resolution for PNG output
}

// NewVectorRenderer creates a vector renderer with default settings.
func NewVectorRenderer(result *AnalysisResult, samples []SamplePoint, bounds BoundingBox) *VectorRenderer {
	return &VectorRenderer{
		Result:     result,
		Samples:    samples,
		Bounds:     bounds,
		Padding:    2.0,
		Palette:    DefaultPalette(),
		Resolution: canvas.DPMM(4.0),
	}
}

// canvasRenderer is the interface both the svg and rasterizer renderers
// implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the diagram as an SVG to the provided writer.
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	proj, minX, minY, width, height := r.worldFrame()

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, proj, minX, minY, width, height)
	return svgRenderer.Close()
}

// RenderToPNG rasterizes the vector drawing and writes it as a PNG.
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	proj, minX, minY, width, height := r.worldFrame()

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, proj, minX, minY, width, height)
	return png.Encode(w, rast)
}

// worldFrame projects the samples and query into km and returns the drawing
// window: the projection, the lower-left corner, and the canvas size.
func (r *VectorRenderer) worldFrame() (Projection, float64, float64, float64, float64) {
	proj := NewProjection(r.Bounds)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	expand := func(gp orb.Point) {
		p := proj.Project(gp)
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	for _, sp := range r.Samples {
		expand(sp.Point())
	}
	if r.Result != nil {
		expand(r.Result.Query)
	}
	if math.IsInf(minX, 1) {
		p0 := proj.Project(orb.Point{r.Bounds.LonMin, r.Bounds.LatMin})
		p1 := proj.Project(orb.Point{r.Bounds.LonMax, r.Bounds.LatMax})
		minX, minY, maxX, maxY = p0[0], p0[1], p1[0], p1[1]
	}

	margin := math.Max((maxX-minX)*0.15, r.Padding)
	minX -= margin
	maxX += margin
	minY -= margin
	maxY += margin

	width := maxX - minX
	height := maxY - minY
	return proj, minX, minY, width, height
}

// renderToCanvas draws the diagram into a canvas renderer (shared by SVG and
// PNG output).
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, proj Projection, minX, minY, frameW, frameH float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(frameW, frameH), bgStyle, canvas.Identity)

	toCanvas := func(gp orb.Point) (float64, float64) {
		p := proj.Project(gp)
		return p[0] - minX, p[1] - minY
	}

	ringPath := func(ring orb.Ring) *canvas.Path {
		cp := &canvas.Path{}
		for i, gp := range ring {
			cx, cy := toCanvas(gp)
			if i == 0 {
				cp.MoveTo(cx, cy)
			} else {
				cp.LineTo(cx, cy)
			}
		}
		cp.Close()
		return cp
	}

	var parentID int64 = -1
	if r.Result != nil && r.Result.Parent != nil {
		parentID = r.Result.Parent.ID
	}

	edgeWidth := frameW / 800.0
	if edgeWidth <= 0 {
		edgeWidth = 0.01
	}

	if r.Result != nil {
		for _, cell := range r.Result.Cells {
			fill := r.Palette.CellFill
			if cell.OwnerID == parentID {
				fill = r.Palette.ParentFill
			}
			cellStyle := canvas.DefaultStyle
			cellStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(fill)}
			cellStyle.Stroke = canvas.Paint{Color: r.Palette.CellEdge}
			cellStyle.StrokeWidth = edgeWidth
			renderer.RenderPath(ringPath(cell.Ring), cellStyle, canvas.Identity)
		}

		if r.Result.QueryCell != nil {
			queryStyle := canvas.DefaultStyle
			queryStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(r.Palette.QueryFill)}
			queryStyle.Stroke = canvas.Paint{Color: r.Palette.Query}
			queryStyle.StrokeWidth = edgeWidth * 1.5
			renderer.RenderPath(ringPath(r.Result.QueryCell.Ring), queryStyle, canvas.Identity)
		}

		if r.Result.Parent != nil {
			linkStyle := canvas.DefaultStyle
			linkStyle.Fill = canvas.Paint{Color: canvas.Transparent}
			linkStyle.Stroke = canvas.Paint{Color: r.Palette.Link}
			linkStyle.StrokeWidth = edgeWidth * 1.5
			linkStyle.Dashes = []float64{edgeWidth * 6, edgeWidth * 6}

			linkPath := &canvas.Path{}
			qx, qy := toCanvas(r.Result.Query)
			px, py := toCanvas(r.Result.Parent.Point())
			linkPath.MoveTo(qx, qy)
			linkPath.LineTo(px, py)
			renderer.RenderPath(linkPath, linkStyle, canvas.Identity)
		}
	}

	markerRadius := frameW / 150.0
	for _, sp := range r.Samples {
		markerColor := r.Palette.Sample
		if sp.ID == parentID {
			markerColor = r.Palette.Parent
		}
		markerStyle := canvas.DefaultStyle
		markerStyle.Fill = canvas.Paint{Color: markerColor}
		markerStyle.Stroke = canvas.Paint{Color: canvas.Black}
		markerStyle.StrokeWidth = edgeWidth

		cx, cy := toCanvas(sp.Point())
		marker := canvas.Circle(markerRadius)
		marker = marker.Translate(cx, cy)
		renderer.RenderPath(marker, markerStyle, canvas.Identity)
	}

	if r.Result != nil {
		queryStyle := canvas.DefaultStyle
		queryStyle.Fill = canvas.Paint{Color: r.Palette.Query}
		queryStyle.Stroke = canvas.Paint{Color: canvas.Black}
		queryStyle.StrokeWidth = edgeWidth

		cx, cy := toCanvas(r.Result.Query)
		marker := canvas.Rectangle(markerRadius*1.6, markerRadius*1.6)
		marker = marker.Translate(cx-markerRadius*0.8, cy-markerRadius*0.8)
		renderer.RenderPath(marker, queryStyle, canvas.Identity)
	}
}
