package suelo

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MapPalette defines the colors used for the diagram raster.
type MapPalette struct {
	Background color.RGBA
	CellEdge   color.RGBA
	CellFill   color.NRGBA
	ParentFill color.NRGBA
	QueryFill  color.NRGBA
	Sample     color.RGBA
	Parent     color.RGBA
	Query      color.RGBA
	Link       color.RGBA
	Label      color.RGBA
}

// DefaultPalette returns the standard dashboard colors.
func DefaultPalette() MapPalette {
	return MapPalette{
		Background: color.RGBA{255, 255, 255, 255},
		CellEdge:   color.RGBA{70, 70, 70, 255},
		CellFill:   color.NRGBA{100, 149, 237, 40},  // cornflower blue
		ParentFill: color.NRGBA{144, 238, 144, 110}, // light green
		QueryFill:  color.NRGBA{255, 215, 0, 110},   // gold
		Sample:     color.RGBA{0, 0, 139, 255},
		Parent:     color.RGBA{0, 100, 0, 255},
		Query:      color.RGBA{200, 0, 0, 255},
		Link:       color.RGBA{200, 0, 0, 255},
		Label:      color.RGBA{30, 30, 30, 255},
	}
}

// DiagramRenderer rasterizes an analysis result: the tessellation, every
// sample marker, the parent cell highlight, the query cell, and the line
// from the query to its parent.
type DiagramRenderer struct {
	Result  *AnalysisResult
	Samples []SamplePoint
	Bounds  BoundingBox
	Width   int
	Height  int
	Padding int
	Palette MapPalette
	Labels  bool
}

// NewDiagramRenderer creates a renderer with default settings. The drawing
// extent is fit to the samples and query, not the full diagram bounds, so a
// national bounding box does not shrink a city-scale diagram to a dot.
func NewDiagramRenderer(result *AnalysisResult, samples []SamplePoint, bounds BoundingBox) *DiagramRenderer {
	return &DiagramRenderer{
		Result:  result,
		Samples: samples,
		Bounds:  bounds,
		Width:   1024,
		Height:  768,
		Padding: 40,
		Palette: DefaultPalette(),
		Labels:  true,
	}
}

// drawExtent returns the lon/lat window to draw, fit to the samples plus the
// query with a 15% margin, clamped to the diagram bounds.
func (r *DiagramRenderer) drawExtent() (lonMin, latMin, lonMax, latMax float64) {
	lonMin, latMin = math.Inf(1), math.Inf(1)
	lonMax, latMax = math.Inf(-1), math.Inf(-1)

	expand := func(p orb.Point) {
		lonMin = math.Min(lonMin, p[0])
		lonMax = math.Max(lonMax, p[0])
		latMin = math.Min(latMin, p[1])
		latMax = math.Max(latMax, p[1])
	}
	for _, sp := range r.Samples {
		expand(sp.Point())
	}
	if r.Result != nil {
		expand(r.Result.Query)
	}

	if math.IsInf(lonMin, 1) {
		return r.Bounds.LonMin, r.Bounds.LatMin, r.Bounds.LonMax, r.Bounds.LatMax
	}

	marginLon := (lonMax - lonMin) * 0.15
	marginLat := (latMax - latMin) * 0.15
	if marginLon == 0 {
		marginLon = 0.05
	}
	if marginLat == 0 {
		marginLat = 0.05
	}
	lonMin = math.Max(lonMin-marginLon, r.Bounds.LonMin)
	lonMax = math.Min(lonMax+marginLon, r.Bounds.LonMax)
	latMin = math.Max(latMin-marginLat, r.Bounds.LatMin)
	latMax = math.Min(latMax+marginLat, r.Bounds.LatMax)
	return lonMin, latMin, lonMax, latMax
}

// toPixel maps a geographic point into image coordinates. Latitude grows
// north, pixel y grows down, so the vertical axis flips.
func (r *DiagramRenderer) toPixel(p orb.Point, lonMin, latMin, lonMax, latMax float64) (int, int) {
	spanLon := lonMax - lonMin
	spanLat := latMax - latMin
	if spanLon <= 0 || spanLat <= 0 {
		return r.Width / 2, r.Height / 2
	}
	innerW := float64(r.Width - 2*r.Padding)
	innerH := float64(r.Height - 2*r.Padding)
	x := float64(r.Padding) + (p[0]-lonMin)/spanLon*innerW
	y := float64(r.Padding) + (latMax-p[1])/spanLat*innerH
	return int(math.Round(x)), int(math.Round(y))
}

// Render draws the full diagram into a new image.
func (r *DiagramRenderer) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	fillBackground(img, r.Palette.Background)

	lonMin, latMin, lonMax, latMax := r.drawExtent()
	px := func(p orb.Point) (int, int) {
		return r.toPixel(p, lonMin, latMin, lonMax, latMax)
	}

	if r.Result != nil {
		var parentID int64 = -1
		if r.Result.Parent != nil {
			parentID = r.Result.Parent.ID
		}

		// Fills go first so edges and markers stay visible on top.
		for _, cell := range r.Result.Cells {
			fill := r.Palette.CellFill
			if cell.OwnerID == parentID {
				fill = r.Palette.ParentFill
			}
			r.fillRing(img, cell.Ring, fill, px)
		}
		if r.Result.QueryCell != nil {
			r.fillRing(img, r.Result.QueryCell.Ring, r.Palette.QueryFill, px)
		}

		for _, cell := range r.Result.Cells {
			r.strokeRing(img, cell.Ring, r.Palette.CellEdge, px)
		}
		if r.Result.QueryCell != nil {
			r.strokeRing(img, r.Result.QueryCell.Ring, r.Palette.Query, px)
		}

		if r.Result.Parent != nil {
			qx, qy := px(r.Result.Query)
			sx, sy := px(r.Result.Parent.Point())
			drawLine(img, qx, qy, sx, sy, r.Palette.Link)
		}
	}

	for _, sp := range r.Samples {
		x, y := px(sp.Point())
		markerColor := r.Palette.Sample
		if r.Result != nil && r.Result.Parent != nil && sp.ID == r.Result.Parent.ID {
			markerColor = r.Palette.Parent
		}
		drawDot(img, x, y, 5, markerColor)
		if r.Labels {
			drawText(img, x+8, y+4, sp.Name, r.Palette.Label)
		}
	}

	if r.Result != nil {
		qx, qy := px(r.Result.Query)
		drawCross(img, qx, qy, 7, r.Palette.Query)
		if r.Labels {
			label := fmt.Sprintf("confianza %.0f%%", r.Result.Confidence)
			drawText(img, qx+10, qy-8, label, r.Palette.Query)
		}
	}

	return img
}

// SavePNG renders the diagram and writes it as a PNG file.
func (r *DiagramRenderer) SavePNG(path string) error {
	img := r.Render()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return png.Encode(f, img)
}

// strokeRing draws the ring outline.
func (r *DiagramRenderer) strokeRing(img *image.RGBA, ring orb.Ring, c color.RGBA, px func(orb.Point) (int, int)) {
	if len(ring) < 2 {
		return
	}
	for i := 0; i < len(ring)-1; i++ {
		x0, y0 := px(ring[i])
		x1, y1 := px(ring[i+1])
		drawLine(img, x0, y0, x1, y1, c)
	}
}

// fillRing fills the ring interior by even-odd scanline in pixel space.
func (r *DiagramRenderer) fillRing(img *image.RGBA, ring orb.Ring, c color.NRGBA, px func(orb.Point) (int, int)) {
	if len(ring) < 4 {
		return
	}

	type pt struct{ x, y float64 }
	poly := make([]pt, 0, len(ring))
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range ring {
		x, y := px(p)
		poly = append(poly, pt{float64(x), float64(y)})
		minY = math.Min(minY, float64(y))
		maxY = math.Max(maxY, float64(y))
	}

	yStart := int(math.Max(minY, 0))
	yEnd := int(math.Min(maxY, float64(r.Height-1)))
	for y := yStart; y <= yEnd; y++ {
		fy := float64(y) + 0.5
		var xs []float64
		for i := 0; i < len(poly)-1; i++ {
			a, b := poly[i], poly[i+1]
			if (a.y <= fy && b.y > fy) || (b.y <= fy && a.y > fy) {
				t := (fy - a.y) / (b.y - a.y)
				xs = append(xs, a.x+t*(b.x-a.x))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sortFloats(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Max(math.Ceil(xs[i]), 0))
			x1 := int(math.Min(math.Floor(xs[i+1]), float64(r.Width-1)))
			for x := x0; x <= x1; x++ {
				blendPixel(img, x, y, c)
			}
		}
	}
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

func fillBackground(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// blendPixel alpha-blends c over the existing pixel.
func blendPixel(img *image.RGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= img.Bounds().Max.X || y >= img.Bounds().Max.Y {
		return
	}
	bg := img.RGBAAt(x, y)
	alpha := float64(c.A) / 255.0
	blended := color.RGBA{
		R: uint8(float64(c.R)*alpha + float64(bg.R)*(1-alpha)),
		G: uint8(float64(c.G)*alpha + float64(bg.G)*(1-alpha)),
		B: uint8(float64(c.B)*alpha + float64(bg.B)*(1-alpha)),
		A: 255,
	}
	img.Set(x, y, blended)
}

// drawLine draws a line with Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		if x0 >= 0 && y0 >= 0 && x0 < img.Bounds().Max.X && y0 < img.Bounds().Max.Y {
			img.Set(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawDot(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				x, y := cx+dx, cy+dy
				if x >= 0 && x < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
					img.Set(x, y, c)
				}
			}
		}
	}
}

func drawCross(img *image.RGBA, cx, cy, size int, c color.RGBA) {
	drawLine(img, cx-size, cy, cx+size, cy, c)
	drawLine(img, cx, cy-size, cx, cy+size, c)
	drawLine(img, cx-size, cy-1, cx+size, cy-1, c)
	drawLine(img, cx-1, cy-size, cx-1, cy+size, c)
}

func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
