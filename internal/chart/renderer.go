package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 640
	// share of the plot width given to the three band columns; the rest holds fair value
	bandAreaPercent = 78
	valuePadding    = 0.06
)

var (
	colBackground  = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid        = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colZone        = color.RGBA{R: 190, G: 204, B: 222, A: 255}
	colRecommended = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colOutline     = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colLast        = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colFirstAdd    = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colPullback    = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colPocket      = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colFairValue   = color.RGBA{R: 214, G: 228, B: 206, A: 255}
	colFairMid     = color.RGBA{R: 76, G: 140, B: 60, A: 255}
)

// Image is an encoded chart ready to attach to a message.
type Image struct {
	MimeType string
	Width    int
	Height   int
	Bytes    []byte
}

// layout maps prices onto the plot area.
type layout struct {
	plot       image.Rectangle
	minV, maxV float64
}

func newLayout(values []float64) layout {
	minV, maxV := finiteBounds(values)
	pad := (maxV - minV) * valuePadding
	return layout{
		plot: image.Rect(60, 20, defaultChartWidth-20, defaultChartHeight-30),
		minV: minV - pad,
		maxV: maxV + pad,
	}
}

func (l layout) y(value float64) int {
	return mapValueToY(value, l.minV, l.maxV, l.plot)
}

// column returns the horizontal slot of band i (0 conservative, 1 standard, 2 aggressive).
func (l layout) column(i int) (x0, x1 int) {
	area := (l.plot.Dx() * bandAreaPercent) / 100
	width := area / 3
	gap := width / 8
	x0 = l.plot.Min.X + i*width + gap
	x1 = l.plot.Min.X + (i+1)*width - gap
	return x0, x1
}

func (l layout) fairValueColumn() (x0, x1 int) {
	area := (l.plot.Dx() * bandAreaPercent) / 100
	return l.plot.Min.X + area + 12, l.plot.Max.X - 12
}

// RenderZones draws the buy-zone ladder for resp as a PNG: the three bands
// side by side with the recommended one highlighted, horizontal lines for the
// last price and add levels, and the fair value range in its own column.
func RenderZones(req domain.AnalysisRequest, resp *domain.AnalysisResponse) (*Image, error) {
	if resp == nil || resp.Zones == nil {
		return nil, fmt.Errorf("no zones to render")
	}
	zones := *resp.Zones
	bands := []domain.Band{zones.Conservative, zones.Neutral, zones.Aggressive}

	values := collectValues(resp, bands)
	if len(values) == 0 {
		return nil, fmt.Errorf("no finite prices to render for %s", req.Ticker)
	}
	l := newLayout(values)

	img := image.NewRGBA(image.Rect(0, 0, defaultChartWidth, defaultChartHeight))
	fillRect(img, img.Bounds(), colBackground)
	drawGrid(img, l.plot, 6, 8)

	rec := analysis.RecommendZone(req.Mode, zones)
	for i, band := range bands {
		col := colZone
		if sameBand(band, rec.Band) {
			col = colRecommended
		}
		drawBand(img, l, i, band, col)
	}

	if fv := resp.FairValue; fv != nil {
		drawFairValue(img, l, fv)
	}

	if resp.AddLevels != nil {
		drawPriceLine(img, l, resp.AddLevels.FirstAdd, colFirstAdd)
		drawPriceLine(img, l, resp.AddLevels.PullbackAdd, colPullback)
		if v := resp.AddLevels.ValuePocketAdd; v != nil {
			drawPriceLine(img, l, *v, colPocket)
		}
	}
	if resp.Signal != nil {
		drawPriceLine(img, l, resp.Signal.Last, colLast)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &Image{
		MimeType: "image/png",
		Width:    defaultChartWidth,
		Height:   defaultChartHeight,
		Bytes:    buf.Bytes(),
	}, nil
}

func collectValues(resp *domain.AnalysisResponse, bands []domain.Band) []float64 {
	var out []float64
	add := func(v *float64) {
		if v != nil && isFinite(*v) {
			out = append(out, *v)
		}
	}
	for _, b := range bands {
		if complete(b) {
			add(b.Low())
			add(b.High())
		}
	}
	if resp.Signal != nil && resp.Signal.Last > 0 {
		add(&resp.Signal.Last)
	}
	if al := resp.AddLevels; al != nil {
		if al.FirstAdd > 0 {
			add(&al.FirstAdd)
		}
		if al.PullbackAdd > 0 {
			add(&al.PullbackAdd)
		}
		add(al.ValuePocketAdd)
	}
	if fv := resp.FairValue; fv != nil {
		add(fv.FairLow)
		add(fv.FairMid)
		add(fv.FairHigh)
	}
	return out
}

func drawBand(img *image.RGBA, l layout, i int, band domain.Band, col color.RGBA) {
	if !complete(band) {
		return
	}
	x0, x1 := l.column(i)
	low, high := *band.Low(), *band.High()
	if low > high {
		low, high = high, low
	}
	yTop, yBottom := l.y(high), l.y(low)
	// keep degenerate bands visible
	if yBottom-yTop < 3 {
		yBottom = yTop + 3
	}
	fillRect(img, image.Rect(x0, yTop, x1, yBottom), col)
	drawRect(img, image.Rect(x0, yTop, x1, yBottom), colOutline)
}

func drawFairValue(img *image.RGBA, l layout, fv *domain.FairValue) {
	x0, x1 := l.fairValueColumn()
	if fv.FairLow != nil && fv.FairHigh != nil && isFinite(*fv.FairLow) && isFinite(*fv.FairHigh) {
		low, high := math.Min(*fv.FairLow, *fv.FairHigh), math.Max(*fv.FairLow, *fv.FairHigh)
		fillRect(img, image.Rect(x0, l.y(high), x1, l.y(low)+1), colFairValue)
	}
	if fv.FairMid != nil && isFinite(*fv.FairMid) {
		y := l.y(*fv.FairMid)
		drawLine(img, x0, y, x1, y, colFairMid)
	}
}

func drawPriceLine(img *image.RGBA, l layout, value float64, col color.RGBA) {
	if value <= 0 || !isFinite(value) {
		return
	}
	y := l.y(value)
	drawLine(img, l.plot.Min.X, y, l.plot.Max.X, y, col)
}

func complete(b domain.Band) bool {
	return b.Low() != nil && b.High() != nil && isFinite(*b.Low()) && isFinite(*b.High())
}

func sameBand(a, b domain.Band) bool {
	return a.Low() == b.Low() && a.High() == b.High()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Min.Y, col)
	drawLine(img, rect.Min.X, rect.Max.Y-1, rect.Max.X-1, rect.Max.Y-1, col)
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Min.X, rect.Max.Y-1, col)
	drawLine(img, rect.Max.X-1, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, col)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
