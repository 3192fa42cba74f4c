package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

var (
	errViewport = errors.New("svg: viewport too small")
	errNoData   = errors.New("svg: series required")
)

// plot is the cartesian frame shared by the axis-based charts.
type plot struct {
	width, height int
	padding       float64
	chartWidth    float64
	chartHeight   float64
	ticks         int
	axisColor     string
	gridColor     string

	minY, maxY float64
	minX, maxX float64
}

func newPlot(width, height int, padding float64, ticks int, axisColor, gridColor string) (*plot, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	p := &plot{
		width:       width,
		height:      height,
		padding:     padding,
		chartWidth:  float64(width) - 2*padding,
		chartHeight: float64(height) - 2*padding,
		ticks:       ticks,
		axisColor:   fallback(axisColor, "#475569"),
		gridColor:   fallback(gridColor, "#cbd5f5"),
		maxY:        1,
		maxX:        1,
	}
	if p.chartWidth <= 0 || p.chartHeight <= 0 {
		return nil, errViewport
	}
	return p, nil
}

// rangeY sets the vertical domain, always including zero.
func (p *plot) rangeY(minVal, maxVal float64) {
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	p.minY, p.maxY = minVal, maxVal
}

// rangeX sets the horizontal domain for numeric x values.
func (p *plot) rangeX(minVal, maxVal float64) {
	if almostEqual(maxVal, minVal) {
		minVal -= 0.5
		maxVal += 0.5
	}
	p.minX, p.maxX = minVal, maxVal
}

func (p *plot) bottom() float64 {
	return p.padding + p.chartHeight
}

func (p *plot) y(v float64) float64 {
	return p.bottom() - (v-p.minY)*p.chartHeight/(p.maxY-p.minY)
}

func (p *plot) x(v float64) float64 {
	return p.padding + (v-p.minX)*p.chartWidth/(p.maxX-p.minX)
}

// slot returns the x position of the i-th of n evenly spaced categories.
func (p *plot) slot(i, n int) float64 {
	if n <= 1 {
		return p.padding + p.chartWidth/2
	}
	return p.padding + float64(i)*p.chartWidth/float64(n-1)
}

func (p *plot) open(b *strings.Builder, kind, title, desc, defaultTitle, defaultDesc string) {
	openSVG(b, p.width, p.height, kind, title, desc, defaultTitle, defaultDesc)
}

func (p *plot) grid(b *strings.Builder) {
	for i := 0; i <= p.ticks; i++ {
		ratio := float64(i) / float64(p.ticks)
		value := p.minY + (p.maxY-p.minY)*ratio
		y := p.y(value)
		fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", p.padding, y, p.padding+p.chartWidth, y, p.gridColor)
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", p.padding-6, y+4, p.axisColor, template.HTMLEscapeString(formatTick(value)))
	}
}

func (p *plot) axes(b *strings.Builder) {
	zeroY := p.y(0)
	fmt.Fprintf(b, "<g stroke=\"%s\" aria-label=\"Axes\">", p.axisColor)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", p.padding, p.padding, p.padding, p.bottom())
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", p.padding, zeroY, p.padding+p.chartWidth, zeroY)
	b.WriteString("</g>")
}

// xLabel writes a category label under the x axis.
func (p *plot) xLabel(b *strings.Builder, x float64, label string) {
	fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, p.bottom()+14, p.axisColor, template.HTMLEscapeString(label))
}

// legend writes coloured swatches along the top edge.
func (p *plot) legend(b *strings.Builder, labels, colors []string) {
	legendY := p.padding - 12
	if legendY < 12 {
		legendY = 12
	}
	legendX := p.padding
	for i, label := range labels {
		fmt.Fprintf(b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, colors[i])
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, legendY, p.axisColor, template.HTMLEscapeString(label))
		legendX += 22 + 6*float64(len([]rune(label)))
	}
}

func openSVG(b *strings.Builder, width, height int, kind, title, desc, defaultTitle, defaultDesc string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(title, defaultTitle)))
	fmt.Fprintf(b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(desc, defaultDesc)))
}

// labelStride returns the step between rendered x labels so at most limit are drawn.
func labelStride(n, limit int) int {
	if limit <= 0 {
		limit = DefaultMaxLabels
	}
	if n <= limit {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(limit)))
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

// bounds returns the extent of series ignoring NaN gaps.
func bounds(series []float64) (float64, float64) {
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, v := range series {
		if math.IsNaN(v) {
			continue
		}
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.IsInf(minVal, 1) {
		return 0, 0
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}
