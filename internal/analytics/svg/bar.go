package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a bar chart for seriesA, grouped with seriesB when present.
func Bars(width, height int, seriesA, seriesB []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(seriesA) == 0 {
		return "", errNoData
	}
	if len(seriesA) != len(labels) {
		return "", fmt.Errorf("svg: seriesA length must match labels")
	}
	if len(seriesB) > 0 && len(seriesB) != len(labels) {
		return "", fmt.Errorf("svg: seriesB length must match labels")
	}
	p, err := newPlot(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor)
	if err != nil {
		return "", err
	}
	colorA := fallback(opts.ColorA, "#0ea5e9")
	colorB := fallback(opts.ColorB, "#f97316")

	minVal, maxVal := bounds(seriesA)
	if len(seriesB) > 0 {
		minB, maxB := bounds(seriesB)
		minVal, maxVal = math.Min(minVal, minB), math.Max(maxVal, maxB)
	}
	p.rangeY(minVal, maxVal)
	zeroY := p.y(0)

	groupWidth := p.chartWidth / float64(len(labels))
	bars := 1
	if len(seriesB) > 0 {
		bars = 2
	}
	barWidth := groupWidth * 0.7 / float64(bars)
	inset := groupWidth * 0.15

	var b strings.Builder
	p.open(&b, "bar", opts.Title, opts.Description, "Bar chart", "Bar comparison")
	p.grid(&b)
	p.axes(&b)

	for i, label := range labels {
		baseX := p.padding + float64(i)*groupWidth + inset
		writeBar(&b, p, baseX, barWidth, seriesA[i], zeroY, colorA, label, opts.ShowValues)
		if len(seriesB) > 0 {
			writeBar(&b, p, baseX+barWidth, barWidth, seriesB[i], zeroY, colorB, label, opts.ShowValues)
		}
		p.xLabel(&b, p.padding+float64(i)*groupWidth+groupWidth/2, label)
	}

	if len(seriesB) > 0 {
		p.legend(&b,
			[]string{fallback(opts.SeriesALabel, "Series A"), fallback(opts.SeriesBLabel, "Series B")},
			[]string{colorA, colorB})
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func writeBar(b *strings.Builder, p *plot, x, width, value, zeroY float64, color, label string, showValue bool) {
	top := p.y(value)
	y, h := top, zeroY-top
	if value < 0 {
		y, h = zeroY, top-zeroY
	}
	fmt.Fprintf(b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"></rect>",
		x, y, width, h, color, template.HTMLEscapeString(label), template.HTMLEscapeString(formatTick(value)))
	if showValue {
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>",
			x+width/2, y-4, p.axisColor, template.HTMLEscapeString(formatTick(value)))
	}
}
