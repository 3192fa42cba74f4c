package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Scatter renders points on numeric axes, coloured by group. Groups missing
// from opts.Colors take palette colours in order of first appearance.
func Scatter(width, height int, points []Point, opts ScatterOpts) (template.HTML, error) {
	if len(points) == 0 {
		return "", errNoData
	}
	p, err := newPlot(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor)
	if err != nil {
		return "", err
	}
	radius := opts.Radius
	if radius <= 0 {
		radius = 2.5
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, pt := range points[1:] {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	p.rangeX(minX, maxX)
	p.rangeY(minY, maxY)

	var groups []string
	colors := map[string]string{}
	unpinned := 0
	for _, pt := range points {
		if _, ok := colors[pt.Group]; ok {
			continue
		}
		if pinned, ok := opts.Colors[pt.Group]; ok && pinned != "" {
			colors[pt.Group] = pinned
		} else {
			colors[pt.Group] = paletteColor(unpinned, "")
			unpinned++
		}
		groups = append(groups, pt.Group)
	}
	groups = orderGroups(groups, opts.Order)

	var b strings.Builder
	p.open(&b, "scatter", opts.Title, opts.Description, "Scatter plot", "Correlation")
	p.grid(&b)
	p.axes(&b)

	for _, pt := range points {
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.1f\" fill=\"%s\" fill-opacity=\"0.7\"></circle>", p.x(pt.X), p.y(pt.Y), radius, colors[pt.Group])
	}

	for i := 0; i <= p.ticks; i++ {
		value := p.minX + (p.maxX-p.minX)*float64(i)/float64(p.ticks)
		p.xLabel(&b, p.x(value), formatTick(value))
	}
	if opts.XLabel != "" {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"end\">%s</text>", p.padding+p.chartWidth, float64(p.height)-4, p.axisColor, template.HTMLEscapeString(opts.XLabel))
	}
	if opts.YLabel != "" {
		fmt.Fprintf(&b, "<text x=\"4\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s</text>", p.padding-20, p.axisColor, template.HTMLEscapeString(opts.YLabel))
	}

	if len(groups) > 1 || groups[0] != "" {
		legendColors := make([]string, len(groups))
		for i, g := range groups {
			legendColors[i] = colors[g]
		}
		p.legend(&b, groups, legendColors)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// orderGroups puts the groups named in order first, keeping the rest in
// appearance order.
func orderGroups(groups, order []string) []string {
	if len(order) == 0 {
		return groups
	}
	present := make(map[string]bool, len(groups))
	for _, g := range groups {
		present[g] = true
	}
	out := make([]string, 0, len(groups))
	for _, g := range order {
		if present[g] {
			out = append(out, g)
			delete(present, g)
		}
	}
	for _, g := range groups {
		if present[g] {
			out = append(out, g)
		}
	}
	return out
}
