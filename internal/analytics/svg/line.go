package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Line renders a single-series line chart with an optional shaded area and a
// highlighted final point.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", errNoData
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	p, err := newPlot(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor)
	if err != nil {
		return "", err
	}
	strokeColor := fallback(opts.StrokeColor, "#2563eb")
	fillColor := fallback(opts.FillColor, "rgba(37,99,235,0.12)")
	highlight := fallback(opts.HighlightColor, "#dc2626")

	p.rangeY(bounds(series))
	path := linePath(p, series)

	var b strings.Builder
	p.open(&b, "line", opts.Title, opts.Description, "Line chart", "Trend data")
	p.grid(&b)
	p.axes(&b)

	firstX, lastX := p.slot(0, len(series)), p.slot(len(series)-1, len(series))
	area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path, lastX, p.bottom(), firstX, p.bottom())
	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fillColor)
	fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path, strokeColor)

	if opts.ShowDots {
		for i, value := range series {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", p.slot(i, len(series)), p.y(value), strokeColor)
		}
	}
	if opts.HighlightLast {
		last := len(series) - 1
		fmt.Fprintf(&b, "<circle class=\"highlight\" cx=\"%.2f\" cy=\"%.2f\" r=\"5\" fill=\"%s\" aria-label=\"%s %s\"></circle>",
			lastX, p.y(series[last]), highlight, template.HTMLEscapeString(labels[last]), template.HTMLEscapeString(formatTick(series[last])))
	}

	stride := labelStride(len(labels), opts.MaxLabels)
	for i, label := range labels {
		if i%stride != 0 && i != len(labels)-1 {
			continue
		}
		p.xLabel(&b, p.slot(i, len(labels)), label)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// MultiLine renders several series sharing the same x categories. A NaN value
// marks a category the series has no data for.
func MultiLine(width, height int, series []Series, labels []string, opts MultiLineOpts) (template.HTML, error) {
	if len(series) == 0 || len(labels) == 0 {
		return "", errNoData
	}
	var all []float64
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return "", fmt.Errorf("svg: series %q length must match labels", s.Label)
		}
		all = append(all, s.Values...)
	}
	p, err := newPlot(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor)
	if err != nil {
		return "", err
	}
	p.rangeY(bounds(all))

	var b strings.Builder
	p.open(&b, "multiline", opts.Title, opts.Description, "Line chart", "Series comparison")
	p.grid(&b)
	p.axes(&b)

	names := make([]string, len(series))
	colors := make([]string, len(series))
	for i, s := range series {
		color := paletteColor(i, s.Color)
		names[i], colors[i] = fallback(s.Label, fmt.Sprintf("Series %d", i+1)), color
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" aria-label=\"%s\"></path>", linePath(p, s.Values), color, template.HTMLEscapeString(names[i]))
		if opts.ShowDots {
			for j, value := range s.Values {
				if math.IsNaN(value) {
					continue
				}
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", p.slot(j, len(labels)), p.y(value), color)
			}
		}
	}
	for i, label := range labels {
		p.xLabel(&b, p.slot(i, len(labels)), label)
	}
	p.legend(&b, names, colors)

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// linePath joins the points of series. NaN values break the line.
func linePath(p *plot, series []float64) string {
	var path strings.Builder
	pen := false
	for i, value := range series {
		if math.IsNaN(value) {
			pen = false
			continue
		}
		cmd := "L"
		if !pen {
			cmd = "M"
		}
		if path.Len() > 0 {
			path.WriteByte(' ')
		}
		fmt.Fprintf(&path, "%s%.2f %.2f", cmd, p.slot(i, len(series)), p.y(value))
		pen = true
	}
	return path.String()
}
