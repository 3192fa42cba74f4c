package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders slices clockwise from twelve o'clock with a legend on the right.
// Slices with a zero value are listed in the legend but not drawn.
func Pie(width, height int, slices []Slice, opts PieOpts) (template.HTML, error) {
	if len(slices) == 0 {
		return "", errNoData
	}
	if width <= 0 {
		width = DefaultWidth / 2
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding / 2
	}
	total := 0.0
	for _, s := range slices {
		if s.Value < 0 {
			return "", fmt.Errorf("svg: slice %q has a negative value", s.Label)
		}
		total += s.Value
	}
	if total <= 0 {
		return "", errors.New("svg: pie total must be positive")
	}
	radius := math.Min(float64(width)*0.6, float64(height))/2 - padding
	if radius <= 0 {
		return "", errViewport
	}
	cx, cy := padding+radius, float64(height)/2
	textColor := fallback(opts.TextColor, "#475569")

	var b strings.Builder
	openSVG(&b, width, height, "pie", opts.Title, opts.Description, "Pie chart", "Share of total")

	angle := -math.Pi / 2
	for i, s := range slices {
		color := paletteColor(i, s.Color)
		share := s.Value / total
		label := fmt.Sprintf("%s %.1f%%", s.Label, share*100)
		switch {
		case share <= 0:
		case almostEqual(share, 1):
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></circle>", cx, cy, radius, color, template.HTMLEscapeString(label))
		default:
			end := angle + share*2*math.Pi
			large := 0
			if share > 0.5 {
				large = 1
			}
			x0, y0 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
			x1, y1 := cx+radius*math.Cos(end), cy+radius*math.Sin(end)
			fmt.Fprintf(&b, "<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\" aria-label=\"%s\"></path>",
				cx, cy, x0, y0, radius, radius, large, x1, y1, color, template.HTMLEscapeString(label))
			angle = end
		}

		legendX := cx + radius + 24
		legendY := padding + 12 + float64(i)*18
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-9, color)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s</text>", legendX+16, legendY, textColor, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
