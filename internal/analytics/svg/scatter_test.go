package svg

import (
	"strings"
	"testing"
)

func TestScatterColoursGroups(t *testing.T) {
	html, err := Scatter(600, 300, []Point{
		{X: 0.2, Y: 985, Group: "Spring"},
		{X: 0.3, Y: 1349, Group: "Spring"},
		{X: 0.7, Y: 5000, Group: "Summer"},
	}, ScatterOpts{Title: "Temperature", XLabel: "temp", YLabel: "cnt"})
	if err != nil {
		t.Fatalf("scatter renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "fill-opacity") != 3 {
		t.Fatalf("expected one circle per point")
	}
	if strings.Count(output, Palette[0]) < 3 || !strings.Contains(output, Palette[1]) {
		t.Fatalf("expected per-group colours")
	}
	if !strings.Contains(output, ">temp<") || !strings.Contains(output, ">cnt<") {
		t.Fatalf("expected axis labels")
	}
}

func TestScatterSinglePoint(t *testing.T) {
	html, err := Scatter(600, 300, []Point{{X: 0.5, Y: 10}}, ScatterOpts{})
	if err != nil {
		t.Fatalf("scatter renderer error: %v", err)
	}
	if strings.Contains(string(html), "NaN") || strings.Contains(string(html), "Inf") {
		t.Fatalf("expected finite coordinates")
	}
}

func TestScatterRequiresPoints(t *testing.T) {
	if _, err := Scatter(600, 300, nil, ScatterOpts{}); err == nil {
		t.Fatalf("expected error without points")
	}
}

func TestScatterPinnedColours(t *testing.T) {
	colors := map[string]string{"Spring": "#2ca02c", "Summer": "#d62728"}
	summerOnly, err := Scatter(600, 300, []Point{
		{X: 0.7, Y: 5000, Group: "Summer"},
	}, ScatterOpts{Colors: colors})
	if err != nil {
		t.Fatalf("scatter renderer error: %v", err)
	}
	mixed, err := Scatter(600, 300, []Point{
		{X: 0.2, Y: 985, Group: "Spring"},
		{X: 0.7, Y: 5000, Group: "Summer"},
		{X: 0.4, Y: 2000, Group: "Other"},
	}, ScatterOpts{Colors: colors, Order: []string{"Summer", "Spring"}})
	if err != nil {
		t.Fatalf("scatter renderer error: %v", err)
	}
	if !strings.Contains(string(summerOnly), "#d62728") || !strings.Contains(string(mixed), "#d62728") {
		t.Fatalf("expected Summer to keep its colour across selections")
	}
	if !strings.Contains(string(mixed), Palette[0]) {
		t.Fatalf("expected unpinned group to take the first palette colour")
	}
	out := string(mixed)
	if strings.Index(out, ">Summer<") > strings.Index(out, ">Spring<") {
		t.Fatalf("expected legend to follow the given order")
	}
}
