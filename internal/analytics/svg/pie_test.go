package svg

import (
	"strings"
	"testing"
)

func TestPieRendersSlicesAndLegend(t *testing.T) {
	html, err := Pie(360, 240, []Slice{
		{Label: "Casual", Value: 25},
		{Label: "Registered", Value: 75},
	}, PieOpts{Title: "User types"})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "<path") != 2 {
		t.Fatalf("expected two wedges")
	}
	if !strings.Contains(output, "Casual 25.0%") || !strings.Contains(output, "Registered 75.0%") {
		t.Fatalf("expected percentage labels, got %s", output)
	}
	// the larger wedge uses the large-arc flag
	if !strings.Contains(output, " 0 1 1 ") {
		t.Fatalf("expected large arc for the 75%% slice")
	}
}

func TestPieSingleNonZeroSliceIsCircle(t *testing.T) {
	html, err := Pie(360, 240, []Slice{
		{Label: "Working day", Value: 10},
		{Label: "Weekend/holiday", Value: 0},
	}, PieOpts{})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	output := string(html)
	if strings.Contains(output, "<path") || !strings.Contains(output, "<circle") {
		t.Fatalf("expected full circle for a single share")
	}
	if !strings.Contains(output, "Weekend/holiday 0.0%") {
		t.Fatalf("expected zero slice in the legend")
	}
}

func TestPieRejectsEmptyTotals(t *testing.T) {
	if _, err := Pie(360, 240, []Slice{{Label: "a", Value: 0}}, PieOpts{}); err == nil {
		t.Fatalf("expected error for zero total")
	}
	if _, err := Pie(360, 240, []Slice{{Label: "a", Value: -1}, {Label: "b", Value: 3}}, PieOpts{}); err == nil {
		t.Fatalf("expected error for negative slice")
	}
	if _, err := Pie(360, 240, nil, PieOpts{}); err == nil {
		t.Fatalf("expected error without slices")
	}
}
