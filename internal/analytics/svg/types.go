package svg

// Series is one named line of a multi-line chart.
type Series struct {
	Label  string
	Values []float64
	Color  string
}

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string
	Value float64
	Color string
}

// Point is one scatter point. Group selects its colour and legend entry.
type Point struct {
	X     float64
	Y     float64
	Group string
}

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title          string
	Description    string
	StrokeColor    string
	FillColor      string
	AxisColor      string
	GridColor      string
	HighlightColor string
	Padding        float64
	ShowDots       bool
	HighlightLast  bool
	TickCount      int
	MaxLabels      int
}

// MultiLineOpts customises the multi-series line renderer.
type MultiLineOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	ShowDots    bool
}

// BarOpts customises the bar chart renderer. SeriesB is optional.
type BarOpts struct {
	Title        string
	Description  string
	SeriesALabel string
	SeriesBLabel string
	ColorA       string
	ColorB       string
	AxisColor    string
	GridColor    string
	Padding      float64
	TickCount    int
	ShowValues   bool
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	TextColor   string
	Padding     float64
}

// ScatterOpts customises the scatter renderer.
type ScatterOpts struct {
	Title       string
	Description string
	XLabel      string
	YLabel      string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	Radius      float64
	// Colors pins a colour per group. Unlisted groups take palette colours.
	Colors map[string]string
	// Order fixes the legend order of the listed groups.
	Order []string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth     = 720
	DefaultHeight    = 240
	DefaultPadding   = 36.0
	DefaultTicks     = 5
	DefaultMaxLabels = 10
)

// Palette is the colour cycle used when a series or slice has no colour.
var Palette = []string{"#2563eb", "#f97316", "#16a34a", "#9333ea", "#dc2626", "#0891b2"}

func paletteColor(i int, override string) string {
	return fallback(override, Palette[i%len(Palette)])
}
