package aggregate

import "fintrack/internal/core"

// CategoryPalette colours spending-by-category slices, cycling by position.
var CategoryPalette = []string{
	"#C44569", "#6C5CE7", "#00B894", "#E17055", "#0984E3",
	"#A29BFE", "#FD79A8", "#55A3FF", "#FDCB6E", "#74B9FF",
	"#81ECEC", "#FF6B6B", "#4ECDC4", "#FFD93D", "#95E1D3",
}

// BillPalette colours income-vs-bills slices, cycling by position.
var BillPalette = CategoryPalette[:11]

const (
	// RemainingLabel names the final income-vs-bills slice.
	RemainingLabel = "Remaining"
	// RemainingColor is the fixed colour of the Remaining slice.
	RemainingColor = "#95E1D3"
	// RemainingColorIndex marks a slice whose colour is not taken from a palette.
	RemainingColorIndex = -1
)

// Slice is one labelled segment of a chart.
type Slice struct {
	Name       string     `json:"name"`
	Amount     core.Money `json:"amount"`
	ColorIndex int        `json:"colorIndex"`
	Color      string     `json:"color"`
}

func colorAt(palette []string, i int) (int, string) {
	idx := i % len(palette)
	return idx, palette[idx]
}
