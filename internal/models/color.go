package models

// ActivityColor is the accent color of an entry in the history list.
type ActivityColor string

const (
	ColorRed    ActivityColor = "red"
	ColorOrange ActivityColor = "orange"
	ColorYellow ActivityColor = "yellow"
	ColorGreen  ActivityColor = "green"
	ColorBlue   ActivityColor = "blue"
	ColorPurple ActivityColor = "purple"
	ColorPink   ActivityColor = "pink"
	ColorIndigo ActivityColor = "indigo"
	ColorTeal   ActivityColor = "teal"
	ColorGray   ActivityColor = "gray"

	DefaultColor = ColorGreen
)

// Palette returns the colors an entry may take, in picker order.
func Palette() []ActivityColor {
	return []ActivityColor{
		ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue,
		ColorPurple, ColorPink, ColorIndigo, ColorTeal, ColorGray,
	}
}

// IsValidColor checks if a color belongs to the palette
func IsValidColor(color ActivityColor) bool {
	for _, c := range Palette() {
		if c == color {
			return true
		}
	}
	return false
}
