// Package display formats emission and distance values the way the history
// list and the summary card show them.
package display

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// EmissionUnitLabel follows every emission value on screen.
const EmissionUnitLabel = "kg CO₂e"

// LargeEmissionKg is the value from which a row drops to one decimal.
const LargeEmissionKg = 1000.0

var printer = message.NewPrinter(language.English)

// Emission formats a per-entry value: one decimal with thousands separators
// from LargeEmissionKg up, two decimals below.
func Emission(kg float64) string {
	if kg >= LargeEmissionKg {
		return printer.Sprintf("%.1f", kg)
	}
	return printer.Sprintf("%.2f", kg)
}

// Total formats the running total with two decimals.
func Total(kg float64) string {
	return printer.Sprintf("%.2f", kg)
}

// TotalLabel is Total followed by the unit label.
func TotalLabel(kg float64) string {
	return Total(kg) + " " + EmissionUnitLabel
}

// Distance formats a trip distance, e.g. "12.5 km".
func Distance(km float64) string {
	return printer.Sprintf("%.1f km", km)
}
