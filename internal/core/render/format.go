package render

import "fmt"

// Decimal formats v with a fixed number of decimals.
func Decimal(v float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, v)
}

// Percent formats a 0..1 ratio as a percentage, e.g. Percent(0.873, 1) == "87.3%".
func Percent(ratio float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, ratio*100)
}
