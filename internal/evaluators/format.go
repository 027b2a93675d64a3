package evaluators

import "strconv"

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
