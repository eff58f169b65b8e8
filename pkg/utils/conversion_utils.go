package utils

import (
	"math"
	"strconv"
)

// Int64ToStr converts an int64 to its string representation.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// StrToInt64 converts a string to an int64.
// Returns 0 and an error if the conversion fails.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}

// RoundQuantity normalizes a quantity to at most four decimal places, matching
// the precision of the stock columns.
func RoundQuantity(q float64) float64 {
	return math.Round(q*10000) / 10000
}

// IsWholeNumber reports whether a quantity has no fractional part after
// normalization. Used when decimal quantities are disabled in settings.
func IsWholeNumber(q float64) bool {
	r := RoundQuantity(q)
	return r == math.Trunc(r)
}
