// Package currency formats prices the way the storefront displays them:
// Kenyan shillings with thousands separators, decimals only when the amount
// has a fractional part.
package currency

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatKSh renders an amount as e.g. "KSh 2,500" or "KSh 1,250.50".
func FormatKSh(amount float64) string {
	cents := int64(math.Round(amount * 100))
	whole, frac := cents/100, cents%100
	if frac < 0 {
		frac = -frac
	}

	s := groupThousands(whole)
	if frac != 0 {
		s += fmt.Sprintf(".%02d", frac)
	}
	return "KSh " + s
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
