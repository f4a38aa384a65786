package cli

import (
	"fmt"
	"strings"
)

// FormatMoney formats an amount with thousands separators and two decimals.
func FormatMoney(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	result := groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a fraction as a signed percentage.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value*100)
}

// FormatQuantity formats a share quantity, dropping a fractional part only
// when it is zero.
func FormatQuantity(qty float64) string {
	if qty == float64(int64(qty)) {
		return groupedInt(int64(qty))
	}
	return fmt.Sprintf("%.2f", qty)
}

func groupedInt(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}
	s := groupThousands(fmt.Sprintf("%d", n))
	if negative {
		return "-" + s
	}
	return s
}
