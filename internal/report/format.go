package report

import (
	"fmt"
	"strconv"
	"strings"

	"autovalue/internal/domain"
)

// FormatUSD formatea un monto entero como "$12,345" (o "-$1,200").
func FormatUSD(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

// VehicleTitle arma "2018 Honda Civic EX".
func VehicleTitle(v domain.VehicleDescriptor) string {
	parts := make([]string, 0, 4)
	if v.Year > 0 {
		parts = append(parts, strconv.Itoa(v.Year))
	}
	for _, p := range []string{v.Make, v.Model, v.Trim} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "Vehicle"
	}
	return strings.Join(parts, " ")
}

func formatImpact(impact int) string {
	if impact > 0 {
		return "+" + FormatUSD(impact)
	}
	return FormatUSD(impact)
}

func formatMultiplier(m float64) string {
	return fmt.Sprintf("x%.2f", m)
}
