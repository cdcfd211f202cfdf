package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"budget-engine/internal/model"
)

// FormatAmount renders v with two decimals and thousands separators,
// e.g. 12345.6 -> "12,345.60".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

func FormatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parsePercentage(raw string) float64 {
	return clamp(parseNumber(raw), 0, 100)
}

func parseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on", "x":
		return true
	}
	return false
}

// RoleLabels maps canonical role tags to their default display labels.
var RoleLabels = map[model.Role]string{
	model.RoleLecturer:          "Lecturer",
	model.RoleScientificStaff:   "Scientific Staff",
	model.RoleResearchAssistant: "Research Assistant",
}

// RoleLabel returns the display label for r; unknown roles show their tag.
func RoleLabel(r model.Role) string {
	if label, ok := RoleLabels[r]; ok {
		return label
	}
	return string(r)
}

// ParseRole accepts a canonical tag or a display label. Unknown text is kept
// verbatim so that no user input is lost.
func ParseRole(raw string) model.Role {
	raw = strings.TrimSpace(raw)
	for role, label := range RoleLabels {
		if strings.EqualFold(raw, string(role)) || strings.EqualFold(raw, label) {
			return role
		}
	}
	return model.Role(raw)
}
