package view

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/shared"
)

var (
	moneyPrinter = message.NewPrinter(language.English)

	dateLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// ParseTime accepts the timestamp shapes the backend emits.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		raw := strings.TrimSpace(t)
		if raw == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// FormatDate renders dd/MM/yyyy, or an empty string when v is not a date.
func FormatDate(v any) string {
	t, ok := ParseTime(v)
	if !ok {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatDateTime renders dd/MM/yyyy HH:mm, falling back to the raw string.
func FormatDateTime(v any) string {
	t, ok := ParseTime(v)
	if !ok {
		if s, isString := v.(string); isString && s != "" {
			return s
		}
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}

// FormatMoney renders a dollar amount with thousands separators. Values that
// are not numbers are returned as they are.
func FormatMoney(v any) string {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		n = f
	case shared.FlexString:
		return FormatMoney(string(x))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return x
		}
		n = f
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
	return moneyPrinter.Sprintf("$%v", number.Decimal(n, number.MaxFractionDigits(2)))
}

func joinRoles(roles []rbac.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}

func statusTone(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "paid":
		return "success"
	case "cancelled", "canceled", "failed":
		return "danger"
	case "scheduled", "pending":
		return "info"
	default:
		return "muted"
	}
}

func orDash(v any) string {
	s := strings.TrimSpace(fmt.Sprint(v))
	if v == nil || s == "" || s == "<nil>" {
		return "-"
	}
	return s
}
