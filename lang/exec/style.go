package exec

import (
	"strings"

	"github.com/ardnew/ftd/lang/types"
)

// styleExpansion lists properties that set several style attributes.
//
//nolint:gochecknoglobals
var styleExpansion = map[string][]string{
	"padding-vertical":   {"padding-top", "padding-bottom"},
	"padding-horizontal": {"padding-left", "padding-right"},
	"margin-vertical":    {"margin-top", "margin-bottom"},
	"margin-horizontal":  {"margin-left", "margin-right"},
	"border-color":       {"border-top-color", "border-right-color", "border-bottom-color", "border-left-color"},
	"link":               {"href"},
}

// styleNames returns the style attributes set by property name.
func styleNames(name string) []string {
	if names, ok := styleExpansion[name]; ok {
		return names
	}

	return []string{name}
}

// lengthUnits maps length variants to their unit suffix.
//
//nolint:gochecknoglobals
var lengthUnits = map[string]string{
	"px":      "px",
	"percent": "%",
	"em":      "em",
	"rem":     "rem",
	"vh":      "vh",
	"vw":      "vw",
	"vmin":    "vmin",
	"vmax":    "vmax",
	"dvh":     "dvh",
	"lvh":     "lvh",
	"svh":     "svh",
}

// styleValue renders a resolved value as style text: lengths carry their
// unit, colors use their light value, and constant variants their constant.
func styleValue(v types.Value) string {
	switch v := types.Unwrap(v).(type) {
	case nil:
		return ""

	case types.OrTypeValue:
		payload := types.Text(v.Value.Value)

		if unit, ok := lengthUnits[v.Variant]; ok {
			return payload + unit
		}

		if v.Variant == "calc" {
			return "calc(" + payload + ")"
		}

		if p, ok := v.Value.Value.(types.RecordValue); ok {
			return styleValue(p)
		}

		if payload == "" {
			return v.Variant
		}

		return payload

	case types.RecordValue:
		if light, ok := v.Field("light"); ok {
			return styleValue(light.Value)
		}

		if src, ok := v.Field("src"); ok {
			return styleValue(src.Value)
		}

		return ""

	case types.List:
		parts := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			parts = append(parts, styleValue(item.Value))
		}

		return strings.Join(parts, ", ")
	}

	return types.Text(v)
}
