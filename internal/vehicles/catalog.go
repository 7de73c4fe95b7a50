package vehicles

import (
	"strings"

	"github.com/evmotion/dealer-portal/internal/shared"
	"github.com/evmotion/dealer-portal/internal/view"
)

// Filter narrows the catalog. Query matches id, model or manufacturer;
// Manufacturer must match exactly.
type Filter struct {
	Query        string
	Manufacturer string
}

// Apply returns the vehicles matching f, keeping their order.
func (f Filter) Apply(vs []Vehicle) []Vehicle {
	out := make([]Vehicle, 0, len(vs))
	for _, v := range vs {
		if !shared.MatchesQuery(f.Query, v.ID.String(), v.Model, v.Manufacturer) {
			continue
		}
		if f.Manufacturer != "" && v.Manufacturer != f.Manufacturer {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Manufacturers lists the distinct manufacturers in ascending order.
func Manufacturers(vs []Vehicle) []string {
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, v.Manufacturer)
	}
	return shared.DistinctSorted(names)
}

type feature struct {
	label string
	value func(Vehicle) string
}

var features = []feature{
	{"Manufacturer", func(v Vehicle) string { return v.Manufacturer }},
	{"Model", func(v Vehicle) string { return v.Model }},
	{"Price", func(v Vehicle) string {
		if v.Price.IsZero() {
			return ""
		}
		return view.FormatMoney(v.UnitPrice())
	}},
	{"Battery", func(v Vehicle) string { return v.Battery.String() }},
	{"Range", func(v Vehicle) string { return v.Range.String() }},
	{"Acceleration", func(v Vehicle) string { return v.Acceleration.String() }},
	{"Drive Type", func(v Vehicle) string { return v.DriveType.String() }},
	{"Charging Time", func(v Vehicle) string { return v.ChargingTime.String() }},
	{"Color Options", func(v Vehicle) string { return strings.Join(v.ColorOptions, ", ") }},
}

// ComparisonRow is one feature across the compared vehicles.
type ComparisonRow struct {
	Label  string
	Values []string
}

// Comparison is the side-by-side view of selected vehicles.
type Comparison struct {
	Vehicles []Vehicle
	Rows     []ComparisonRow
}

// Compare lays out the features present on at least one of vs.
func Compare(vs []Vehicle) Comparison {
	cmp := Comparison{Vehicles: vs}
	for _, f := range features {
		values := make([]string, len(vs))
		present := false
		for i, v := range vs {
			values[i] = f.value(v)
			if values[i] != "" {
				present = true
			} else {
				values[i] = "-"
			}
		}
		if present {
			cmp.Rows = append(cmp.Rows, ComparisonRow{Label: f.label, Values: values})
		}
	}
	return cmp
}

// Specs lists the populated features of a single vehicle.
func Specs(v Vehicle) []ComparisonRow {
	return Compare([]Vehicle{v}).Rows
}
