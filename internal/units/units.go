// Package units parses unit suffixes out of column labels and converts magnitudes
// between metric-prefixed units and their base unit.
package units

import (
	"strings"

	"gonum.org/v1/gonum/unit"
)

// Prefix pairs a metric prefix symbol with its multiplier.
type Prefix struct {
	Symbol     string
	Multiplier float64
}

// Prefixes is the ordered prefix table. Order is the tie-break when more than one
// prefix matches; the empty prefix is only used when nothing else matches.
var Prefixes = []Prefix{
	{Symbol: "p", Multiplier: unit.Pico},
	{Symbol: "n", Multiplier: unit.Nano},
	{Symbol: "µ", Multiplier: unit.Micro},
	{Symbol: "m", Multiplier: unit.Milli},
	{Symbol: "c", Multiplier: unit.Centi},
	{Symbol: "d", Multiplier: unit.Deci},
	{Symbol: "", Multiplier: 1},
	{Symbol: "k", Multiplier: unit.Kilo},
	{Symbol: "M", Multiplier: unit.Mega},
	{Symbol: "G", Multiplier: unit.Giga},
	{Symbol: "T", Multiplier: unit.Tera},
}

// microAliases are spellings of micro that are folded onto the table symbol.
var microAliases = []string{"μ", "u"}

// ExtractUnit splits a column label such as "Voltage (mV)" into its name and unit.
// Labels without a parenthesised suffix return the whole label and an empty unit.
func ExtractUnit(label string) (name, unit string) {
	open := strings.Index(label, "(")
	if open < 0 || !strings.Contains(label[open:], ")") {
		return label, ""
	}
	name = strings.TrimSpace(label[:open])
	unit = label[open+1:]
	if close := strings.Index(unit, ")"); close >= 0 {
		unit = unit[:close]
	}
	return name, strings.TrimSpace(unit)
}

// SplitPrefix finds the prefix of a compound unit. The returned prefix is the zero
// value with ok=false when the unit is empty.
func SplitPrefix(u string) (p Prefix, base string, ok bool) {
	u = normalizeMicro(u)

	var fallback *Prefix
	for i := range Prefixes {
		candidate := Prefixes[i]
		if candidate.Symbol == "" {
			fallback = &Prefixes[i]
			continue
		}
		if strings.HasPrefix(u, candidate.Symbol) && len(u) > len(candidate.Symbol) {
			return candidate, u[len(candidate.Symbol):], true
		}
	}
	if fallback != nil && len(u) > 0 {
		return *fallback, u, true
	}
	return Prefix{}, u, false
}

// ToBaseUnits converts value expressed in u to the base unit of u.
func ToBaseUnits(value float64, u string) (float64, string) {
	p, base, ok := SplitPrefix(u)
	if !ok {
		return value, u
	}
	return value * p.Multiplier, base
}

// FromBaseUnits converts a base-unit value into targetUnit. The returned unit is
// targetUnit unchanged.
func FromBaseUnits(baseValue float64, targetUnit string) (float64, string) {
	p, _, ok := SplitPrefix(targetUnit)
	if !ok {
		return baseValue, targetUnit
	}
	return baseValue / p.Multiplier, targetUnit
}

func normalizeMicro(u string) string {
	for _, alias := range microAliases {
		if strings.HasPrefix(u, alias) && len(u) > len(alias) {
			return "µ" + u[len(alias):]
		}
	}
	return u
}
