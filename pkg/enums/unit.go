package enums

import "fmt"

// Unit is the measurement unit attached to a bought item quantity.
type Unit string

const (
	UnitPieces Unit = "pcs"
	UnitMM     Unit = "mm"
	UnitM      Unit = "m"
	UnitSqM    Unit = "m2"
	UnitLitre  Unit = "l"
	UnitKG     Unit = "kg"
	UnitSet    Unit = "set"
	UnitPair   Unit = "pair"
)

// DefaultUnit is used when the client does not supply one.
const DefaultUnit = UnitPieces

var validUnits = []Unit{
	UnitPieces,
	UnitMM,
	UnitM,
	UnitSqM,
	UnitLitre,
	UnitKG,
	UnitSet,
	UnitPair,
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known Unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnit converts raw input into a Unit.
func ParseUnit(value string) (Unit, error) {
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}
