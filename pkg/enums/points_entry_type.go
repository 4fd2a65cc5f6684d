package enums

import "fmt"

// PointsEntryType marks the direction of a points ledger entry.
type PointsEntryType string

const (
	PointsEntryTypeEarned   PointsEntryType = "earned"
	PointsEntryTypeDeducted PointsEntryType = "deducted"
)

var validPointsEntryTypes = []PointsEntryType{
	PointsEntryTypeEarned,
	PointsEntryTypeDeducted,
}

// String implements fmt.Stringer.
func (p PointsEntryType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PointsEntryType.
func (p PointsEntryType) IsValid() bool {
	for _, candidate := range validPointsEntryTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePointsEntryType converts raw input into a PointsEntryType.
func ParsePointsEntryType(value string) (PointsEntryType, error) {
	for _, candidate := range validPointsEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points entry type %q", value)
}
