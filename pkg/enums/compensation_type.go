package enums

import "fmt"

// CompensationType selects the rule converting worked time or output into pay.
type CompensationType string

const (
	CompensationHourly     CompensationType = "hourly"
	CompensationProduction CompensationType = "production"
	CompensationFixed      CompensationType = "fixed"
)

var validCompensationTypes = []CompensationType{
	CompensationHourly,
	CompensationProduction,
	CompensationFixed,
}

// String implements fmt.Stringer.
func (c CompensationType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CompensationType.
func (c CompensationType) IsValid() bool {
	for _, candidate := range validCompensationTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCompensationType converts raw input into a CompensationType.
func ParseCompensationType(value string) (CompensationType, error) {
	for _, candidate := range validCompensationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid compensation type %q", value)
}
