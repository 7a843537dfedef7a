package enums

import "fmt"

// PayrollGroup is one of the two alternating biweekly payroll runs.
type PayrollGroup string

const (
	PayrollGroupA PayrollGroup = "A"
	PayrollGroupB PayrollGroup = "B"
)

var validPayrollGroups = []PayrollGroup{
	PayrollGroupA,
	PayrollGroupB,
}

// String implements fmt.Stringer.
func (g PayrollGroup) String() string {
	return string(g)
}

// IsValid reports whether the value is a known PayrollGroup.
func (g PayrollGroup) IsValid() bool {
	for _, candidate := range validPayrollGroups {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParsePayrollGroup converts raw input into a PayrollGroup.
func ParsePayrollGroup(value string) (PayrollGroup, error) {
	for _, candidate := range validPayrollGroups {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payroll group %q", value)
}
