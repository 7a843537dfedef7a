package enums

import "fmt"

// SubmissionStatus tracks a payroll submission through review.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusPaid     SubmissionStatus = "paid"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

var validSubmissionStatuses = []SubmissionStatus{
	SubmissionStatusPending,
	SubmissionStatusApproved,
	SubmissionStatusPaid,
	SubmissionStatusRejected,
}

// String implements fmt.Stringer.
func (s SubmissionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubmissionStatus.
func (s SubmissionStatus) IsValid() bool {
	for _, candidate := range validSubmissionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubmissionStatus converts raw input into a SubmissionStatus.
func ParseSubmissionStatus(value string) (SubmissionStatus, error) {
	for _, candidate := range validSubmissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid submission status %q", value)
}
