package enums

import "fmt"

// EventKind separates the two shapes of locally synced platform events:
// form submissions counted for production, and clock entries summed for
// hourly time.
type EventKind string

const (
	EventKindForm EventKind = "form"
	EventKindTime EventKind = "time"
)

var validEventKinds = []EventKind{
	EventKindForm,
	EventKindTime,
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known EventKind.
func (k EventKind) IsValid() bool {
	for _, candidate := range validEventKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseEventKind converts raw input into an EventKind.
func ParseEventKind(value string) (EventKind, error) {
	for _, candidate := range validEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event kind %q", value)
}
