package enums

import "fmt"

// WorkStatus tracks fulfillment progress, independent of payment state.
type WorkStatus string

const (
	WorkStatusPending    WorkStatus = "pending"
	WorkStatusSuccessful WorkStatus = "successful"
)

var validWorkStatuses = []WorkStatus{
	WorkStatusPending,
	WorkStatusSuccessful,
}

// String implements fmt.Stringer.
func (w WorkStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkStatus.
func (w WorkStatus) IsValid() bool {
	for _, candidate := range validWorkStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWorkStatus converts raw input into a WorkStatus.
func ParseWorkStatus(value string) (WorkStatus, error) {
	for _, candidate := range validWorkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work status %q", value)
}
