package enums

import "slices"

// VisibilityStatus toggles catalog entries (categories, banners) on and off.
type VisibilityStatus string

const (
	VisibilityActive   VisibilityStatus = "active"
	VisibilityInactive VisibilityStatus = "inactive"
)

var visibilityStatuses = []VisibilityStatus{VisibilityActive, VisibilityInactive}

func (s VisibilityStatus) String() string { return string(s) }

func (s VisibilityStatus) IsValid() bool { return slices.Contains(visibilityStatuses, s) }

// ParseVisibilityStatus treats blank input as active.
func ParseVisibilityStatus(value string) (VisibilityStatus, error) {
	if value == "" {
		return VisibilityActive, nil
	}
	return lookup("status", visibilityStatuses, value, false)
}
