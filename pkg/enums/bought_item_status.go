package enums

import "fmt"

// BoughtItemStatus tracks the procurement lifecycle of a bought item.
type BoughtItemStatus string

const (
	BoughtItemStatusOpen      BoughtItemStatus = "open"
	BoughtItemStatusRequested BoughtItemStatus = "requested"
	BoughtItemStatusOrdered   BoughtItemStatus = "ordered"
	BoughtItemStatusLate      BoughtItemStatus = "late"
	BoughtItemStatusPartial   BoughtItemStatus = "partial"
	BoughtItemStatusDelivered BoughtItemStatus = "delivered"
	BoughtItemStatusCanceled  BoughtItemStatus = "canceled"
	BoughtItemStatusLost      BoughtItemStatus = "lost"
)

// DefaultBoughtItemStatus is assigned to every freshly created item.
const DefaultBoughtItemStatus = BoughtItemStatusOpen

var validBoughtItemStatuses = []BoughtItemStatus{
	BoughtItemStatusOpen,
	BoughtItemStatusRequested,
	BoughtItemStatusOrdered,
	BoughtItemStatusLate,
	BoughtItemStatusPartial,
	BoughtItemStatusDelivered,
	BoughtItemStatusCanceled,
	BoughtItemStatusLost,
}

// String implements fmt.Stringer.
func (s BoughtItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BoughtItemStatus.
func (s BoughtItemStatus) IsValid() bool {
	for _, candidate := range validBoughtItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Planned reports whether the status freezes the item for non-elevated users.
// Every status except open counts as planned.
func (s BoughtItemStatus) Planned() bool {
	return s.IsValid() && s != BoughtItemStatusOpen
}

// ParseBoughtItemStatus converts raw input into a BoughtItemStatus.
func ParseBoughtItemStatus(value string) (BoughtItemStatus, error) {
	for _, candidate := range validBoughtItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bought item status %q", value)
}
