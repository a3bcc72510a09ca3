package enums

import "fmt"

// NotificationReason names the status transition that triggered an email.
type NotificationReason string

const (
	NotificationReasonLate      NotificationReason = "late"
	NotificationReasonDelivered NotificationReason = "delivered"
)

var validNotificationReasons = []NotificationReason{
	NotificationReasonLate,
	NotificationReasonDelivered,
}

// String implements fmt.Stringer.
func (n NotificationReason) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationReason.
func (n NotificationReason) IsValid() bool {
	for _, candidate := range validNotificationReasons {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationReason converts raw input into a NotificationReason.
func ParseNotificationReason(value string) (NotificationReason, error) {
	for _, candidate := range validNotificationReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification reason %q", value)
}
