package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/gladosdev/glados-backend/pkg/db/models"
)

// Timestamp layout used in every change entry.
const entryTimeLayout = "2006-01-02 15:04:05"

// FormatEntry renders one change-history line. The format is stable because
// clients render the raw strings.
//
//	2024-03-01 09:15:00 jdoe (Jane Doe, ID=4): Created.
func FormatEntry(at time.Time, actor *models.User, message string) string {
	username, fullName := "system", "System"
	var id int64
	if actor != nil {
		username = actor.Username
		fullName = actor.FullName
		id = actor.ID
	}
	return fmt.Sprintf("%s %s (%s, ID=%d): %s",
		at.UTC().Format(entryTimeLayout), username, fullName, id, message)
}

// CreatedMessage is the entry message for a freshly created item.
func CreatedMessage() string {
	return "Item created."
}

// DeletedMessage is the entry message for a soft-deleted item.
func DeletedMessage() string {
	return "Marked item as deleted."
}

// StatusMessage describes a status transition.
func StatusMessage(from, to string) string {
	return fmt.Sprintf("Update status: %s -> %s", from, to)
}

// FieldMessage describes a single field edit with its old and new value.
func FieldMessage(field, oldValue, newValue string) string {
	return fmt.Sprintf("Update %s: %s -> %s", field, displayValue(oldValue), displayValue(newValue))
}

// FieldDiff is one attribute change inside a bulk update entry.
type FieldDiff struct {
	Field string
	Old   string
	New   string
}

// FieldsMessage collapses a bulk update's diff into one entry message.
func FieldsMessage(diffs []FieldDiff) string {
	parts := make([]string, 0, len(diffs))
	for _, d := range diffs {
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", d.Field, displayValue(d.Old), displayValue(d.New)))
	}
	return "Updated fields: " + strings.Join(parts, "; ")
}

// ProjectMessage describes moving an item between projects.
func ProjectMessage(fromNumber, toNumber string) string {
	return fmt.Sprintf("Update project: %s -> %s", fromNumber, toNumber)
}

func displayValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return "<empty>"
	}
	return v
}

// NewChange builds an append-only change row for the given item.
func NewChange(itemID int64, at time.Time, actor *models.User, message string) models.BoughtItemChange {
	return models.BoughtItemChange{
		BoughtItemID: itemID,
		Entry:        FormatEntry(at, actor, message),
		Created:      at.UTC(),
	}
}
