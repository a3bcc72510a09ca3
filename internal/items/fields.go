package items

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gladosdev/glados-backend/internal/audit"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// setField writes one client-supplied attribute from its raw string value.
// Returns the previous value and whether anything actually changed.
func setField(item *models.BoughtItem, field enums.ItemField, value string) (string, bool, error) {
	value = strings.TrimSpace(value)

	switch field {
	case enums.ItemFieldQuantity:
		quantity, err := decimal.NewFromString(value)
		if err != nil || !quantity.IsPositive() {
			return "", false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive number")
		}
		old := item.Quantity.String()
		if item.Quantity.Equal(quantity) {
			return old, false, nil
		}
		item.Quantity = quantity
		return old, true, nil

	case enums.ItemFieldUnit:
		unit, err := enums.ParseUnit(value)
		if err != nil {
			return "", false, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		old := item.Unit.String()
		if item.Unit == unit {
			return old, false, nil
		}
		item.Unit = unit
		return old, true, nil

	case enums.ItemFieldPartnumber:
		return setStringField(&item.Partnumber, value)
	case enums.ItemFieldOrderNumber:
		return setStringField(&item.OrderNumber, value)
	case enums.ItemFieldManufacturer:
		return setStringField(&item.Manufacturer, value)
	case enums.ItemFieldSupplier:
		return setStringField(&item.Supplier, value)
	case enums.ItemFieldGroup1:
		return setStringField(&item.Group1, value)
	case enums.ItemFieldWeblink:
		return setStringField(&item.Weblink, value)
	case enums.ItemFieldNoteGeneral:
		return setStringField(&item.NoteGeneral, value)
	case enums.ItemFieldNoteSupplier:
		return setStringField(&item.NoteSupplier, value)
	case enums.ItemFieldStoragePlace:
		return setStringField(&item.StoragePlace, value)

	case enums.ItemFieldDesiredDeliveryDate:
		return setDateField(&item.DesiredDeliveryDate, value)
	case enums.ItemFieldExpectedDeliveryDate:
		return setDateField(&item.ExpectedDeliveryDate, value)
	}

	return "", false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item field %q", field))
}

func setStringField(target *string, value string) (string, bool, error) {
	old := *target
	if old == value {
		return old, false, nil
	}
	*target = value
	return old, true, nil
}

func setDateField(target **time.Time, value string) (string, bool, error) {
	old := formatDate(*target)
	if value == "" {
		if *target == nil {
			return old, false, nil
		}
		*target = nil
		return old, true, nil
	}

	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid date %q, expected %s", value, dateLayout))
	}
	if *target != nil && (*target).Equal(parsed) {
		return old, false, nil
	}
	*target = &parsed
	return old, true, nil
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(dateLayout)
}

// applyFieldsUpdate overwrites the supplied attributes on the item and
// returns the resulting diff, one entry per changed attribute.
func applyFieldsUpdate(item *models.BoughtItem, project *models.Project, input UpdateItemFieldsInput) []audit.FieldDiff {
	var diffs []audit.FieldDiff

	if project != nil && project.ID != item.ProjectID {
		oldNumber := ""
		if item.Project != nil {
			oldNumber = item.Project.Number
		}
		diffs = append(diffs, audit.FieldDiff{Field: "project", Old: oldNumber, New: project.Number})
		item.ProjectID = project.ID
	}

	if input.Quantity != nil && !item.Quantity.Equal(*input.Quantity) {
		diffs = append(diffs, audit.FieldDiff{Field: "quantity", Old: item.Quantity.String(), New: input.Quantity.String()})
		item.Quantity = *input.Quantity
	}
	if input.Unit != nil && item.Unit != *input.Unit {
		diffs = append(diffs, audit.FieldDiff{Field: "unit", Old: item.Unit.String(), New: input.Unit.String()})
		item.Unit = *input.Unit
	}

	diffs = appendStringDiff(diffs, "partnumber", &item.Partnumber, input.Partnumber)
	diffs = appendStringDiff(diffs, "order_number", &item.OrderNumber, input.OrderNumber)
	diffs = appendStringDiff(diffs, "manufacturer", &item.Manufacturer, input.Manufacturer)
	diffs = appendStringDiff(diffs, "supplier", &item.Supplier, input.Supplier)
	diffs = appendStringDiff(diffs, "group_1", &item.Group1, input.Group1)
	diffs = appendStringDiff(diffs, "weblink", &item.Weblink, input.Weblink)
	diffs = appendStringDiff(diffs, "note_general", &item.NoteGeneral, input.NoteGeneral)
	diffs = appendStringDiff(diffs, "note_supplier", &item.NoteSupplier, input.NoteSupplier)
	diffs = appendStringDiff(diffs, "storage_place", &item.StoragePlace, input.StoragePlace)

	diffs = appendDateDiff(diffs, "desired_delivery_date", &item.DesiredDeliveryDate, input.DesiredDeliveryDate)
	diffs = appendDateDiff(diffs, "expected_delivery_date", &item.ExpectedDeliveryDate, input.ExpectedDeliveryDate)

	if input.HighPriority != nil && item.HighPriority != *input.HighPriority {
		diffs = append(diffs, audit.FieldDiff{
			Field: "high_priority",
			Old:   fmt.Sprintf("%t", item.HighPriority),
			New:   fmt.Sprintf("%t", *input.HighPriority),
		})
		item.HighPriority = *input.HighPriority
	}
	if input.NotifyOnDelivery != nil && item.NotifyOnDelivery != *input.NotifyOnDelivery {
		diffs = append(diffs, audit.FieldDiff{
			Field: "notify_on_delivery",
			Old:   fmt.Sprintf("%t", item.NotifyOnDelivery),
			New:   fmt.Sprintf("%t", *input.NotifyOnDelivery),
		})
		item.NotifyOnDelivery = *input.NotifyOnDelivery
	}

	return diffs
}

func appendStringDiff(diffs []audit.FieldDiff, field string, target *string, value *string) []audit.FieldDiff {
	if value == nil || *target == *value {
		return diffs
	}
	diffs = append(diffs, audit.FieldDiff{Field: field, Old: *target, New: *value})
	*target = *value
	return diffs
}

func appendDateDiff(diffs []audit.FieldDiff, field string, target **time.Time, value *time.Time) []audit.FieldDiff {
	if value == nil {
		return diffs
	}
	if *target != nil && (*target).Equal(*value) {
		return diffs
	}
	diffs = append(diffs, audit.FieldDiff{Field: field, Old: formatDate(*target), New: formatDate(value)})
	*target = value
	return diffs
}
