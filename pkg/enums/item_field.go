package enums

import "fmt"

// ItemField enumerates the client-updatable bought item attributes exposed by
// the per-field endpoints. Dispatch happens through a switch on this type,
// never through reflection.
type ItemField string

const (
	ItemFieldQuantity             ItemField = "quantity"
	ItemFieldUnit                 ItemField = "unit"
	ItemFieldPartnumber           ItemField = "partnumber"
	ItemFieldOrderNumber          ItemField = "order_number"
	ItemFieldManufacturer         ItemField = "manufacturer"
	ItemFieldSupplier             ItemField = "supplier"
	ItemFieldGroup1               ItemField = "group_1"
	ItemFieldWeblink              ItemField = "weblink"
	ItemFieldNoteGeneral          ItemField = "note_general"
	ItemFieldNoteSupplier         ItemField = "note_supplier"
	ItemFieldDesiredDeliveryDate  ItemField = "desired_delivery_date"
	ItemFieldExpectedDeliveryDate ItemField = "expected_delivery_date"
	ItemFieldStoragePlace         ItemField = "storage_place"
)

var validItemFields = []ItemField{
	ItemFieldQuantity,
	ItemFieldUnit,
	ItemFieldPartnumber,
	ItemFieldOrderNumber,
	ItemFieldManufacturer,
	ItemFieldSupplier,
	ItemFieldGroup1,
	ItemFieldWeblink,
	ItemFieldNoteGeneral,
	ItemFieldNoteSupplier,
	ItemFieldDesiredDeliveryDate,
	ItemFieldExpectedDeliveryDate,
	ItemFieldStoragePlace,
}

var requiredItemFields = map[ItemField]struct{}{
	ItemFieldQuantity:     {},
	ItemFieldUnit:         {},
	ItemFieldPartnumber:   {},
	ItemFieldOrderNumber:  {},
	ItemFieldManufacturer: {},
}

// String implements fmt.Stringer.
func (f ItemField) String() string {
	return string(f)
}

// IsValid reports whether the value is a known ItemField.
func (f ItemField) IsValid() bool {
	for _, candidate := range validItemFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// Required reports whether the field must never be cleared.
func (f ItemField) Required() bool {
	_, ok := requiredItemFields[f]
	return ok
}

// ParseItemField converts raw input into an ItemField.
func ParseItemField(value string) (ItemField, error) {
	for _, candidate := range validItemFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item field %q", value)
}
