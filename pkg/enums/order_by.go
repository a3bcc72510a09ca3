package enums

import (
	"fmt"
	"strings"
)

// OrderBy is a sort key accepted by the bought item list endpoint.
type OrderBy string

const (
	OrderByCreated      OrderBy = "created"
	OrderByChanged      OrderBy = "changed"
	OrderByProject      OrderBy = "project"
	OrderByProduct      OrderBy = "product"
	OrderByPartnumber   OrderBy = "partnumber"
	OrderByManufacturer OrderBy = "manufacturer"
	OrderBySupplier     OrderBy = "supplier"
	OrderByGroup        OrderBy = "group"
	OrderByStatus       OrderBy = "status"
	OrderByPriority     OrderBy = "priority"
	OrderByQuantity     OrderBy = "quantity"
	OrderByStorage      OrderBy = "storage"
)

// sortExpressions maps each key to its SQL ordering clause. Keys marked as
// joined sort on columns of the joined project table.
var sortExpressions = map[OrderBy]string{
	OrderByCreated:      "bought_item_table.created DESC",
	OrderByChanged:      "bought_item_table.changed DESC",
	OrderByProject:      "project_table.number DESC",
	OrderByProduct:      "project_table.product_number DESC",
	OrderByPartnumber:   "bought_item_table.partnumber ASC",
	OrderByManufacturer: "bought_item_table.manufacturer ASC",
	OrderBySupplier:     "bought_item_table.supplier ASC",
	OrderByGroup:        "bought_item_table.group_1 ASC",
	OrderByStatus:       "bought_item_table.status ASC",
	OrderByPriority:     "bought_item_table.high_priority DESC",
	OrderByQuantity:     "bought_item_table.quantity DESC",
	OrderByStorage:      "bought_item_table.storage_place ASC",
}

// String implements fmt.Stringer.
func (o OrderBy) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderBy key.
func (o OrderBy) IsValid() bool {
	_, ok := sortExpressions[o]
	return ok
}

// SortExpression returns the SQL clause the key maps to.
func (o OrderBy) SortExpression() string {
	return sortExpressions[o]
}

// RequiresProjectJoin reports whether sorting needs the project table joined.
func (o OrderBy) RequiresProjectJoin() bool {
	return o == OrderByProject || o == OrderByProduct
}

// ParseOrderBy converts raw input into an OrderBy key.
func ParseOrderBy(value string) (OrderBy, error) {
	key := OrderBy(strings.TrimSpace(value))
	if !key.IsValid() {
		return "", fmt.Errorf("invalid order by key %q", value)
	}
	return key, nil
}

// ParseOrderByList splits a comma-separated ordering spec into keys,
// skipping empty segments.
func ParseOrderByList(value string) ([]OrderBy, error) {
	var keys []OrderBy
	for _, segment := range strings.Split(value, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, err := ParseOrderBy(segment)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
