package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gladosdev/glados-backend/api/middleware"
	"github.com/gladosdev/glados-backend/api/responses"
	"github.com/gladosdev/glados-backend/api/validators"
	"github.com/gladosdev/glados-backend/internal/items"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/logger"
)

const itemDateLayout = "2006-01-02"

type createItemRequest struct {
	ProjectID     *int64  `json:"project_id,omitempty"`
	ProjectNumber *string `json:"project_number,omitempty"`

	Quantity     decimal.Decimal `json:"quantity" validate:"required"`
	Unit         string          `json:"unit,omitempty"`
	Partnumber   string          `json:"partnumber" validate:"required"`
	OrderNumber  string          `json:"order_number" validate:"required"`
	Manufacturer string          `json:"manufacturer" validate:"required"`
	Supplier     string          `json:"supplier,omitempty"`
	Group1       string          `json:"group_1,omitempty"`
	Weblink      string          `json:"weblink,omitempty"`
	NoteGeneral  string          `json:"note_general,omitempty"`
	NoteSupplier string          `json:"note_supplier,omitempty"`
	StoragePlace string          `json:"storage_place,omitempty"`

	DesiredDeliveryDate  *string `json:"desired_delivery_date,omitempty"`
	ExpectedDeliveryDate *string `json:"expected_delivery_date,omitempty"`
	HighPriority         bool    `json:"high_priority"`
	NotifyOnDelivery     bool    `json:"notify_on_delivery"`
}

type updateItemFieldsRequest struct {
	ProjectID     *int64  `json:"project_id,omitempty"`
	ProjectNumber *string `json:"project_number,omitempty"`

	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	Unit         *string          `json:"unit,omitempty"`
	Partnumber   *string          `json:"partnumber,omitempty"`
	OrderNumber  *string          `json:"order_number,omitempty"`
	Manufacturer *string          `json:"manufacturer,omitempty"`
	Supplier     *string          `json:"supplier,omitempty"`
	Group1       *string          `json:"group_1,omitempty"`
	Weblink      *string          `json:"weblink,omitempty"`
	NoteGeneral  *string          `json:"note_general,omitempty"`
	NoteSupplier *string          `json:"note_supplier,omitempty"`
	StoragePlace *string          `json:"storage_place,omitempty"`

	DesiredDeliveryDate  *string `json:"desired_delivery_date,omitempty"`
	ExpectedDeliveryDate *string `json:"expected_delivery_date,omitempty"`
	HighPriority         *bool   `json:"high_priority,omitempty"`
	NotifyOnDelivery     *bool   `json:"notify_on_delivery,omitempty"`
}

type updateItemStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updateItemProjectRequest struct {
	ProjectNumber string `json:"project_number" validate:"required"`
}

type updateItemFieldRequest struct {
	Value string `json:"value"`
}

// ItemCreate persists a new open item in the referenced project.
func ItemCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := items.CreateItemInput{
			ProjectID:        req.ProjectID,
			ProjectNumber:    req.ProjectNumber,
			Quantity:         req.Quantity,
			Partnumber:       req.Partnumber,
			OrderNumber:      req.OrderNumber,
			Manufacturer:     req.Manufacturer,
			Supplier:         req.Supplier,
			Group1:           req.Group1,
			Weblink:          req.Weblink,
			NoteGeneral:      req.NoteGeneral,
			NoteSupplier:     req.NoteSupplier,
			StoragePlace:     req.StoragePlace,
			HighPriority:     req.HighPriority,
			NotifyOnDelivery: req.NotifyOnDelivery,
		}
		if req.Unit != "" {
			unit, err := enums.ParseUnit(req.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = unit
		}

		var err error
		if input.DesiredDeliveryDate, err = parseDatePtr(req.DesiredDeliveryDate, "desired_delivery_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.ExpectedDeliveryDate, err = parseDatePtr(req.ExpectedDeliveryDate, "expected_delivery_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateItem(r.Context(), middleware.UserFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ItemUpdateFields bulk-updates the client-supplied attribute set.
func ItemUpdateFields(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemFieldsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := items.UpdateItemFieldsInput{
			ProjectID:        req.ProjectID,
			ProjectNumber:    req.ProjectNumber,
			Quantity:         req.Quantity,
			Partnumber:       req.Partnumber,
			OrderNumber:      req.OrderNumber,
			Manufacturer:     req.Manufacturer,
			Supplier:         req.Supplier,
			Group1:           req.Group1,
			Weblink:          req.Weblink,
			NoteGeneral:      req.NoteGeneral,
			NoteSupplier:     req.NoteSupplier,
			StoragePlace:     req.StoragePlace,
			HighPriority:     req.HighPriority,
			NotifyOnDelivery: req.NotifyOnDelivery,
		}
		if req.Unit != nil {
			unit, err := enums.ParseUnit(*req.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = &unit
		}
		if input.DesiredDeliveryDate, err = parseDatePtr(req.DesiredDeliveryDate, "desired_delivery_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.ExpectedDeliveryDate, err = parseDatePtr(req.ExpectedDeliveryDate, "expected_delivery_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateFields(r.Context(), middleware.UserFromContext(r.Context()), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ItemUpdateStatus moves the item through its status machine.
func ItemUpdateStatus(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), middleware.UserFromContext(r.Context()), itemID, enums.BoughtItemStatus(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ItemUpdateProject moves the item into another project by number.
func ItemUpdateProject(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemProjectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProject(r.Context(), middleware.UserFromContext(r.Context()), itemID, req.ProjectNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ItemUpdateField sets a single named attribute. Required fields reject empty
// values; optional fields treat empty as a clear.
func ItemUpdateField(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		field, err := enums.ParseItemField(chi.URLParam(r, "field"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item field"))
			return
		}

		var req updateItemFieldRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		acting := middleware.UserFromContext(r.Context())
		var updated *items.BoughtItemDTO
		if field.Required() {
			updated, err = svc.UpdateRequiredField(r.Context(), acting, itemID, field, req.Value)
		} else {
			updated, err = svc.UpdateField(r.Context(), acting, itemID, field, req.Value)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ItemDelete soft-deletes the item.
func ItemDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), middleware.UserFromContext(r.Context()), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ItemGet fetches one item with its associations and change history.
func ItemGet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ItemList returns the filtered, ordered page of live items.
func ItemList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListItemsQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListItems(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseListItemsQuery(r *http.Request) (items.ListItemsInput, error) {
	var input items.ListItemsInput

	params, err := pageParams(r)
	if err != nil {
		return input, err
	}
	input.Limit = params.Limit
	input.Skip = params.Skip

	if input.ID, err = queryInt64Ptr(r, "id"); err != nil {
		return input, err
	}
	if raw := queryValue(r, "status"); raw != nil {
		status, parseErr := enums.ParseBoughtItemStatus(*raw)
		if parseErr != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter")
		}
		input.Status = &status
	}
	if raw := queryValue(r, "quantity"); raw != nil {
		quantity, parseErr := decimal.NewFromString(*raw)
		if parseErr != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid quantity filter")
		}
		input.Quantity = &quantity
	}
	if raw := queryValue(r, "unit"); raw != nil {
		unit, parseErr := enums.ParseUnit(*raw)
		if parseErr != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid unit filter")
		}
		input.Unit = &unit
	}
	if input.CreatorID, err = queryInt64Ptr(r, "creator_id"); err != nil {
		return input, err
	}
	if input.RequesterID, err = queryInt64Ptr(r, "requester_id"); err != nil {
		return input, err
	}
	if input.OrdererID, err = queryInt64Ptr(r, "orderer_id"); err != nil {
		return input, err
	}
	if input.ReceiverID, err = queryInt64Ptr(r, "receiver_id"); err != nil {
		return input, err
	}
	if input.HighPriority, err = queryBoolPtr(r, "high_priority"); err != nil {
		return input, err
	}

	input.ProjectNumber = queryValue(r, "project_number")
	input.ProjectCustomer = queryValue(r, "project_customer")
	input.ProjectDescription = queryValue(r, "project_description")
	input.ProductNumber = queryValue(r, "product_number")
	input.Partnumber = queryValue(r, "partnumber")
	input.OrderNumber = queryValue(r, "order_number")
	input.Manufacturer = queryValue(r, "manufacturer")
	input.Supplier = queryValue(r, "supplier")
	input.Group1 = queryValue(r, "group_1")
	input.NoteGeneral = queryValue(r, "note_general")
	input.NoteSupplier = queryValue(r, "note_supplier")
	input.StoragePlace = queryValue(r, "storage_place")

	ranges := []struct {
		key  string
		dest **time.Time
	}{
		{"created_from", &input.CreatedFrom},
		{"created_to", &input.CreatedTo},
		{"changed_from", &input.ChangedFrom},
		{"changed_to", &input.ChangedTo},
		{"desired_delivery_from", &input.DesiredDeliveryFrom},
		{"desired_delivery_to", &input.DesiredDeliveryTo},
		{"requested_from", &input.RequestedFrom},
		{"requested_to", &input.RequestedTo},
		{"ordered_from", &input.OrderedFrom},
		{"ordered_to", &input.OrderedTo},
		{"expected_delivery_from", &input.ExpectedDeliveryFrom},
		{"expected_delivery_to", &input.ExpectedDeliveryTo},
		{"delivery_from", &input.DeliveryFrom},
		{"delivery_to", &input.DeliveryTo},
	}
	for _, spec := range ranges {
		if *spec.dest, err = parseDatePtr(queryValue(r, spec.key), spec.key); err != nil {
			return input, err
		}
	}

	input.IgnoreDelivered = queryFlag(r, "ignore_delivered")
	input.IgnoreCanceled = queryFlag(r, "ignore_canceled")
	input.IgnoreLost = queryFlag(r, "ignore_lost")

	if raw := queryValue(r, "order_by"); raw != nil {
		keys, parseErr := enums.ParseOrderByList(*raw)
		if parseErr != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid order by")
		}
		input.OrderBy = keys
	}

	return input, nil
}

func queryValue(r *http.Request, key string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

func queryInt64Ptr(r *http.Request, key string) (*int64, error) {
	raw := queryValue(r, key)
	if raw == nil {
		return nil, nil
	}
	value, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func queryBoolPtr(r *http.Request, key string) (*bool, error) {
	raw := queryValue(r, key)
	if raw == nil {
		return nil, nil
	}
	value, err := strconv.ParseBool(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be boolean").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func queryFlag(r *http.Request, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && value
}

func parseDatePtr(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(itemDateLayout, strings.TrimSpace(*raw), time.UTC)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must use the YYYY-MM-DD format").WithDetails(map[string]any{"field": field})
	}
	return &parsed, nil
}
