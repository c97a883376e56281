package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	"github.com/angelmondragon/sprinklerhub-backend/api/validators"
	internalorders "github.com/angelmondragon/sprinklerhub-backend/internal/orders"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type createOrderRequest struct {
	JobID               *uint  `json:"jobId" validate:"omitempty,gt=0"`
	Notes               string `json:"notes" validate:"max=2000"`
	DeliveryAddress     string `json:"deliveryAddress" validate:"max=500"`
	PurchaseOrderNumber string `json:"purchaseOrderNumber" validate:"max=100"`
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

type modifyItemRequest struct {
	PartID   uint `json:"partId" validate:"required,gt=0"`
	Quantity int  `json:"quantity" validate:"required,gt=0"`
}

type modifyRequest struct {
	Items []modifyItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes string              `json:"notes" validate:"max=2000"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// Create submits the caller's cart as an order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), *user, internalorders.CreateOrderInput{
			JobID:               body.JobID,
			Notes:               body.Notes,
			DeliveryAddress:     body.DeliveryAddress,
			PurchaseOrderNumber: body.PurchaseOrderNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, order)
	}
}

// ListMine pages through orders the caller placed.
func ListMine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListMine(r.Context(), *user, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Detail returns an order with its items and history when the caller may see it.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), *user, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Resubmit sends a modified order back for approval.
func Resubmit(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body notesRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		order, err := svc.Resubmit(r.Context(), *user, orderID, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// PMList pages through the PM company's orders. A non-empty fixed status
// pins the listing to that status; otherwise ?status= applies.
func PMList(svc internalorders.Service, fixed enums.OrderStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if fixed != "" {
			filters.Statuses = []enums.OrderStatus{fixed}
		}
		page, err := svc.ListCompany(r.Context(), *user, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Approve approves a pending order.
func Approve(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, orderID, ok := decisionTarget(w, r, logg)
		if !ok {
			return
		}
		var body notesRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		order, err := svc.Approve(r.Context(), *user, orderID, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Reject rejects a pending order with a mandatory reason.
func Reject(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, orderID, ok := decisionTarget(w, r, logg)
		if !ok {
			return
		}
		var body rejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Reject(r.Context(), *user, orderID, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Modify rewrites quantities on a pending order and returns it to the requester.
func Modify(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, orderID, ok := decisionTarget(w, r, logg)
		if !ok {
			return
		}
		var body modifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]internalorders.ModifyItem, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, internalorders.ModifyItem{PartID: item.PartID, Quantity: item.Quantity})
		}
		order, err := svc.Modify(r.Context(), *user, orderID, internalorders.ModifyInput{Items: items, Notes: body.Notes})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// SupplierQueue lists orders awaiting fulfilment across every company.
func SupplierQueue(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := validators.ParseQueryID(r, "businessId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.BusinessID = businessID
		page, err := svc.ListQueue(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// SupplierAdvance moves an order along the fulfilment chain.
func SupplierAdvance(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		user, orderID, ok := decisionTarget(w, r, logg)
		if !ok {
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := enums.OrderStatus(strings.TrimSpace(body.Status))
		order, err := svc.AdvanceStatus(r.Context(), *user, orderID, status, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func buildFilters(r *http.Request) (internalorders.ListFilters, error) {
	page, err := validators.ParsePage(r)
	if err != nil {
		return internalorders.ListFilters{}, err
	}
	jobID, err := validators.ParseQueryID(r, "jobId")
	if err != nil {
		return internalorders.ListFilters{}, err
	}
	filters := internalorders.ListFilters{JobID: jobID, Pagination: page}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := enums.OrderStatus(strings.TrimSpace(part))
			if !status.IsValid() {
				return internalorders.ListFilters{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", part).
					WithDetails(map[string]any{"field": "status"})
			}
			filters.Statuses = append(filters.Statuses, status)
		}
	}
	return filters, nil
}

func decisionTarget(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.User, uint, bool) {
	user, ok := requireUser(w, r, logg)
	if !ok {
		return nil, 0, false
	}
	orderID, err := validators.ParseIDParam(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, 0, false
	}
	return user, orderID, true
}

func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
		return nil, false
	}
	return user, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
}
