package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/internal/cart"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/pagination"
)

const maxNoteLength = 1000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	WithTx(tx *gorm.DB) cart.CartRepository
	List(ctx context.Context, owner cart.Owner) ([]models.CartItem, error)
}

type partLoader interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Part, error)
}

type businessLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Business, error)
}

type jobLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Job, error)
}

type managerDirectory interface {
	FindProjectManagers(ctx context.Context, businessID uint) ([]models.User, error)
}

type txNotifier interface {
	WithTx(tx *gorm.DB) notifications.Sender
}

// Service defines the purchase order lifecycle.
type Service interface {
	Create(ctx context.Context, user models.User, input CreateOrderInput) (*OrderDetail, error)
	Get(ctx context.Context, user models.User, orderID uint) (*OrderDetail, error)
	ListMine(ctx context.Context, user models.User, filters ListFilters) (*ListResult, error)
	ListCompany(ctx context.Context, pm models.User, filters ListFilters) (*ListResult, error)
	ListQueue(ctx context.Context, filters ListFilters) (*ListResult, error)
	Approve(ctx context.Context, pm models.User, orderID uint, notes string) (*OrderDetail, error)
	Reject(ctx context.Context, pm models.User, orderID uint, reason string) (*OrderDetail, error)
	Modify(ctx context.Context, pm models.User, orderID uint, input ModifyInput) (*OrderDetail, error)
	Resubmit(ctx context.Context, user models.User, orderID uint, notes string) (*OrderDetail, error)
	AdvanceStatus(ctx context.Context, supplier models.User, orderID uint, to enums.OrderStatus, notes string) (*OrderDetail, error)
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Repo       Repository
	Tx         txRunner
	Cart       cartStore
	Parts      partLoader
	Businesses businessLoader
	Jobs       jobLoader
	Managers   managerDirectory
	Notify     txNotifier
}

type service struct {
	repo       Repository
	tx         txRunner
	cart       cartStore
	parts      partLoader
	businesses businessLoader
	jobs       jobLoader
	managers   managerDirectory
	notify     txNotifier
	now        func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	case deps.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case deps.Cart == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	case deps.Parts == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "part loader required")
	case deps.Businesses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "business loader required")
	case deps.Jobs == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "job loader required")
	case deps.Managers == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "manager directory required")
	case deps.Notify == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification sender required")
	}
	return &service{
		repo:       deps.Repo,
		tx:         deps.Tx,
		cart:       deps.Cart,
		parts:      deps.Parts,
		businesses: deps.Businesses,
		jobs:       deps.Jobs,
		managers:   deps.Managers,
		notify:     deps.Notify,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

type orderLine struct {
	partID    uint
	quantity  int
	unitPrice decimal.Decimal
}

func (s *service) Create(ctx context.Context, user models.User, input CreateOrderInput) (*OrderDetail, error) {
	perms := access.Resolve(user)
	if !perms.CanPlaceOrders || perms.CompanyID == nil {
		return nil, pkgerrors.Denied(access.OrderDenialMessage(perms.AccessLevel), perms.AccessLevel)
	}
	businessID := *perms.CompanyID
	notes, err := optionalText(input.Notes, "notes")
	if err != nil {
		return nil, err
	}

	owner := cart.Owner{UserID: &user.ID}
	cartItems, err := s.cart.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cartItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	jobID := input.JobID
	if jobID == nil {
		jobID = sharedJob(cartItems)
	}
	if jobID != nil {
		job, err := s.jobs.FindByID(ctx, *jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "job not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
		}
		if job.BusinessID != businessID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "job belongs to another company")
		}
	}

	business, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	lines, err := s.priceLines(ctx, cartItems, business.PriceTier)
	if err != nil {
		return nil, err
	}

	isPM := user.Role == enums.UserRoleProjectManager
	var managers []models.User
	if !isPM {
		if managers, err = s.managers.FindProjectManagers(ctx, businessID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project managers")
		}
	}

	now := s.now()
	order := &models.Order{
		BusinessID:          businessID,
		JobID:               jobID,
		RequestedBy:         user.ID,
		Status:              enums.OrderStatusPendingApproval,
		Notes:               notes,
		DeliveryAddress:     trimmedOrNil(input.DeliveryAddress),
		PurchaseOrderNumber: trimmedOrNil(input.PurchaseOrderNumber),
	}
	historyNote := "Order submitted for approval"
	if isPM {
		approver := user.ID
		order.Status = enums.OrderStatusApproved
		order.ApprovedBy = &approver
		order.ApprovalDate = &now
		historyNote = "Order placed by project manager"
	}
	total := decimal.Zero
	for _, line := range lines {
		lineTotal := line.unitPrice.Mul(decimal.NewFromInt(int64(line.quantity)))
		total = total.Add(lineTotal)
		order.Items = append(order.Items, models.OrderItem{
			PartID:    line.partID,
			Quantity:  line.quantity,
			UnitPrice: line.unitPrice,
			LineTotal: lineTotal,
		})
	}
	order.Total = total

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		note := historyNote
		if err := repo.AppendHistory(ctx, &models.OrderHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			ChangedBy: user.ID,
			Notes:     &note,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
		}

		cartRepo := s.cart.WithTx(tx)
		for _, item := range cartItems {
			if err := cartRepo.Delete(ctx, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}

		sender := s.notify.WithTx(tx)
		for _, pm := range managers {
			if err := sender.Send(ctx, notifications.Input{
				UserID:  pm.ID,
				Type:    enums.NotificationTypeOrderSubmitted,
				Title:   "New order awaiting approval",
				Message: fmt.Sprintf("%s submitted order #%d for approval", user.FullName(), order.ID),
				Related: notifications.OrderRef{OrderID: order.ID},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, order.ID, canSeeTotals(user))
}

// priceLines merges cart rows per part and snapshots the tier price.
func (s *service) priceLines(ctx context.Context, items []models.CartItem, tier enums.PriceTier) ([]orderLine, error) {
	ids := make([]uint, 0, len(items))
	index := map[uint]int{}
	lines := make([]orderLine, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.PartID]; ok {
			lines[i].quantity += item.Quantity
			continue
		}
		index[item.PartID] = len(lines)
		lines = append(lines, orderLine{partID: item.PartID, quantity: item.Quantity})
		ids = append(ids, item.PartID)
	}

	parts, err := s.parts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parts")
	}
	for i := range lines {
		part, ok := parts[lines[i].partID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a part in your cart is no longer available").
				WithDetails(map[string]any{"partId": lines[i].partID})
		}
		lines[i].unitPrice = part.PriceFor(tier)
	}
	return lines, nil
}

func (s *service) Get(ctx context.Context, user models.User, orderID uint) (*OrderDetail, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(user, *order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have access to this order")
	}
	return s.detail(ctx, order.ID, canSeeTotals(user))
}

func (s *service) ListMine(ctx context.Context, user models.User, filters ListFilters) (*ListResult, error) {
	filters.BusinessID = nil
	filters.RequestedBy = &user.ID
	return s.list(ctx, filters, canSeeTotals(user))
}

func (s *service) ListCompany(ctx context.Context, pm models.User, filters ListFilters) (*ListResult, error) {
	if !pm.HasBusiness() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company required")
	}
	filters.BusinessID = pm.BusinessID
	return s.list(ctx, filters, true)
}

// ListQueue lists orders across every business for the supplier.
func (s *service) ListQueue(ctx context.Context, filters ListFilters) (*ListResult, error) {
	if len(filters.Statuses) == 0 {
		filters.Statuses = []enums.OrderStatus{
			enums.OrderStatusApproved,
			enums.OrderStatusProcessing,
			enums.OrderStatusShipped,
		}
	}
	return s.list(ctx, filters, true)
}

func (s *service) list(ctx context.Context, filters ListFilters, showPrices bool) (*ListResult, error) {
	if _, err := pagination.ParseCursor(filters.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	for _, status := range filters.Statuses {
		if !status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
		}
	}
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	items := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSummary(row, showPrices))
	}
	page := pagination.Trim(items, filters.Pagination.Limit, func(o OrderSummary) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// transition describes one status change applied inside a transaction.
type transition struct {
	from    enums.OrderStatus
	to      enums.OrderStatus
	actorID uint
	note    *string
	updates map[string]any
	// authorize runs against the loaded order before any write.
	authorize func(order models.Order) error
	// prepare may write order lines and add columns to updates.
	prepare func(ctx context.Context, repo Repository, order *models.Order, updates map[string]any) error
	notices func(order models.Order) ([]notifications.Input, error)
}

func (s *service) apply(ctx context.Context, orderID uint, t transition) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if t.authorize != nil {
			if err := t.authorize(*order); err != nil {
				return err
			}
		}
		if order.Status != t.from {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s and cannot move to %s", order.Status, t.to).
				WithDetails(map[string]any{"status": order.Status})
		}

		updates := map[string]any{"status": t.to}
		for k, v := range t.updates {
			updates[k] = v
		}
		if t.prepare != nil {
			if err := t.prepare(ctx, repo, order, updates); err != nil {
				return err
			}
		}
		ok, err := repo.TransitionStatus(ctx, order.ID, t.from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently, reload and try again")
		}
		order.Status = t.to

		if err := repo.AppendHistory(ctx, &models.OrderHistory{
			OrderID:   order.ID,
			Status:    t.to,
			ChangedBy: t.actorID,
			Notes:     t.note,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
		}

		if t.notices == nil {
			return nil
		}
		inputs, err := t.notices(*order)
		if err != nil {
			return err
		}
		sender := s.notify.WithTx(tx)
		for _, in := range inputs {
			if err := sender.Send(ctx, in); err != nil {
				return err
			}
		}
		return nil
	})
}

func sameBusiness(pm models.User) func(models.Order) error {
	return func(order models.Order) error {
		if !pm.HasBusiness() || *pm.BusinessID != order.BusinessID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another company")
		}
		return nil
	}
}

func requesterNotice(typ enums.NotificationType, title, message string) func(models.Order) ([]notifications.Input, error) {
	return func(order models.Order) ([]notifications.Input, error) {
		return []notifications.Input{{
			UserID:  order.RequestedBy,
			Type:    typ,
			Title:   title,
			Message: fmt.Sprintf(message, order.ID),
			Related: notifications.OrderRef{OrderID: order.ID},
		}}, nil
	}
}

func (s *service) Approve(ctx context.Context, pm models.User, orderID uint, notes string) (*OrderDetail, error) {
	note, err := optionalText(notes, "notes")
	if err != nil {
		return nil, err
	}
	now := s.now()
	message := "Your order #%d has been approved"
	if note != nil {
		message += ". Note: " + strings.ReplaceAll(*note, "%", "%%")
	}
	err = s.apply(ctx, orderID, transition{
		from:      enums.OrderStatusPendingApproval,
		to:        enums.OrderStatusApproved,
		actorID:   pm.ID,
		note:      note,
		updates:   map[string]any{"approved_by": pm.ID, "approval_date": now},
		authorize: sameBusiness(pm),
		notices:   requesterNotice(enums.NotificationTypeOrderApproved, "Order approved", message),
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, orderID, true)
}

func (s *service) Reject(ctx context.Context, pm models.User, orderID uint, reason string) (*OrderDetail, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required").
			WithDetails(map[string]any{"reason": "required"})
	}
	if len(reason) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is too long").
			WithDetails(map[string]any{"max": maxNoteLength})
	}
	err := s.apply(ctx, orderID, transition{
		from:      enums.OrderStatusPendingApproval,
		to:        enums.OrderStatusRejected,
		actorID:   pm.ID,
		note:      &reason,
		updates:   map[string]any{"rejection_reason": reason},
		authorize: sameBusiness(pm),
		notices: requesterNotice(enums.NotificationTypeOrderRejected, "Order rejected",
			"Your order #%d was rejected: "+strings.ReplaceAll(reason, "%", "%%")),
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, orderID, true)
}

func (s *service) Modify(ctx context.Context, pm models.User, orderID uint, input ModifyInput) (*OrderDetail, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	wanted := make(map[uint]int, len(input.Items))
	for _, item := range input.Items {
		if item.PartID == 0 || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each item needs a part id and a quantity above zero")
		}
		if _, dup := wanted[item.PartID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each part may appear once").
				WithDetails(map[string]any{"partId": item.PartID})
		}
		wanted[item.PartID] = item.Quantity
	}
	note, err := optionalText(input.Notes, "notes")
	if err != nil {
		return nil, err
	}

	err = s.apply(ctx, orderID, transition{
		from:      enums.OrderStatusPendingApproval,
		to:        enums.OrderStatusModified,
		actorID:   pm.ID,
		note:      note,
		authorize: sameBusiness(pm),
		prepare: func(ctx context.Context, repo Repository, order *models.Order, updates map[string]any) error {
			items, err := repo.FindItems(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
			}
			onOrder := make(map[uint]bool, len(items))
			for _, item := range items {
				onOrder[item.PartID] = true
			}
			for partID := range wanted {
				if !onOrder[partID] {
					return pkgerrors.New(pkgerrors.CodeValidation, "part is not on this order").
						WithDetails(map[string]any{"partId": partID})
				}
			}

			total := decimal.Zero
			for _, item := range items {
				qty, changed := wanted[item.PartID]
				if !changed {
					total = total.Add(item.LineTotal)
					continue
				}
				lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
				if err := repo.UpdateItem(ctx, item.ID, qty, lineTotal); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
				}
				total = total.Add(lineTotal)
			}
			updates["total"] = total
			order.Total = total
			return nil
		},
		notices: requesterNotice(enums.NotificationTypeOrderModified, "Order needs your review",
			"Your project manager modified order #%d. Please review and resubmit it"),
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, orderID, true)
}

// Resubmit sends a modified order back for approval. Only the requester may do it.
func (s *service) Resubmit(ctx context.Context, user models.User, orderID uint, notes string) (*OrderDetail, error) {
	note, err := optionalText(notes, "notes")
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	managers, err := s.managers.FindProjectManagers(ctx, current.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project managers")
	}
	err = s.apply(ctx, orderID, transition{
		from:    enums.OrderStatusModified,
		to:      enums.OrderStatusPendingApproval,
		actorID: user.ID,
		note:    note,
		authorize: func(order models.Order) error {
			if order.RequestedBy != user.ID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the requester can resubmit this order")
			}
			return nil
		},
		notices: func(order models.Order) ([]notifications.Input, error) {
			out := make([]notifications.Input, 0, len(managers))
			for _, pm := range managers {
				out = append(out, notifications.Input{
					UserID:  pm.ID,
					Type:    enums.NotificationTypeOrderSubmitted,
					Title:   "Order resubmitted",
					Message: fmt.Sprintf("%s resubmitted order #%d for approval", user.FullName(), order.ID),
					Related: notifications.OrderRef{OrderID: order.ID},
				})
			}
			return out, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, orderID, canSeeTotals(user))
}

var fulfilmentSteps = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusProcessing: enums.OrderStatusApproved,
	enums.OrderStatusShipped:    enums.OrderStatusProcessing,
	enums.OrderStatusCompleted:  enums.OrderStatusShipped,
}

// AdvanceStatus moves an approved order through fulfilment one step at a time.
func (s *service) AdvanceStatus(ctx context.Context, supplier models.User, orderID uint, to enums.OrderStatus, notes string) (*OrderDetail, error) {
	if supplier.Role != enums.UserRoleSupplier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers can update fulfilment status")
	}
	from, ok := fulfilmentSteps[to]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of processing, shipped, completed")
	}
	note, err := optionalText(notes, "notes")
	if err != nil {
		return nil, err
	}
	err = s.apply(ctx, orderID, transition{
		from:    from,
		to:      to,
		actorID: supplier.ID,
		note:    note,
		notices: requesterNotice(enums.NotificationTypeOrderStatus, "Order update",
			"Your order #%d is now "+strings.ReplaceAll(string(to), "%", "%%")),
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, orderID, true)
}

func (s *service) load(ctx context.Context, repo Repository, orderID uint) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) detail(ctx context.Context, orderID uint, showPrices bool) (*OrderDetail, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.FindItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	history, err := s.repo.FindHistory(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	return toDetail(*order, items, history, showPrices), nil
}

func canView(user models.User, order models.Order) bool {
	switch {
	case user.Role == enums.UserRoleSupplier:
		return true
	case user.Role == enums.UserRoleProjectManager:
		return user.HasBusiness() && *user.BusinessID == order.BusinessID
	}
	return order.RequestedBy == user.ID
}

// canSeeTotals mirrors catalog visibility: tradies never see prices.
func canSeeTotals(user models.User) bool {
	switch user.Role {
	case enums.UserRoleSupplier:
		return true
	case enums.UserRoleProjectManager:
		return user.HasBusiness()
	}
	return false
}

func sharedJob(items []models.CartItem) *uint {
	var job *uint
	for i, item := range items {
		if item.JobID == nil {
			return nil
		}
		if i > 0 && *item.JobID != *job {
			return nil
		}
		job = item.JobID
	}
	return job
}

func optionalText(value, field string) (*string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	if len(v) > maxNoteLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is too long", field).
			WithDetails(map[string]any{"max": maxNoteLength})
	}
	return &v, nil
}

func trimmedOrNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
