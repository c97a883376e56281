package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/visibility"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type partLoader interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Part, error)
}

type jobLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Job, error)
}

// Service exposes cart operations. Writes are last-write-wins.
type Service interface {
	Get(ctx context.Context, owner Owner, viewer visibility.Viewer) (*CartDTO, error)
	Add(ctx context.Context, owner Owner, input AddItemInput) (*ItemDTO, error)
	UpdateQuantity(ctx context.Context, owner Owner, itemID uint, quantity int) (*ItemDTO, error)
	Remove(ctx context.Context, owner Owner, itemID uint) error
	Clear(ctx context.Context, owner Owner) error
	MergeGuest(ctx context.Context, guestID string, userID uint) (int, error)
}

type service struct {
	repo  CartRepository
	tx    txRunner
	parts partLoader
	jobs  jobLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, parts partLoader, jobs jobLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if parts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "part loader required")
	}
	if jobs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "job loader required")
	}
	return &service{repo: repo, tx: tx, parts: parts, jobs: jobs}, nil
}

func (s *service) Get(ctx context.Context, owner Owner, viewer visibility.Viewer) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	rows, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PartID)
	}
	partsByID, err := s.parts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart parts")
	}

	out := &CartDTO{Items: make([]ItemDTO, 0, len(rows))}
	showPrices := visibility.CanSeePrices(viewer)
	subtotal := decimal.Zero
	for _, row := range rows {
		item := toItem(row)
		if part, ok := partsByID[row.PartID]; ok {
			dto := parts.NewPartDTO(part, viewer)
			item.Part = &dto
			if dto.Price != nil {
				subtotal = subtotal.Add(dto.Price.Mul(decimal.NewFromInt(int64(row.Quantity))))
			}
		}
		out.Items = append(out.Items, item)
		out.ItemCount += row.Quantity
	}
	if showPrices && viewer.Tier != nil {
		out.Subtotal = &subtotal
	}
	return out, nil
}

func (s *service) Add(ctx context.Context, owner Owner, input AddItemInput) (*ItemDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := s.ensurePart(ctx, input.PartID); err != nil {
		return nil, err
	}
	if input.JobID != nil {
		if err := s.ensureJob(ctx, owner, input); err != nil {
			return nil, err
		}
	}

	var result ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindMatch(ctx, owner, input.PartID, input.JobID)
		switch {
		case err == nil:
			existing.Quantity += input.Quantity
			if err := repo.SetQuantity(ctx, existing.ID, existing.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment cart item")
			}
			result = toItem(*existing)
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart item")
		}

		item := &models.CartItem{
			UserID:   owner.UserID,
			PartID:   input.PartID,
			JobID:    input.JobID,
			Quantity: input.Quantity,
		}
		if owner.IsGuest() {
			guest := owner.GuestID
			item.GuestID = &guest
		}
		if err := repo.Create(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
		result = toItem(*item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateQuantity sets the quantity; zero deletes the row and returns nil.
func (s *service) UpdateQuantity(ctx context.Context, owner Owner, itemID uint, quantity int) (*ItemDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	item, err := s.loadItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		if err := s.repo.Delete(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		return nil, nil
	}
	if err := s.repo.SetQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	item.Quantity = quantity
	dto := toItem(*item)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, owner Owner, itemID uint) error {
	item, err := s.loadItem(ctx, owner, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, owner Owner) error {
	if !owner.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	if _, err := s.repo.Clear(ctx, owner); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// MergeGuest folds a guest cart into the user's cart, summing quantities of
// matching (part, job) rows. It returns the number of guest rows merged.
func (s *service) MergeGuest(ctx context.Context, guestID string, userID uint) (int, error) {
	if guestID == "" || userID == 0 {
		return 0, nil
	}
	guest := Owner{GuestID: guestID}
	user := Owner{UserID: &userID}
	merged := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.List(ctx, guest)
		if err != nil {
			return err
		}
		for _, row := range rows {
			existing, err := repo.FindMatch(ctx, user, row.PartID, row.JobID)
			switch {
			case err == nil:
				if err := repo.SetQuantity(ctx, existing.ID, existing.Quantity+row.Quantity); err != nil {
					return err
				}
				if err := repo.Delete(ctx, row.ID); err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := repo.Reassign(ctx, row.ID, userID); err != nil {
					return err
				}
			default:
				return err
			}
			merged++
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge guest cart")
	}
	return merged, nil
}

func (s *service) loadItem(ctx context.Context, owner Owner, itemID uint) (*models.CartItem, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	item, err := s.repo.FindItem(ctx, owner, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

func (s *service) ensurePart(ctx context.Context, partID uint) error {
	found, err := s.parts.FindByIDs(ctx, []uint{partID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
	}
	if _, ok := found[partID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
	}
	return nil
}

func (s *service) ensureJob(ctx context.Context, owner Owner, input AddItemInput) error {
	if owner.IsGuest() || input.BusinessID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "jobs can only be selected by company members")
	}
	job, err := s.jobs.FindByID(ctx, *input.JobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	if job.BusinessID != *input.BusinessID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "job belongs to another company")
	}
	return nil
}

func toItem(row models.CartItem) ItemDTO {
	return ItemDTO{
		ID:       row.ID,
		PartID:   row.PartID,
		JobID:    row.JobID,
		Quantity: row.Quantity,
	}
}
