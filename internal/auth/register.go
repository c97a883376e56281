package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/invitations"
	"github.com/angelmondragon/sprinklerhub-backend/internal/memberships"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/security"
)

// afterCommit is the membership work a registration defers until its
// transaction commits.
type afterCommit struct {
	redemption *invitations.Redemption
	join       *memberships.Outcome
	joinReq    memberships.Transition
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Result, error) {
	address := users.NormalizeEmail(req.Email)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := security.CheckStrength(req.Password); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if err := s.checkRole(req); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var (
		user    *models.User
		pending afterCommit
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		if _, err := userRepo.FindByEmail(ctx, address); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "An account with this email already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		dto := users.CreateUserDTO{
			Email:        address,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         req.Role,
			Status:       enums.UserStatusUnassigned,
		}
		switch req.Role {
		case enums.UserRoleProjectManager:
			business, err := businesses.NewRepository(tx).Create(ctx, businesses.CreateBusinessDTO{
				Name:      strings.TrimSpace(req.BusinessName),
				ABN:       req.ABN,
				Email:     &address,
				PriceTier: enums.PriceTierT3,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create business")
			}
			dto.BusinessID = &business.ID
			dto.IsApproved = true
			dto.Status = enums.UserStatusActive
		case enums.UserRoleSupplier:
			dto.IsApproved = true
			dto.Status = enums.UserStatusActive
		}

		created, err := userRepo.Create(ctx, dto)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "An account with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		user = created

		if !req.Role.IsTradieLike() {
			return nil
		}
		if token := strings.TrimSpace(req.InvitationToken); token != "" {
			pending.redemption, err = s.invitations.Redeem(ctx, tx, user, token)
			return err
		}
		if req.BusinessID != nil {
			return s.requestJoin(ctx, tx, user, *req.BusinessID, &pending)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pending.redemption != nil {
		s.invitations.Complete(ctx, pending.redemption)
	}
	if pending.join != nil {
		s.effects.Dispatch(ctx, *user, pending.joinReq, pending.join)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "role": user.Role}), "auth.registered")

	return s.startSession(ctx, user, s.now())
}

func (s *service) checkRole(req RegisterRequest) error {
	switch req.Role {
	case enums.UserRoleTradie, enums.UserRoleContractor:
		if req.InvitationToken != "" && req.BusinessID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "choose either an invitation or a company to join, not both")
		}
	case enums.UserRoleProjectManager:
		if strings.TrimSpace(req.BusinessName) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "business name is required for project managers").
				WithDetails(map[string]any{"field": "businessName"})
		}
	case enums.UserRoleSupplier:
		if !s.allowSupplierSignup {
			return pkgerrors.New(pkgerrors.CodeForbidden, "supplier accounts cannot be self-registered")
		}
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", req.Role)
	}
	return nil
}

func (s *service) requestJoin(ctx context.Context, tx *gorm.DB, user *models.User, businessID uint, out *afterCommit) error {
	if _, err := businesses.NewRepository(tx).FindByID(ctx, businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "selected company does not exist").
				WithDetails(map[string]any{"field": "businessId"})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	t := memberships.Transition{Action: memberships.ActionRequestJoin, BusinessID: businessID}
	outcome, err := memberships.Execute(ctx, memberships.NewRepository(tx), user, t, s.now())
	if err != nil {
		return err
	}
	out.join = outcome
	out.joinReq = t
	return nil
}
