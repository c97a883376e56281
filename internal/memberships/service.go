package memberships

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

const maxReasonLength = 500

// Service exposes the PM side of tradie membership management.
type Service interface {
	ListTradies(ctx context.Context, businessID uint) (*TradieList, error)
	Approve(ctx context.Context, pm models.User, tradieID uint) (*TradieDTO, error)
	Reject(ctx context.Context, pm models.User, tradieID uint, reason string) (*TradieDTO, error)
	Remove(ctx context.Context, pm models.User, tradieID uint, reason string) (*TradieDTO, error)
}

type effectDispatcher interface {
	Dispatch(ctx context.Context, tradie models.User, t Transition, outcome *Outcome)
}

type service struct {
	repo    *Repository
	effects effectDispatcher
	now     func() time.Time
}

func NewService(repo *Repository, effects effectDispatcher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	}
	if effects == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "effect dispatcher required")
	}
	return &service{repo: repo, effects: effects, now: time.Now}, nil
}

func (s *service) ListTradies(ctx context.Context, businessID uint) (*TradieList, error) {
	if businessID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company required")
	}
	rows, err := s.repo.ListTradies(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tradies")
	}
	return groupTradies(rows), nil
}

func (s *service) Approve(ctx context.Context, pm models.User, tradieID uint) (*TradieDTO, error) {
	return s.decide(ctx, pm, tradieID, ActionApprove, "")
}

func (s *service) Reject(ctx context.Context, pm models.User, tradieID uint, reason string) (*TradieDTO, error) {
	return s.decide(ctx, pm, tradieID, ActionReject, reason)
}

func (s *service) Remove(ctx context.Context, pm models.User, tradieID uint, reason string) (*TradieDTO, error) {
	return s.decide(ctx, pm, tradieID, ActionRemove, reason)
}

func (s *service) decide(ctx context.Context, pm models.User, tradieID uint, action Action, reason string) (*TradieDTO, error) {
	if !pm.HasBusiness() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company required")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is too long").
			WithDetails(map[string]any{"max": maxReasonLength})
	}

	tradie, err := s.repo.FindUser(ctx, tradieID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tradie not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tradie")
	}
	// Unlinked tradies are outside the PM's company, not a state problem.
	if !tradie.HasBusiness() || *tradie.BusinessID != *pm.BusinessID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tradie not found")
	}

	t := Transition{Action: action, BusinessID: *pm.BusinessID, ActorID: pm.ID, Reason: reason}
	outcome, err := Execute(ctx, s.repo, tradie, t, s.now())
	if err != nil {
		return nil, err
	}
	s.effects.Dispatch(ctx, *tradie, t, outcome)
	dto := ToTradieDTO(*tradie)
	return &dto, nil
}
