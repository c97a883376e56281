package invitations

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	emailpkg "github.com/angelmondragon/sprinklerhub-backend/internal/email"
	"github.com/angelmondragon/sprinklerhub-backend/internal/memberships"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

const (
	capWindow        = 24 * time.Hour
	maxMessageLength = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type businessLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Business, error)
}

type notifier interface {
	Notify(ctx context.Context, in notifications.Input)
}

type effectDispatcher interface {
	Dispatch(ctx context.Context, tradie models.User, t memberships.Transition, outcome *memberships.Outcome)
}

// Service runs the tradie invitation workflow.
type Service interface {
	Invite(ctx context.Context, pm models.User, input InviteInput) (*InvitationDTO, error)
	ListForBusiness(ctx context.Context, pm models.User) ([]InvitationDTO, error)
	Cancel(ctx context.Context, pm models.User, invitationID uint) error
	Check(ctx context.Context, token, email string) (*TokenCheck, error)
	ListForTradie(ctx context.Context, tradie models.User) ([]InvitationDTO, error)
	Accept(ctx context.Context, tradie models.User, invitationID uint) (*InvitationDTO, error)
	Decline(ctx context.Context, tradie models.User, invitationID uint) error
	Redeem(ctx context.Context, tx *gorm.DB, tradie *models.User, token string) (*Redemption, error)
	Complete(ctx context.Context, r *Redemption)
}

// Options bounds the workflow.
type Options struct {
	BaseURL    string
	TokenTTL   time.Duration
	DailyLimit int
}

// Deps groups the collaborators of the invitation service.
type Deps struct {
	Repo        *Repository
	Memberships *memberships.Repository
	Tx          txRunner
	Users       userFinder
	Businesses  businessLoader
	Notify      notifier
	Mail        emailpkg.Sender
	Effects     effectDispatcher
	Logger      *logger.Logger
}

type service struct {
	repo        *Repository
	memberships *memberships.Repository
	tx          txRunner
	users       userFinder
	businesses  businessLoader
	notify      notifier
	mail        emailpkg.Sender
	effects     effectDispatcher
	logg        *logger.Logger
	opts        Options
	now         func() time.Time
}

// Redemption is an accepted invitation whose side effects still need dispatching.
type Redemption struct {
	Invitation InvitationDTO
	tradie     models.User
	transition memberships.Transition
	outcome    *memberships.Outcome
}

func NewService(deps Deps, opts Options) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invitations repository required")
	case deps.Memberships == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	case deps.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case deps.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user finder required")
	case deps.Businesses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "business loader required")
	case deps.Notify == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	case deps.Mail == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email sender required")
	case deps.Effects == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "effect dispatcher required")
	case deps.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = 50
	}
	return &service{
		repo:        deps.Repo,
		memberships: deps.Memberships,
		tx:          deps.Tx,
		users:       deps.Users,
		businesses:  deps.Businesses,
		notify:      deps.Notify,
		mail:        deps.Mail,
		effects:     deps.Effects,
		logg:        deps.Logger,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Invite(ctx context.Context, pm models.User, input InviteInput) (*InvitationDTO, error) {
	if pm.Role != enums.UserRoleProjectManager || !pm.HasBusiness() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only project managers can invite tradies")
	}
	address, err := normalizeAddress(input.Email)
	if err != nil {
		return nil, err
	}
	message := strings.TrimSpace(input.Message)
	if len(message) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is too long").
			WithDetails(map[string]any{"max": maxMessageLength})
	}
	now := s.now()

	sent, err := s.repo.CountSentSince(ctx, pm.ID, now.Add(-capWindow))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count invitations")
	}
	if sent >= int64(s.opts.DailyLimit) {
		return nil, pkgerrors.LimitExceeded("daily invitation limit reached, try again tomorrow", int64(s.opts.DailyLimit), capWindow)
	}

	var stale *models.TradieInvitation
	existing, err := s.repo.FindPending(ctx, address, pm.ID)
	switch {
	case err == nil && !existing.IsExpired(now):
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an invitation is already pending for this email").
			WithDetails(map[string]any{"invitationId": existing.ID, "expiresAt": existing.TokenExpiry})
	case err == nil:
		stale = existing
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending invitations")
	}

	invitee, err := s.users.FindByEmail(ctx, address)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up invitee")
	}
	if err == nil {
		if !invitee.Role.IsTradieLike() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "only tradies can be invited")
		}
		if memberships.StateOf(*invitee) == memberships.StateApproved {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "this tradie is already an approved company member")
		}
	} else if err := s.mail.Reserve(ctx, address); err != nil {
		return nil, err
	}

	business, err := s.businesses.FindByID(ctx, *pm.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}

	inv := &models.TradieInvitation{
		BusinessID:       business.ID,
		ProjectManagerID: pm.ID,
		Email:            address,
		InvitationToken:  uuid.New(),
		TokenExpiry:      now.Add(s.opts.TokenTTL),
		Status:           enums.InvitationStatusPending,
		CreatedAt:        now,
	}
	if message != "" {
		inv.Message = &message
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if stale != nil {
			if _, err := repo.Resolve(ctx, stale.ID, enums.InvitationStatusCancelled, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel expired invitation")
			}
		}
		if err := repo.Create(ctx, inv); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invitation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"invitation_id": inv.ID, "business_id": business.ID})
	if invitee != nil {
		s.notify.Notify(logCtx, notifications.Input{
			UserID:  invitee.ID,
			Type:    enums.NotificationTypeInvitationReceived,
			Title:   "Company invitation",
			Message: fmt.Sprintf("%s invited you to join %s", pm.FullName(), business.Name),
			Related: notifications.InvitationRef{InvitationID: inv.ID},
		})
	} else {
		msg, err := emailpkg.InvitationEmail(emailpkg.TemplateData{
			PMName:           pm.FullName(),
			CompanyName:      business.Name,
			TradieEmail:      address,
			RegistrationLink: emailpkg.RegistrationLink(s.opts.BaseURL, inv.InvitationToken.String(), address),
			ExpiresAt:        inv.TokenExpiry,
			Message:          message,
		})
		if err != nil {
			s.logg.Error(logCtx, "invitation.render_email_failed", err)
		} else {
			s.mail.Dispatch(logCtx, msg)
		}
	}
	s.logg.Info(logCtx, "invitation.sent")

	row, err := s.repo.FindByID(ctx, inv.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload invitation")
	}
	dto := row.toDTO(now)
	return &dto, nil
}

func (s *service) ListForBusiness(ctx context.Context, pm models.User) ([]InvitationDTO, error) {
	if !pm.HasBusiness() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company required")
	}
	rows, err := s.repo.ListByBusiness(ctx, *pm.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invitations")
	}
	return s.toDTOs(rows), nil
}

func (s *service) Cancel(ctx context.Context, pm models.User, invitationID uint) error {
	row, err := s.load(ctx, invitationID)
	if err != nil {
		return err
	}
	if !pm.HasBusiness() || row.BusinessID != *pm.BusinessID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
	}
	ok, err := s.repo.Resolve(ctx, row.ID, enums.InvitationStatusCancelled, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel invitation")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "invitation is already %s", row.Status)
	}
	return nil
}

// Check validates a registration token without consuming it.
func (s *service) Check(ctx context.Context, token, email string) (*TokenCheck, error) {
	row, err := s.validToken(ctx, s.repo, token, email)
	if err != nil {
		return nil, err
	}
	return &TokenCheck{
		Valid:        true,
		Email:        row.Email,
		BusinessID:   row.BusinessID,
		BusinessName: row.BusinessName,
		InviterName:  row.inviterName(),
		ExpiresAt:    row.TokenExpiry,
	}, nil
}

func (s *service) validToken(ctx context.Context, repo *Repository, token, email string) (*invitationRow, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, tokenError(OutcomeInvalid)
	}
	row, err := repo.FindByToken(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tokenError(OutcomeInvalid)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invitation")
	}
	if row.Status != enums.InvitationStatusPending {
		return nil, tokenError(OutcomeInvalid)
	}
	if email != "" && users.NormalizeEmail(email) != row.Email {
		return nil, tokenError(OutcomeInvalid)
	}
	if !s.now().Before(row.TokenExpiry) {
		return nil, tokenError(OutcomeExpired)
	}
	return row, nil
}

func tokenError(outcome Outcome) error {
	message := "This invitation link is invalid"
	if outcome == OutcomeExpired {
		message = "This invitation has expired. Ask your project manager to send a new one"
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"outcome": outcome})
}

func (s *service) ListForTradie(ctx context.Context, tradie models.User) ([]InvitationDTO, error) {
	rows, err := s.repo.ListPendingForEmail(ctx, users.NormalizeEmail(tradie.Email))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invitations")
	}
	return s.toDTOs(rows), nil
}

func (s *service) Accept(ctx context.Context, tradie models.User, invitationID uint) (*InvitationDTO, error) {
	row, err := s.loadForInvitee(ctx, tradie, invitationID)
	if err != nil {
		return nil, err
	}
	var redemption *Redemption
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		redemption, err = s.redeem(ctx, tx, &tradie, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Complete(ctx, redemption)
	return &redemption.Invitation, nil
}

func (s *service) Decline(ctx context.Context, tradie models.User, invitationID uint) error {
	row, err := s.loadForInvitee(ctx, tradie, invitationID)
	if err != nil {
		return err
	}
	ok, err := s.repo.Resolve(ctx, row.ID, enums.InvitationStatusRejected, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decline invitation")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invitation is no longer pending")
	}
	s.notify.Notify(ctx, notifications.Input{
		UserID:  row.ProjectManagerID,
		Type:    enums.NotificationTypeInvitationRejected,
		Title:   "Invitation declined",
		Message: fmt.Sprintf("%s declined your invitation to join %s", tradie.FullName(), row.BusinessName),
		Related: notifications.UserRef{UserID: tradie.ID},
	})
	return nil
}

// Redeem accepts the invitation behind token for tradie inside tx. The caller
// must pass the result to Complete once tx has committed.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, tradie *models.User, token string) (*Redemption, error) {
	row, err := s.validToken(ctx, s.repo.WithTx(tx), token, tradie.Email)
	if err != nil {
		return nil, err
	}
	return s.redeem(ctx, tx, tradie, row)
}

func (s *service) redeem(ctx context.Context, tx *gorm.DB, tradie *models.User, row *invitationRow) (*Redemption, error) {
	now := s.now()
	t := memberships.Transition{
		Action:     memberships.ActionAcceptInvitation,
		BusinessID: row.BusinessID,
		ActorID:    row.ProjectManagerID,
	}
	outcome, err := memberships.Execute(ctx, s.memberships.WithTx(tx), tradie, t, now)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.WithTx(tx).Resolve(ctx, row.ID, enums.InvitationStatusAccepted, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept invitation")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invitation is no longer pending")
	}
	row.Status = enums.InvitationStatusAccepted
	row.RespondedAt = &now
	return &Redemption{
		Invitation: row.toDTO(now),
		tradie:     *tradie,
		transition: t,
		outcome:    outcome,
	}, nil
}

// Complete dispatches the membership side effects of a committed redemption.
func (s *service) Complete(ctx context.Context, r *Redemption) {
	if r == nil {
		return
	}
	s.effects.Dispatch(ctx, r.tradie, r.transition, r.outcome)
}

func (s *service) loadForInvitee(ctx context.Context, tradie models.User, invitationID uint) (*invitationRow, error) {
	if !tradie.Role.IsTradieLike() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only tradies can respond to invitations")
	}
	row, err := s.load(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if row.Email != users.NormalizeEmail(tradie.Email) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
	}
	if row.Status != enums.InvitationStatusPending {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "invitation is already %s", row.Status)
	}
	if !s.now().Before(row.TokenExpiry) {
		return nil, tokenError(OutcomeExpired)
	}
	return row, nil
}

func (s *service) load(ctx context.Context, id uint) (*invitationRow, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invitation")
	}
	return row, nil
}

func (s *service) toDTOs(rows []invitationRow) []InvitationDTO {
	now := s.now()
	out := make([]InvitationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO(now))
	}
	return out
}

func normalizeAddress(raw string) (string, error) {
	address := users.NormalizeEmail(raw)
	if address == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is invalid").
			WithDetails(map[string]any{"email": raw})
	}
	return address, nil
}
