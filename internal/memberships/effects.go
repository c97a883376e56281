package memberships

import (
	"context"
	"fmt"

	"github.com/angelmondragon/sprinklerhub-backend/internal/email"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type userDirectory interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindProjectManagers(ctx context.Context, businessID uint) ([]models.User, error)
}

type businessLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Business, error)
}

type notifier interface {
	Notify(ctx context.Context, in notifications.Input)
}

// Dispatcher runs the side effects of a committed membership transition.
// Every effect is best effort: failures are logged and never returned.
type Dispatcher struct {
	users      userDirectory
	businesses businessLoader
	notify     notifier
	mail       email.Sender
	logg       *logger.Logger
}

func NewDispatcher(users userDirectory, businesses businessLoader, notify notifier, mail email.Sender, logg *logger.Logger) (*Dispatcher, error) {
	switch {
	case users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	case businesses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "business loader required")
	case notify == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	case mail == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email sender required")
	case logg == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Dispatcher{users: users, businesses: businesses, notify: notify, mail: mail, logg: logg}, nil
}

// Dispatch fans out outcome.Effects for tradie after t was applied.
func (d *Dispatcher) Dispatch(ctx context.Context, tradie models.User, t Transition, outcome *Outcome) {
	if outcome == nil || len(outcome.Effects) == 0 {
		return
	}
	ctx = d.logg.WithFields(ctx, map[string]any{
		"tradie_id":         tradie.ID,
		"membership_action": t.Action,
		"business_id":       t.BusinessID,
	})

	company := ""
	if business, err := d.businesses.FindByID(ctx, t.BusinessID); err != nil {
		d.logg.Error(ctx, "membership.load_business_failed", err)
	} else {
		company = business.Name
	}
	actorName := ""
	if t.ActorID != 0 {
		if actor, err := d.users.FindByID(ctx, t.ActorID); err != nil {
			d.logg.Error(ctx, "membership.load_actor_failed", err)
		} else {
			actorName = actor.FullName()
		}
	}
	data := email.TemplateData{
		PMName:      actorName,
		CompanyName: company,
		TradieEmail: tradie.Email,
		TradieName:  tradie.FullName(),
		Reason:      t.Reason,
	}

	for _, effect := range outcome.Effects {
		switch effect {
		case EffectNotifyCompany:
			d.notifyCompany(ctx, tradie, t.BusinessID, company)
		case EffectNotifyInviter:
			if t.ActorID == 0 {
				continue
			}
			d.notify.Notify(ctx, notifications.Input{
				UserID:  t.ActorID,
				Type:    enums.NotificationTypeInvitationAccepted,
				Title:   "Invitation accepted",
				Message: fmt.Sprintf("%s has accepted your invitation to join %s", tradie.FullName(), company),
				Related: notifications.UserRef{UserID: tradie.ID},
			})
		case EffectNotifyTradie:
			d.notify.Notify(ctx, tradieNotification(tradie.ID, t, company))
		case EffectEmailAccepted:
			d.sendEmail(ctx, email.AcceptanceEmail, data)
		case EffectEmailRejected:
			d.sendEmail(ctx, email.RejectionEmail, data)
		case EffectEmailRemoved:
			d.sendEmail(ctx, email.RemovalEmail, data)
		}
	}
}

func (d *Dispatcher) notifyCompany(ctx context.Context, tradie models.User, businessID uint, company string) {
	pms, err := d.users.FindProjectManagers(ctx, businessID)
	if err != nil {
		d.logg.Error(ctx, "membership.load_project_managers_failed", err)
		return
	}
	for _, pm := range pms {
		d.notify.Notify(ctx, notifications.Input{
			UserID:  pm.ID,
			Type:    enums.NotificationTypeJoinRequest,
			Title:   "New tradie request",
			Message: fmt.Sprintf("%s (%s) has requested to join %s", tradie.FullName(), tradie.Email, company),
			Related: notifications.UserRef{UserID: tradie.ID},
		})
	}
}

func tradieNotification(tradieID uint, t Transition, company string) notifications.Input {
	in := notifications.Input{UserID: tradieID, Related: notifications.UserRef{UserID: tradieID}}
	switch t.Action {
	case ActionApprove:
		in.Type = enums.NotificationTypeMembershipApproved
		in.Title = "Membership approved"
		in.Message = fmt.Sprintf("You have been approved as a member of %s", company)
	case ActionReject:
		in.Type = enums.NotificationTypeMembershipRejected
		in.Title = "Membership request declined"
		in.Message = fmt.Sprintf("Your request to join %s was not approved", company)
	case ActionRemove:
		in.Type = enums.NotificationTypeMembershipRemoved
		in.Title = "Removed from company"
		in.Message = fmt.Sprintf("You have been removed from %s", company)
	}
	if t.Reason != "" {
		in.Message += ": " + t.Reason
	}
	return in
}

func (d *Dispatcher) sendEmail(ctx context.Context, render func(email.TemplateData) (email.Message, error), data email.TemplateData) {
	msg, err := render(data)
	if err != nil {
		d.logg.Error(ctx, "membership.render_email_failed", err)
		return
	}
	if err := d.mail.Reserve(ctx, msg.To); err != nil {
		d.logg.Error(ctx, "membership.email_quota_refused", err)
		return
	}
	d.mail.Dispatch(ctx, msg)
}
