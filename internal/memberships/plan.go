// Package memberships holds the single transition function for a tradie's
// company membership. Invitation acceptance and PM decisions both go through Plan.
package memberships

import (
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

// State is derived from the user row; there is no separate membership table.
type State string

const (
	StateIndependent State = "independent"
	StatePending     State = "pending"
	StateApproved    State = "approved"
	StateRemoved     State = "removed"
)

type Action string

const (
	ActionRequestJoin      Action = "request_join"
	ActionAcceptInvitation Action = "accept_invitation"
	ActionApprove          Action = "approve"
	ActionReject           Action = "reject"
	ActionRemove           Action = "remove"
)

// Effect is a side effect the caller must dispatch after persisting the changes.
type Effect string

const (
	EffectNotifyCompany Effect = "notify_company"
	EffectNotifyInviter Effect = "notify_inviter"
	EffectNotifyTradie  Effect = "notify_tradie"
	EffectEmailAccepted Effect = "email_accepted"
	EffectEmailRejected Effect = "email_rejected"
	EffectEmailRemoved  Effect = "email_removed"
)

// Transition is one requested membership change.
type Transition struct {
	Action Action
	// BusinessID is the company being joined, or the acting PM's company.
	BusinessID uint
	// ActorID is the PM deciding, or the inviting PM on acceptance.
	ActorID uint
	Reason  string
}

// Changes are the user columns a transition writes.
type Changes struct {
	BusinessID   *uint
	IsApproved   bool
	ApprovedBy   *uint
	ApprovalDate *time.Time
	Status       enums.UserStatus
}

// Columns renders the changes for a gorm Updates call. Nil pointers clear the column.
func (c Changes) Columns() map[string]any {
	return map[string]any{
		"business_id":   c.BusinessID,
		"is_approved":   c.IsApproved,
		"approved_by":   c.ApprovedBy,
		"approval_date": c.ApprovalDate,
		"status":        c.Status,
	}
}

// Apply copies the changes onto an in-memory user.
func (c Changes) Apply(u *models.User) {
	u.BusinessID = c.BusinessID
	u.IsApproved = c.IsApproved
	u.ApprovedBy = c.ApprovedBy
	u.ApprovalDate = c.ApprovalDate
	u.Status = c.Status
}

// Outcome is the result of planning a transition.
type Outcome struct {
	From    State
	To      State
	Changes Changes
	Effects []Effect
}

// StateOf derives the membership state of a user row.
func StateOf(u models.User) State {
	switch {
	case !u.HasBusiness():
		return StateIndependent
	case u.IsApproved:
		return StateApproved
	case u.Status == enums.UserStatusRejected:
		return StateRemoved
	}
	return StatePending
}

var allowed = map[Action][]State{
	ActionRequestJoin:      {StateIndependent, StateRemoved},
	ActionAcceptInvitation: {StateIndependent, StatePending, StateRemoved},
	ActionApprove:          {StatePending},
	ActionReject:           {StatePending},
	ActionRemove:           {StateApproved},
}

// Plan validates the transition against the user's current state and returns
// the row changes and the side effects to dispatch. It does not mutate user.
func Plan(user models.User, t Transition, now time.Time) (*Outcome, error) {
	if !user.Role.IsTradieLike() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only tradies hold company memberships")
	}
	from := StateOf(user)
	states, ok := allowed[t.Action]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown membership action %q", t.Action)
	}
	if !containsState(states, from) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s a tradie who is %s", humanAction(t.Action), from)
	}
	if t.BusinessID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}

	switch t.Action {
	case ActionApprove, ActionReject, ActionRemove:
		if *user.BusinessID != t.BusinessID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tradie does not belong to your company")
		}
	}

	out := &Outcome{From: from}
	businessID := t.BusinessID
	switch t.Action {
	case ActionRequestJoin:
		out.To = StatePending
		out.Changes = Changes{BusinessID: &businessID, Status: enums.UserStatusPendingInvitation}
		out.Effects = []Effect{EffectNotifyCompany}
	case ActionAcceptInvitation:
		out.To = StateApproved
		out.Changes = approvedChanges(businessID, t.ActorID, now)
		out.Effects = []Effect{EffectNotifyInviter}
	case ActionApprove:
		out.To = StateApproved
		out.Changes = approvedChanges(businessID, t.ActorID, now)
		out.Effects = []Effect{EffectNotifyTradie, EffectEmailAccepted}
	case ActionReject:
		out.To = StateIndependent
		out.Changes = Changes{Status: enums.UserStatusRejected}
		out.Effects = []Effect{EffectNotifyTradie, EffectEmailRejected}
	case ActionRemove:
		out.To = StateRemoved
		out.Changes = Changes{BusinessID: &businessID, Status: enums.UserStatusRejected}
		out.Effects = []Effect{EffectNotifyTradie, EffectEmailRemoved}
	}
	return out, nil
}

func approvedChanges(businessID, actorID uint, now time.Time) Changes {
	at := now.UTC()
	c := Changes{BusinessID: &businessID, IsApproved: true, ApprovalDate: &at, Status: enums.UserStatusActive}
	if actorID != 0 {
		approver := actorID
		c.ApprovedBy = &approver
	}
	return c
}

func containsState(states []State, s State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

func humanAction(a Action) string {
	switch a {
	case ActionRequestJoin:
		return "request to join for"
	case ActionAcceptInvitation:
		return "accept an invitation for"
	}
	return string(a)
}
