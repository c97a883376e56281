package notifications

import "fmt"

// Related is the entity a notification points at. Exactly one of the
// concrete reference types below; the set is closed.
type Related interface {
	relatedKind() string
	relatedID() uint
}

type OrderRef struct{ OrderID uint }
type JobRef struct{ JobID uint }
type UserRef struct{ UserID uint }
type InvitationRef struct{ InvitationID uint }

const (
	kindOrder      = "order"
	kindJob        = "job"
	kindUser       = "user"
	kindInvitation = "invitation"
)

func (r OrderRef) relatedKind() string      { return kindOrder }
func (r OrderRef) relatedID() uint          { return r.OrderID }
func (r JobRef) relatedKind() string        { return kindJob }
func (r JobRef) relatedID() uint            { return r.JobID }
func (r UserRef) relatedKind() string       { return kindUser }
func (r UserRef) relatedID() uint           { return r.UserID }
func (r InvitationRef) relatedKind() string { return kindInvitation }
func (r InvitationRef) relatedID() uint     { return r.InvitationID }

func encodeRelated(r Related) (*string, *uint) {
	if r == nil {
		return nil, nil
	}
	kind := r.relatedKind()
	id := r.relatedID()
	return &kind, &id
}

// decodeRelated rebuilds the reference from the stored column pair. Unknown
// or partial pairs decode to nil.
func decodeRelated(kind *string, id *uint) Related {
	if kind == nil || id == nil {
		return nil
	}
	switch *kind {
	case kindOrder:
		return OrderRef{OrderID: *id}
	case kindJob:
		return JobRef{JobID: *id}
	case kindUser:
		return UserRef{UserID: *id}
	case kindInvitation:
		return InvitationRef{InvitationID: *id}
	}
	return nil
}

// Link renders the portal path a notification opens.
func Link(r Related) string {
	switch ref := r.(type) {
	case OrderRef:
		return fmt.Sprintf("/orders/%d", ref.OrderID)
	case JobRef:
		return fmt.Sprintf("/jobs/%d", ref.JobID)
	case UserRef:
		return fmt.Sprintf("/pm/tradies/%d", ref.UserID)
	case InvitationRef:
		return "/invitations"
	case nil:
		return ""
	}
	panic(fmt.Sprintf("notifications: unhandled related type %T", r))
}
