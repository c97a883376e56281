package enums

import "fmt"

// UserStatus records where a user sits in the company membership workflow.
type UserStatus string

const (
	UserStatusUnassigned        UserStatus = "unassigned"
	UserStatusPendingInvitation UserStatus = "pending_invitation"
	UserStatusInvited           UserStatus = "invited"
	UserStatusActive            UserStatus = "active"
	UserStatusRejected          UserStatus = "rejected"
)

var validUserStatuses = []UserStatus{
	UserStatusUnassigned,
	UserStatusPendingInvitation,
	UserStatusInvited,
	UserStatusActive,
	UserStatusRejected,
}

func (s UserStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UserStatus.
func (s UserStatus) IsValid() bool {
	for _, candidate := range validUserStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsAwaitingApproval reports whether the status means a membership is still open.
func (s UserStatus) IsAwaitingApproval() bool {
	return s == UserStatusUnassigned || s == UserStatusPendingInvitation || s == UserStatusInvited
}

// ParseUserStatus converts raw input into a UserStatus.
func ParseUserStatus(value string) (UserStatus, error) {
	for _, candidate := range validUserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user status %q", value)
}
