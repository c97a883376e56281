package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderApproved      NotificationType = "order_approved"
	NotificationTypeOrderRejected      NotificationType = "order_rejected"
	NotificationTypeOrderModified      NotificationType = "order_modified"
	NotificationTypeOrderSubmitted     NotificationType = "order_submitted"
	NotificationTypeOrderStatus        NotificationType = "order_status"
	NotificationTypeJobAssigned        NotificationType = "job_assigned"
	NotificationTypeInvitationReceived NotificationType = "invitation_received"
	NotificationTypeInvitationAccepted NotificationType = "invitation_accepted"
	NotificationTypeInvitationRejected NotificationType = "invitation_rejected"
	NotificationTypeMembershipApproved NotificationType = "membership_approved"
	NotificationTypeMembershipRejected NotificationType = "membership_rejected"
	NotificationTypeMembershipRemoved  NotificationType = "membership_removed"
	NotificationTypeJoinRequest        NotificationType = "join_request"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderApproved,
	NotificationTypeOrderRejected,
	NotificationTypeOrderModified,
	NotificationTypeOrderSubmitted,
	NotificationTypeOrderStatus,
	NotificationTypeJobAssigned,
	NotificationTypeInvitationReceived,
	NotificationTypeInvitationAccepted,
	NotificationTypeInvitationRejected,
	NotificationTypeMembershipApproved,
	NotificationTypeMembershipRejected,
	NotificationTypeMembershipRemoved,
	NotificationTypeJoinRequest,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
