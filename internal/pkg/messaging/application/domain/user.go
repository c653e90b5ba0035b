package messaging

// UserRef is the small sender-identity projection attached to outbound
// message events and push notifications.
type UserRef struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
}

// PushTarget is what the push gateway needs to know about a recipient.
// An empty token or a cleared opt-in flag makes push delivery a silent no-op.
type PushTarget struct {
	FCMToken           string `db:"fcm_token"`
	AllowNotifications bool   `db:"allow_notifications"`
}
