package model

import "time"

// NotificationType is the condition a notification warns about.
type NotificationType string

// Notification types.
const (
	NotifyNearExpiry NotificationType = "near_expiry"
	NotifyExpired    NotificationType = "expired"
)

// Notification is an expiry warning for one batch. Notifications are
// never deleted; once Ignored is set it stays set.
type Notification struct {
	ID             int64            `json:"id" db:"id"`
	ProductID      int64            `json:"product_id" db:"product_id"`
	BatchNumber    string           `json:"batch_number" db:"batch_number"`
	Type           NotificationType `json:"type" db:"type"`
	Message        string           `json:"message" db:"message"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	IsRead         bool             `json:"is_read" db:"is_read"`
	Ignored        bool             `json:"ignored" db:"ignored"`
	LastNotifiedAt *time.Time       `json:"last_notified_at,omitempty" db:"last_notified_at"`
}

// SuppressionRule ignores notifications of type Type for batches whose
// status is BatchStatus.
type SuppressionRule struct {
	BatchStatus BatchStatus
	Type        NotificationType
}

// Matches reports whether the rule would suppress n given the status of
// the batch n refers to.
func (r SuppressionRule) Matches(n Notification, status BatchStatus) bool {
	return !n.Ignored && n.Type == r.Type && status == r.BatchStatus
}
