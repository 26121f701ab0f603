package notification

import (
	"time"

	"gorm.io/datatypes"
)

// Type names a marketplace lifecycle event. It doubles as the AMQP routing key.
type Type string

const (
	TypeOfferCreated   Type = "offer.created"
	TypeOfferUpdated   Type = "offer.updated"
	TypeOfferAccepted  Type = "offer.accepted"
	TypeOfferRejected  Type = "offer.rejected"
	TypeOfferWithdrawn Type = "offer.withdrawn"
	TypeOfferExpired   Type = "offer.expired"
	TypeListingExpired Type = "listing.expired"
)

// Event is delivered to one recipient.
type Event struct {
	Type       Type      `json:"type"`
	UserID     int64     `json:"user_id"`
	ActorID    int64     `json:"actor_id,omitempty"`
	OfferID    string    `json:"offer_id,omitempty"`
	ListingID  string    `json:"listing_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notification is the stored inbox copy of an Event.
type Notification struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	UserID    int64             `gorm:"index:idx_notifications_user_unread;not null" json:"user_id"`
	Type      Type              `gorm:"type:varchar(32);not null" json:"type"`
	Title     string            `gorm:"not null" json:"title"`
	Body      string            `json:"body,omitempty"`
	Data      datatypes.JSONMap `json:"data,omitempty"`
	IsRead    bool              `gorm:"index:idx_notifications_user_unread;not null;default:false" json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// MarkAsRead marks notification as read with timestamp
func (n *Notification) MarkAsRead(now time.Time) {
	n.IsRead = true
	n.ReadAt = &now
}
