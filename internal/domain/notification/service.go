package notification

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the inbox persistence.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int64, now time.Time) error
	MarkAllAsRead(ctx context.Context, userID int64, now time.Time) (int64, error)
}

// Service keeps a per-user inbox of lifecycle events. It is itself a
// Publisher so it can sit in a Fanout next to the realtime sinks.
type Service struct {
	repo Store
	now  func() time.Time
}

func NewService(repo Store) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var titles = map[Type]string{
	TypeOfferCreated:   "Yeni teklif aldınız",
	TypeOfferUpdated:   "Teklif güncellendi",
	TypeOfferAccepted:  "Teklifiniz kabul edildi",
	TypeOfferRejected:  "Teklifiniz reddedildi",
	TypeOfferWithdrawn: "Teklif geri çekildi",
	TypeOfferExpired:   "Teklifin süresi doldu",
	TypeListingExpired: "İlanınızın süresi doldu",
}

// Publish stores e in the recipient's inbox.
func (s *Service) Publish(ctx context.Context, e Event) error {
	if e.UserID == 0 {
		return nil
	}
	title, ok := titles[e.Type]
	if !ok {
		title = string(e.Type)
	}

	data := datatypes.JSONMap{}
	if e.OfferID != "" {
		data["offer_id"] = e.OfferID
	}
	if e.ListingID != "" {
		data["listing_id"] = e.ListingID
	}
	if e.Status != "" {
		data["status"] = e.Status
	}

	created := e.OccurredAt
	if created.IsZero() {
		created = s.now()
	}
	n := &Notification{
		UserID:    e.UserID,
		Type:      e.Type,
		Title:     title,
		Data:      data,
		CreatedAt: created,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// List returns one page of the inbox plus unread and total counts.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*Notification, int64, int64, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	if items == nil {
		items = []*Notification{}
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, unread, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkAsRead(ctx, id, userID, s.now())
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID, s.now())
}
