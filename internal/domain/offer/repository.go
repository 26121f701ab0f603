package offer

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
	// x runs the aggregate queries gorm has no shape for.
	x *sqlx.DB
}

func NewRepository(db *gorm.DB, x *sqlx.DB) *Repository {
	return &Repository{db: db, x: x}
}

func (r *Repository) Create(ctx context.Context, o *Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// GetByID returns nil, nil when no offer has the id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Offer, error) {
	var o Offer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Offer, error) {
	var out []*Offer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByListings(ctx context.Context, listingIDs []string) ([]*Offer, error) {
	if len(listingIDs) == 0 {
		return []*Offer{}, nil
	}
	var out []*Offer
	err := r.db.WithContext(ctx).
		Where("listing_id IN ?", listingIDs).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// UpdateIfCurrent writes columns only while the stored row still has the
// given version and status. Otherwise it returns ErrStaleOffer.
func (r *Repository) UpdateIfCurrent(ctx context.Context, o *Offer, columns []string, version int, status Status) error {
	res := r.db.WithContext(ctx).Model(o).
		Where("version = ? AND status = ?", version, status).
		Select(columns).
		Updates(o)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleOffer
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Offer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOfferNotFound
	}
	return nil
}

// HasAccepted reports whether any offer on listingID is accepted.
func (r *Repository) HasAccepted(ctx context.Context, listingID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Offer{}).
		Where("listing_id = ? AND status = ?", listingID, StatusAccepted).
		Count(&n).Error
	return n > 0, err
}

// ListExpirable returns pending offers whose expires_at or valid_until
// is before now.
func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*Offer, error) {
	var out []*Offer
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Where("(expires_at IS NOT NULL AND expires_at < ?) OR (valid_until IS NOT NULL AND valid_until < ?)", now, now).
		Find(&out).Error
	return out, err
}

// CountSentByStatus counts the offers userID made, per status.
func (r *Repository) CountSentByStatus(ctx context.Context, userID int64) (map[Status]int, error) {
	return r.countByStatus(ctx, `
SELECT status, COUNT(*) AS n
FROM offers
WHERE user_id = ?
GROUP BY status`, userID)
}

// CountReceivedByStatus counts offers on listings ownerID owns, per status.
func (r *Repository) CountReceivedByStatus(ctx context.Context, ownerID int64) (map[Status]int, error) {
	return r.countByStatus(ctx, `
SELECT o.status, COUNT(*) AS n
FROM offers o
JOIN listings l ON l.id = o.listing_id
WHERE l.user_id = ?
GROUP BY o.status`, ownerID)
}

func (r *Repository) countByStatus(ctx context.Context, query string, args ...any) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.x.SelectContext(ctx, &rows, r.x.Rebind(query), args...); err != nil {
		return nil, err
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}
