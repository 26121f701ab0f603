package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const normalizeBatchSize = 100

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, l *Listing) error {
	err := r.db.WithContext(ctx).Create(l).Error
	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicateListingNumber
	}
	return err
}

// GetByID returns nil, nil when no listing has the id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Listing, error) {
	var l Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Listing, error) {
	var out []*Listing
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListActive returns active listings newest first; limit <= 0 means no cap.
func (r *Repository) ListActive(ctx context.Context, limit int) ([]*Listing, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []*Listing
	err := q.Find(&out).Error
	return out, err
}

func (r *Repository) Search(ctx context.Context, f SearchFilters) ([]*Listing, error) {
	q := r.db.WithContext(ctx).Model(&Listing{}).Where("status = ?", StatusActive)

	if text := strings.TrimSpace(f.Query); text != "" {
		pattern := likePattern(text)
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if f.ListingType != "" {
		q = q.Where("listing_type = ?", f.ListingType)
	}
	if origin := strings.TrimSpace(f.Origin); origin != "" {
		q = q.Where("LOWER(origin) LIKE ? ESCAPE '\\'", likePattern(origin))
	}
	if dest := strings.TrimSpace(f.Destination); dest != "" {
		q = q.Where("LOWER(destination) LIKE ? ESCAPE '\\'", likePattern(dest))
	}
	if f.MinPrice != nil {
		q = q.Where("price_amount >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price_amount <= ?", *f.MaxPrice)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}

	var out []*Listing
	err := q.Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&out).Error
	return out, err
}

// Update writes only the named columns, including zero values.
func (r *Repository) Update(ctx context.Context, l *Listing, columns []string) error {
	res := r.db.WithContext(ctx).Model(l).Select(columns).Updates(l)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

// Delete removes the listing together with every offer made on it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM offers WHERE listing_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Listing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrListingNotFound
		}
		return nil
	})
}

func (r *Repository) ListIDsByUser(ctx context.Context, userID int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Listing{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error
	return ids, err
}

// GetSummaries loads the offer-facing projection for every id in one query.
func (r *Repository) GetSummaries(ctx context.Context, ids []string) (map[string]*Summary, error) {
	out := make(map[string]*Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []*Summary
	err := r.db.WithContext(ctx).Model(&Listing{}).
		Select("id, listing_number, title, listing_type, origin, destination, status, user_id").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

// NormalizeMetadata walks rows whose metadata still mentions
// required_documents and saves those fix reports as changed.
func (r *Repository) NormalizeMetadata(ctx context.Context, now time.Time, fix func(*Listing) bool) (int, error) {
	changed := 0
	var batch []*Listing
	res := r.db.WithContext(ctx).
		Where("CAST(metadata AS TEXT) LIKE ?", "%required_documents%").
		FindInBatches(&batch, normalizeBatchSize, func(tx *gorm.DB, _ int) error {
			for _, l := range batch {
				if !fix(l) {
					continue
				}
				l.UpdatedAt = now
				err := r.db.WithContext(ctx).Model(l).
					Select("required_documents", "metadata", "updated_at").
					Updates(l).Error
				if err != nil {
					return err
				}
				changed++
			}
			return nil
		})
	return changed, res.Error
}

// Expire marks dated cargo listings whose delivery date has passed and
// returns what it changed.
func (r *Repository) Expire(ctx context.Context, now time.Time) ([]*Summary, error) {
	var expired []*Summary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Listing{}).
			Select("id, listing_number, title, listing_type, origin, destination, status, user_id").
			Where("status IN ?", []Status{StatusActive, StatusPaused}).
			Where("listing_type IN ?", []Type{TypeLoadListing, TypeShipmentRequest}).
			Where("delivery_date IS NOT NULL AND delivery_date < ?", now).
			Find(&expired).Error
		if err != nil || len(expired) == 0 {
			return err
		}

		ids := make([]string, 0, len(expired))
		for _, l := range expired {
			ids = append(ids, l.ID)
			l.Status = StatusExpired
		}
		return tx.Model(&Listing{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": StatusExpired, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
	return "%" + s + "%"
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
