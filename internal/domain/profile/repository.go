package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, user_id, full_name, email, phone, company_name, city, address, tax_number, tax_office, rating, created_at, updated_at`

// Repository handles profile data access
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates profile repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetByUserID retrieves a profile by user ID; nil when absent.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	query := r.db.Rebind(`SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ?`)
	err := r.db.GetContext(ctx, &p, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserIDs loads all requested profiles in one query, keyed by user ID.
func (r *Repository) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*Profile, error) {
	out := make(map[int64]*Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT `+profileColumns+` FROM profiles WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}

	var rows []*Profile
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.UserID] = p
	}
	return out, nil
}

// Create inserts a profile and fills its ID.
func (r *Repository) Create(ctx context.Context, p *Profile) error {
	query := r.db.Rebind(`
		INSERT INTO profiles (
			user_id, full_name, email, phone, company_name, city, address,
			tax_number, tax_office, rating, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowxContext(
		ctx, query,
		p.UserID, p.FullName, p.Email, p.Phone, p.CompanyName, p.City, p.Address,
		p.TaxNumber, p.TaxOffice, p.Rating, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil && isUniqueViolation(err) {
		return ErrProfileAlreadyExists
	}
	return err
}

// Update writes all editable columns of a profile.
func (r *Repository) Update(ctx context.Context, p *Profile) error {
	query := r.db.Rebind(`
		UPDATE profiles
		SET full_name = ?, phone = ?, company_name = ?, city = ?, address = ?,
		    tax_number = ?, tax_office = ?, updated_at = ?
		WHERE user_id = ?
	`)
	res, err := r.db.ExecContext(
		ctx, query,
		p.FullName, p.Phone, p.CompanyName, p.City, p.Address,
		p.TaxNumber, p.TaxOffice, p.UpdatedAt, p.UserID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
