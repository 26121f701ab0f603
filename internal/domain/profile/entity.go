package profile

import (
	"database/sql"
	"time"
)

// Profile holds the public-facing details of a marketplace member.
type Profile struct {
	ID     int64 `db:"id" gorm:"primaryKey" json:"id"`
	UserID int64 `db:"user_id" gorm:"uniqueIndex;not null" json:"user_id"`

	FullName    string         `db:"full_name" gorm:"not null;default:''" json:"full_name"`
	Email       string         `db:"email" gorm:"not null;default:''" json:"email"`
	Phone       sql.NullString `db:"phone" json:"phone"`
	CompanyName sql.NullString `db:"company_name" json:"company_name"`
	City        sql.NullString `db:"city" json:"city"`
	Address     sql.NullString `db:"address" json:"address"`
	TaxNumber   sql.NullString `db:"tax_number" json:"tax_number"`
	TaxOffice   sql.NullString `db:"tax_office" json:"tax_office"`
	Rating      float64        `db:"rating" gorm:"not null;default:0" json:"rating"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// Summary is the owner block attached to listings at read time.
type Summary struct {
	UserID      int64   `json:"user_id"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	CompanyName string  `json:"company_name,omitempty"`
	City        string  `json:"city,omitempty"`
	Rating      float64 `json:"rating"`
	Address     string  `json:"address,omitempty"`
	TaxNumber   string  `json:"tax_number,omitempty"`
	TaxOffice   string  `json:"tax_office,omitempty"`
}

// CarrierSummary is the reduced block attached to offers.
type CarrierSummary struct {
	UserID      int64   `json:"user_id"`
	FullName    string  `json:"full_name"`
	CompanyName string  `json:"company_name,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Rating      float64 `json:"rating"`
}

func (p *Profile) Summary() *Summary {
	return &Summary{
		UserID:      p.UserID,
		FullName:    p.DisplayName(),
		Email:       p.Email,
		Phone:       p.Phone.String,
		CompanyName: p.CompanyName.String,
		City:        p.City.String,
		Rating:      p.Rating,
		Address:     p.Address.String,
		TaxNumber:   p.TaxNumber.String,
		TaxOffice:   p.TaxOffice.String,
	}
}

func (p *Profile) CarrierSummary() *CarrierSummary {
	return &CarrierSummary{
		UserID:      p.UserID,
		FullName:    p.DisplayName(),
		CompanyName: p.CompanyName.String,
		Phone:       p.Phone.String,
		Rating:      p.Rating,
	}
}

// DisplayName falls back to the company name for accounts without a person name.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.CompanyName.Valid && p.CompanyName.String != "" {
		return p.CompanyName.String
	}
	return "Kullanıcı"
}
