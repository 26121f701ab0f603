package profile

import (
	"database/sql"
	"time"
)

// UpdateProfileRequest carries a partial profile update; nil fields are left alone.
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=2,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=160"`
	City        *string `json:"city" validate:"omitempty,max=80"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	TaxNumber   *string `json:"tax_number" validate:"omitempty,max=32"`
	TaxOffice   *string `json:"tax_office" validate:"omitempty,max=80"`
}

// ProfileResponse flattens nullable columns for API output.
type ProfileResponse struct {
	UserID      int64     `json:"user_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	City        string    `json:"city,omitempty"`
	Address     string    `json:"address,omitempty"`
	TaxNumber   string    `json:"tax_number,omitempty"`
	TaxOffice   string    `json:"tax_office,omitempty"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(p *Profile, private bool) ProfileResponse {
	resp := ProfileResponse{
		UserID:      p.UserID,
		FullName:    p.DisplayName(),
		CompanyName: p.CompanyName.String,
		City:        p.City.String,
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,
	}
	if private {
		resp.Email = p.Email
		resp.Phone = p.Phone.String
		resp.Address = p.Address.String
		resp.TaxNumber = p.TaxNumber.String
		resp.TaxOffice = p.TaxOffice.String
	}
	return resp
}

func applyString(dst *sql.NullString, v *string) {
	if v != nil {
		*dst = sql.NullString{String: *v, Valid: *v != ""}
	}
}
