package listing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"freightmarket/internal/pkg/validator"
)

// CreateListingRequest is the union of every listing form. Fields that do not
// belong to the chosen listing_type are ignored.
type CreateListingRequest struct {
	ListingType   Type          `json:"listing_type" validate:"required"`
	ListingNumber string        `json:"listing_number" validate:"omitempty,max=16"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	Status        Status        `json:"status"`
	Priority      Priority      `json:"priority"`
	TransportMode TransportMode `json:"transport_mode"`

	LoadType                    string               `json:"load_type"`
	WeightValue                 *float64             `json:"weight_value"`
	WeightUnit                  string               `json:"weight_unit"`
	VolumeValue                 *float64             `json:"volume_value"`
	VolumeUnit                  string               `json:"volume_unit"`
	Quantity                    *int                 `json:"quantity"`
	LoadingDate                 string               `json:"loading_date"`
	DeliveryDate                string               `json:"delivery_date"`
	PriceAmount                 *decimal.Decimal     `json:"price_amount"`
	PriceCurrency               string               `json:"price_currency"`
	OfferType                   OfferType            `json:"offer_type"`
	TransportResponsible        TransportResponsible `json:"transport_responsible"`
	RequiredDocuments           []string             `json:"required_documents"`
	SpecialHandlingRequirements string               `json:"special_handling_requirements"`

	VehicleTypes      []string  `json:"vehicle_types"`
	AvailableFromDate string    `json:"available_from_date"`
	Metadata          *Metadata `json:"metadata"`

	ImageURLs    []string `json:"image_urls"`
	DocumentURLs []string `json:"document_urls"`
}

// Draft builds the variant for the requested listing type and validates it.
func (r *CreateListingRequest) Draft() (Draft, validator.Errors) {
	errs := validator.Errors{}
	if !validTypes[r.ListingType] {
		errs.Add("listing_type", "oneof")
		return nil, errs
	}

	common := Common{
		ListingNumber: strings.TrimSpace(r.ListingNumber),
		Title:         strings.TrimSpace(r.Title),
		Description:   strings.TrimSpace(r.Description),
		Origin:        strings.TrimSpace(r.Origin),
		Destination:   strings.TrimSpace(r.Destination),
		Status:        r.Status,
		Priority:      r.Priority,
		TransportMode: r.TransportMode,
		ImageURLs:     r.ImageURLs,
		DocumentURLs:  r.DocumentURLs,
	}

	var d Draft
	switch r.ListingType {
	case TypeLoadListing:
		d = &LoadListing{Common: common, Cargo: r.cargo(errs)}
	case TypeShipmentRequest:
		d = &ShipmentRequest{Common: common, Cargo: r.cargo(errs)}
	case TypeTransportService:
		ts := &TransportService{
			Common:            common,
			VehicleTypes:      r.VehicleTypes,
			AvailableFromDate: dateField(errs, "available_from_date", r.AvailableFromDate),
			RequiredDocuments: r.RequiredDocuments,
			Price:             nullDecimal(r.PriceAmount),
			PriceCurrency:     strings.ToUpper(r.PriceCurrency),
		}
		if r.Metadata != nil {
			if r.Metadata.TransportDetails != nil {
				ts.Details = *r.Metadata.TransportDetails
				ts.RequiredDocuments = mergeDocuments(ts.RequiredDocuments, ts.Details.LegacyRequiredDocuments)
				ts.Details.LegacyRequiredDocuments = nil
			}
			if r.Metadata.ContactInfo != nil {
				ts.Contact = *r.Metadata.ContactInfo
			}
		}
		d = ts
	}

	for field, rule := range d.Validate() {
		errs.Add(field, rule)
	}
	return d, errs
}

func (r *CreateListingRequest) cargo(errs validator.Errors) Cargo {
	return Cargo{
		LoadType:                    strings.TrimSpace(r.LoadType),
		WeightValue:                 r.WeightValue,
		WeightUnit:                  r.WeightUnit,
		VolumeValue:                 r.VolumeValue,
		VolumeUnit:                  r.VolumeUnit,
		Quantity:                    r.Quantity,
		LoadingDate:                 dateField(errs, "loading_date", r.LoadingDate),
		DeliveryDate:                dateField(errs, "delivery_date", r.DeliveryDate),
		Price:                       nullDecimal(r.PriceAmount),
		PriceCurrency:               strings.ToUpper(r.PriceCurrency),
		OfferType:                   r.OfferType,
		TransportResponsible:        r.TransportResponsible,
		RequiredDocuments:           r.RequiredDocuments,
		SpecialHandlingRequirements: strings.TrimSpace(r.SpecialHandlingRequirements),
	}
}

// UpdateListingRequest is a partial update; nil fields are left unchanged.
type UpdateListingRequest struct {
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	Origin        *string        `json:"origin"`
	Destination   *string        `json:"destination"`
	Status        *Status        `json:"status"`
	Priority      *Priority      `json:"priority"`
	TransportMode *TransportMode `json:"transport_mode"`

	LoadType                    *string               `json:"load_type"`
	WeightValue                 *float64              `json:"weight_value"`
	WeightUnit                  *string               `json:"weight_unit"`
	VolumeValue                 *float64              `json:"volume_value"`
	VolumeUnit                  *string               `json:"volume_unit"`
	Quantity                    *int                  `json:"quantity"`
	LoadingDate                 *string               `json:"loading_date"`
	DeliveryDate                *string               `json:"delivery_date"`
	PriceAmount                 *decimal.Decimal      `json:"price_amount"`
	PriceCurrency               *string               `json:"price_currency"`
	OfferType                   *OfferType            `json:"offer_type"`
	TransportResponsible        *TransportResponsible `json:"transport_responsible"`
	RequiredDocuments           []string              `json:"required_documents"`
	SpecialHandlingRequirements *string               `json:"special_handling_requirements"`

	VehicleTypes      []string  `json:"vehicle_types"`
	AvailableFromDate *string   `json:"available_from_date"`
	Metadata          *Metadata `json:"metadata"`
}

// apply copies the provided fields onto l and returns the changed columns.
// Status is handled separately because it goes through CanTransition.
func (r *UpdateListingRequest) apply(l *Listing, errs validator.Errors) []string {
	var cols []string
	setText := func(col string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			cols = append(cols, col)
		}
	}

	setText("title", &l.Title, r.Title)
	setText("description", &l.Description, r.Description)
	setText("origin", &l.Origin, r.Origin)
	setText("destination", &l.Destination, r.Destination)
	setText("load_type", &l.LoadType, r.LoadType)
	setText("weight_unit", &l.WeightUnit, r.WeightUnit)
	setText("volume_unit", &l.VolumeUnit, r.VolumeUnit)
	setText("special_handling_requirements", &l.SpecialHandlingRequirements, r.SpecialHandlingRequirements)

	if r.Priority != nil {
		l.Priority = *r.Priority
		cols = append(cols, "priority")
	}
	if r.TransportMode != nil {
		l.TransportMode = *r.TransportMode
		cols = append(cols, "transport_mode")
	}
	if r.WeightValue != nil {
		l.WeightValue = r.WeightValue
		cols = append(cols, "weight_value")
	}
	if r.VolumeValue != nil {
		l.VolumeValue = r.VolumeValue
		cols = append(cols, "volume_value")
	}
	if r.Quantity != nil {
		l.Quantity = r.Quantity
		cols = append(cols, "quantity")
	}
	if r.LoadingDate != nil {
		l.LoadingDate = dateField(errs, "loading_date", *r.LoadingDate)
		cols = append(cols, "loading_date")
	}
	if r.DeliveryDate != nil {
		l.DeliveryDate = dateField(errs, "delivery_date", *r.DeliveryDate)
		cols = append(cols, "delivery_date")
	}
	if r.AvailableFromDate != nil {
		l.AvailableFromDate = dateField(errs, "available_from_date", *r.AvailableFromDate)
		cols = append(cols, "available_from_date")
	}
	if r.PriceAmount != nil {
		l.PriceAmount = nullDecimal(r.PriceAmount)
		cols = append(cols, "price_amount")
	}
	if r.PriceCurrency != nil {
		l.PriceCurrency = strings.ToUpper(strings.TrimSpace(*r.PriceCurrency))
		cols = append(cols, "price_currency")
	}
	if r.OfferType != nil {
		l.OfferType = *r.OfferType
		cols = append(cols, "offer_type")
	}
	if r.TransportResponsible != nil {
		l.TransportResponsible = *r.TransportResponsible
		cols = append(cols, "transport_responsible")
	}
	if r.VehicleTypes != nil {
		l.VehicleTypes = datatypes.JSONSlice[string](r.VehicleTypes)
		cols = append(cols, "vehicle_types")
	}
	if r.RequiredDocuments != nil {
		l.RequiredDocuments = datatypes.JSONSlice[string](mergeDocuments(r.RequiredDocuments, nil))
		cols = append(cols, "required_documents")
	}

	if r.Metadata != nil {
		meta := l.Metadata.Data()
		if r.Metadata.TransportDetails != nil {
			details := *r.Metadata.TransportDetails
			if len(details.LegacyRequiredDocuments) > 0 {
				l.RequiredDocuments = datatypes.JSONSlice[string](mergeDocuments(l.RequiredDocuments, details.LegacyRequiredDocuments))
				cols = append(cols, "required_documents")
			}
			details.LegacyRequiredDocuments = nil
			meta.TransportDetails = &details
		}
		if r.Metadata.ContactInfo != nil {
			contact := *r.Metadata.ContactInfo
			meta.ContactInfo = &contact
		}
		l.Metadata = datatypes.NewJSONType(meta)
		cols = append(cols, "metadata")
	}
	return cols
}

// UpdateStatusRequest toggles or terminates a listing.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=draft active paused completed cancelled expired"`
}

// SearchFilters are combined with AND. Text filters are case-insensitive
// substring matches.
type SearchFilters struct {
	Query       string   `form:"q"`
	ListingType Type     `form:"listing_type" validate:"omitempty,oneof=load_listing shipment_request transport_service"`
	Origin      string   `form:"origin"`
	Destination string   `form:"destination"`
	MinPrice    *float64 `form:"min_price" validate:"omitempty,gte=0"`
	MaxPrice    *float64 `form:"max_price" validate:"omitempty,gte=0"`
	Priority    Priority `form:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Limit       int      `form:"limit" validate:"omitempty,gte=0,lte=100"`
	Offset      int      `form:"offset" validate:"omitempty,gte=0"`
}

// AttachmentKind selects the listing column an uploaded file URL goes to.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

func dateField(errs validator.Errors, field, v string) *time.Time {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	t := parseDate(v)
	if t == nil {
		errs.Add(field, "invalid_date")
	}
	return t
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// mergeDocuments returns the union of both lists, keeping first-seen order
// and dropping blanks and duplicates.
func mergeDocuments(primary, extra []string) []string {
	out := make([]string, 0, len(primary)+len(extra))
	seen := make(map[string]struct{}, len(primary)+len(extra))
	for _, list := range [][]string{primary, extra} {
		for _, doc := range list {
			doc = strings.TrimSpace(doc)
			if doc == "" {
				continue
			}
			if _, ok := seen[doc]; ok {
				continue
			}
			seen[doc] = struct{}{}
			out = append(out, doc)
		}
	}
	return out
}
