package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"freightmarket/internal/domain/profile"
)

type Type string

const (
	TypeLoadListing      Type = "load_listing"
	TypeShipmentRequest  Type = "shipment_request"
	TypeTransportService Type = "transport_service"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type OfferType string

const (
	OfferFixedPrice OfferType = "fixed_price"
	OfferNegotiable OfferType = "negotiable"
	OfferAuction    OfferType = "auction"
	OfferFreeQuote  OfferType = "free_quote"
)

type TransportResponsible string

const (
	ResponsibleBuyer      TransportResponsible = "buyer"
	ResponsibleSeller     TransportResponsible = "seller"
	ResponsibleCarrier    TransportResponsible = "carrier"
	ResponsibleNegotiable TransportResponsible = "negotiable"
)

type TransportMode string

const (
	ModeRoad       TransportMode = "road"
	ModeSea        TransportMode = "sea"
	ModeAir        TransportMode = "air"
	ModeRail       TransportMode = "rail"
	ModeMultimodal TransportMode = "multimodal"
)

// TransportDetails holds the mode-specific fields of a transport service.
type TransportDetails struct {
	PlateNumber  string   `json:"plate_number,omitempty"`
	ShipName     string   `json:"ship_name,omitempty"`
	IMONumber    string   `json:"imo_number,omitempty"`
	MMSINumber   string   `json:"mmsi_number,omitempty"`
	DWT          *float64 `json:"dwt,omitempty"`
	LaycanStart  string   `json:"laycan_start,omitempty"`
	LaycanEnd    string   `json:"laycan_end,omitempty"`
	FlightNumber string   `json:"flight_number,omitempty"`
	TrainNumber  string   `json:"train_number,omitempty"`

	// Older rows kept a copy of required_documents here. The top-level
	// column is the only source of truth; see NormalizeMetadata.
	LegacyRequiredDocuments []string `json:"required_documents,omitempty"`
}

type ContactInfo struct {
	Contact     string `json:"contact"`
	CompanyName string `json:"company_name,omitempty"`
}

type Metadata struct {
	TransportDetails *TransportDetails `json:"transport_details,omitempty"`
	ContactInfo      *ContactInfo      `json:"contact_info,omitempty"`
}

// Listing is the flat storage row shared by all three listing variants.
// Use Variant to work with the type-specific view.
type Listing struct {
	ID            string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ListingNumber string   `gorm:"uniqueIndex;type:varchar(16);not null" json:"listing_number"`
	ListingType   Type     `gorm:"type:varchar(32);index;not null" json:"listing_type"`
	Title         string   `gorm:"not null" json:"title"`
	Description   string   `json:"description"`
	Origin        string   `gorm:"not null" json:"origin"`
	Destination   string   `gorm:"not null" json:"destination"`
	Status        Status   `gorm:"type:varchar(16);index;not null;default:active" json:"status"`
	Priority      Priority `gorm:"type:varchar(16);not null;default:normal" json:"priority"`

	LoadType                    string                      `json:"load_type,omitempty"`
	WeightValue                 *float64                    `json:"weight_value,omitempty"`
	WeightUnit                  string                      `json:"weight_unit,omitempty"`
	VolumeValue                 *float64                    `json:"volume_value,omitempty"`
	VolumeUnit                  string                      `json:"volume_unit,omitempty"`
	Quantity                    *int                        `json:"quantity,omitempty"`
	LoadingDate                 *time.Time                  `json:"loading_date,omitempty"`
	DeliveryDate                *time.Time                  `json:"delivery_date,omitempty"`
	PriceAmount                 decimal.NullDecimal         `gorm:"type:decimal(15,2)" json:"price_amount"`
	PriceCurrency               string                      `gorm:"type:varchar(3)" json:"price_currency,omitempty"`
	OfferType                   OfferType                   `gorm:"type:varchar(16)" json:"offer_type,omitempty"`
	TransportResponsible        TransportResponsible        `gorm:"type:varchar(16)" json:"transport_responsible,omitempty"`
	RequiredDocuments           datatypes.JSONSlice[string] `gorm:"column:required_documents" json:"required_documents"`
	SpecialHandlingRequirements string                      `json:"special_handling_requirements,omitempty"`

	TransportMode     TransportMode                `gorm:"type:varchar(16);not null;default:road" json:"transport_mode"`
	VehicleTypes      datatypes.JSONSlice[string]  `gorm:"column:vehicle_types" json:"vehicle_types"`
	AvailableFromDate *time.Time                   `json:"available_from_date,omitempty"`
	Metadata          datatypes.JSONType[Metadata] `gorm:"column:metadata" json:"metadata"`

	ImageURLs    datatypes.JSONSlice[string] `gorm:"column:image_urls" json:"image_urls"`
	DocumentURLs datatypes.JSONSlice[string] `gorm:"column:document_urls" json:"document_urls"`

	UserID    int64     `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`

	Owner *profile.Summary `gorm:"-" json:"owner,omitempty"`
}

func (Listing) TableName() string { return "listings" }

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Summary is the subset of listing columns joined onto offers.
type Summary struct {
	ID            string `json:"id"`
	ListingNumber string `json:"listing_number"`
	Title         string `json:"title"`
	ListingType   Type   `json:"listing_type"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Status        Status `json:"status"`
	UserID        int64  `json:"user_id"`
}

func (l *Listing) Summary() *Summary {
	return &Summary{
		ID:            l.ID,
		ListingNumber: l.ListingNumber,
		Title:         l.Title,
		ListingType:   l.ListingType,
		Origin:        l.Origin,
		Destination:   l.Destination,
		Status:        l.Status,
		UserID:        l.UserID,
	}
}

func (l *Listing) IsOwnedBy(userID int64) bool {
	return userID != 0 && l.UserID == userID
}
