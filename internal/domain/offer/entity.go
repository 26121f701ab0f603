package offer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"freightmarket/internal/domain/listing"
	"freightmarket/internal/domain/profile"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
	StatusExpired   Status = "expired"
	// StatusCountered is accepted when reading old rows; no transition leads to it.
	StatusCountered Status = "countered"
)

type Type string

const (
	TypeBid         Type = "bid"
	TypeQuote       Type = "quote"
	TypeDirectOffer Type = "direct_offer"
)

type PricePer string

const (
	PerTotal     PricePer = "total"
	PerKm        PricePer = "per_km"
	PerTon       PricePer = "per_ton"
	PerTonKm     PricePer = "per_ton_km"
	PerPallet    PricePer = "per_pallet"
	PerHour      PricePer = "per_hour"
	PerDay       PricePer = "per_day"
	PerContainer PricePer = "per_container"
	PerTEU       PricePer = "per_teu"
	PerCBM       PricePer = "per_cbm"
	PerPiece     PricePer = "per_piece"
	PerVehicle   PricePer = "per_vehicle"
)

type ServiceScope string

const (
	ScopeDoorToDoor           ServiceScope = "door_to_door"
	ScopePortToPort           ServiceScope = "port_to_port"
	ScopeTerminalToTerminal   ServiceScope = "terminal_to_terminal"
	ScopeWarehouseToWarehouse ServiceScope = "warehouse_to_warehouse"
	ScopePickupOnly           ServiceScope = "pickup_only"
	ScopeDeliveryOnly         ServiceScope = "delivery_only"
)

// Offer is a commercial proposal made by UserID against one listing.
type Offer struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ListingID string `gorm:"type:varchar(36);index;not null" json:"listing_id"`
	UserID    int64  `gorm:"index;not null" json:"user_id"`

	OfferType     Type            `gorm:"type:varchar(16);not null" json:"offer_type"`
	PriceAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price_amount"`
	PriceCurrency string          `gorm:"type:varchar(3);not null" json:"price_currency"`
	PricePer      PricePer        `gorm:"type:varchar(16);not null" json:"price_per"`

	TransportMode         string       `gorm:"type:varchar(16)" json:"transport_mode,omitempty"`
	CargoType             string       `json:"cargo_type,omitempty"`
	ServiceScope          ServiceScope `gorm:"type:varchar(32)" json:"service_scope,omitempty"`
	PickupDatePreferred   *time.Time   `json:"pickup_date_preferred,omitempty"`
	DeliveryDatePreferred *time.Time   `json:"delivery_date_preferred,omitempty"`
	TransitTimeEstimate   string       `json:"transit_time_estimate,omitempty"`

	CustomsHandlingIncluded       bool `json:"customs_handling_included"`
	DocumentationHandlingIncluded bool `json:"documentation_handling_included"`
	LoadingUnloadingIncluded      bool `json:"loading_unloading_included"`
	TrackingSystemProvided        bool `json:"tracking_system_provided"`
	ExpressService                bool `json:"express_service"`
	WeekendService                bool `json:"weekend_service"`
	FuelSurchargeIncluded         bool `json:"fuel_surcharge_included"`
	TollFeesIncluded              bool `json:"toll_fees_included"`

	Message            string            `json:"message,omitempty"`
	SpecialConditions  string            `json:"special_conditions,omitempty"`
	ContactPerson      string            `json:"contact_person,omitempty"`
	ContactPhone       string            `json:"contact_phone,omitempty"`
	PaymentTerms       string            `json:"payment_terms,omitempty"`
	PaymentMethod      string            `json:"payment_method,omitempty"`
	ExpiresAt          *time.Time        `gorm:"index" json:"expires_at,omitempty"`
	ValidUntil         *time.Time        `json:"valid_until,omitempty"`
	AdditionalTerms    datatypes.JSONMap `json:"additional_terms,omitempty"`
	AdditionalServices datatypes.JSONMap `json:"additional_services,omitempty"`

	Status    Status    `gorm:"type:varchar(16);index;not null" json:"status"`
	Version   int       `gorm:"not null" json:"version"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`

	Listing *listing.Summary        `gorm:"-" json:"listing,omitempty"`
	Carrier *profile.CarrierSummary `gorm:"-" json:"carrier,omitempty"`
}

func (Offer) TableName() string { return "offers" }

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Deadline is the earliest of expires_at and valid_until, or nil.
func (o *Offer) Deadline() *time.Time {
	switch {
	case o.ExpiresAt == nil:
		return o.ValidUntil
	case o.ValidUntil == nil:
		return o.ExpiresAt
	case o.ValidUntil.Before(*o.ExpiresAt):
		return o.ValidUntil
	}
	return o.ExpiresAt
}

// listingOwner is known only after the listing summary is attached.
func (o *Offer) listingOwner() int64 {
	if o.Listing == nil {
		return 0
	}
	return o.Listing.UserID
}

// Stats counts offers per status bucket.
type Stats struct {
	Sent     Bucket `json:"sent"`
	Received Bucket `json:"received"`
}

type Bucket struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

func bucketFrom(counts map[Status]int) Bucket {
	var b Bucket
	for status, n := range counts {
		b.Total += n
		switch status {
		case StatusPending:
			b.Pending = n
		case StatusAccepted:
			b.Accepted = n
		case StatusRejected:
			b.Rejected = n
		}
	}
	return b
}
