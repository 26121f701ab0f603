package listing

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"freightmarket/internal/pkg/validator"
)

// Draft is one of LoadListing, ShipmentRequest or TransportService. Each
// variant carries only the fields meaningful for its type and is flattened
// into a Listing row at the persistence boundary.
type Draft interface {
	Type() Type
	Validate() validator.Errors
	Row(ownerID int64) *Listing
	base() *Common
}

// Common fields shared by every listing type.
type Common struct {
	ListingNumber string
	Title         string
	Description   string
	Origin        string
	Destination   string
	Status        Status
	Priority      Priority
	TransportMode TransportMode
	ImageURLs     []string
	DocumentURLs  []string
}

// Cargo describes goods to move; used by load listings and shipment requests.
type Cargo struct {
	LoadType                    string
	WeightValue                 *float64
	WeightUnit                  string
	VolumeValue                 *float64
	VolumeUnit                  string
	Quantity                    *int
	LoadingDate                 *time.Time
	DeliveryDate                *time.Time
	Price                       decimal.NullDecimal
	PriceCurrency               string
	OfferType                   OfferType
	TransportResponsible        TransportResponsible
	RequiredDocuments           []string
	SpecialHandlingRequirements string
}

type LoadListing struct {
	Common
	Cargo
}

type ShipmentRequest struct {
	Common
	Cargo
}

type TransportService struct {
	Common
	VehicleTypes      []string
	AvailableFromDate *time.Time
	Details           TransportDetails
	Contact           ContactInfo
	RequiredDocuments []string
	Price             decimal.NullDecimal
	PriceCurrency     string
}

func (d *LoadListing) Type() Type      { return TypeLoadListing }
func (d *ShipmentRequest) Type() Type  { return TypeShipmentRequest }
func (d *TransportService) Type() Type { return TypeTransportService }

func (d *LoadListing) base() *Common      { return &d.Common }
func (d *ShipmentRequest) base() *Common  { return &d.Common }
func (d *TransportService) base() *Common { return &d.Common }

func (d *LoadListing) Validate() validator.Errors {
	errs := validator.Errors{}
	validateCommon(errs, &d.Common)
	validateCargo(errs, &d.Cargo)
	return errs
}

func (d *ShipmentRequest) Validate() validator.Errors {
	errs := validator.Errors{}
	validateCommon(errs, &d.Common)
	validateCargo(errs, &d.Cargo)
	return errs
}

func (d *TransportService) Validate() validator.Errors {
	errs := validator.Errors{}
	validateCommon(errs, &d.Common)
	validateTransportService(errs, d)
	return errs
}

func (d *LoadListing) Row(ownerID int64) *Listing {
	l := d.Common.row(TypeLoadListing, ownerID)
	d.Cargo.fill(l)
	return l
}

func (d *ShipmentRequest) Row(ownerID int64) *Listing {
	l := d.Common.row(TypeShipmentRequest, ownerID)
	d.Cargo.fill(l)
	return l
}

func (d *TransportService) Row(ownerID int64) *Listing {
	l := d.Common.row(TypeTransportService, ownerID)
	l.VehicleTypes = datatypes.JSONSlice[string](nonNil(d.VehicleTypes))
	l.AvailableFromDate = d.AvailableFromDate
	l.RequiredDocuments = datatypes.JSONSlice[string](nonNil(d.RequiredDocuments))
	l.PriceAmount = d.Price
	l.PriceCurrency = d.PriceCurrency

	details := d.Details
	details.LegacyRequiredDocuments = nil
	contact := d.Contact
	l.Metadata = datatypes.NewJSONType(Metadata{TransportDetails: &details, ContactInfo: &contact})
	return l
}

func (c *Common) row(t Type, ownerID int64) *Listing {
	return &Listing{
		ListingNumber: c.ListingNumber,
		ListingType:   t,
		Title:         c.Title,
		Description:   c.Description,
		Origin:        c.Origin,
		Destination:   c.Destination,
		Status:        c.Status,
		Priority:      c.Priority,
		TransportMode: c.TransportMode,
		VehicleTypes:  datatypes.JSONSlice[string]{},
		ImageURLs:     datatypes.JSONSlice[string](nonNil(c.ImageURLs)),
		DocumentURLs:  datatypes.JSONSlice[string](nonNil(c.DocumentURLs)),
		UserID:        ownerID,
	}
}

func (c *Cargo) fill(l *Listing) {
	l.LoadType = c.LoadType
	l.WeightValue = c.WeightValue
	l.WeightUnit = c.WeightUnit
	l.VolumeValue = c.VolumeValue
	l.VolumeUnit = c.VolumeUnit
	l.Quantity = c.Quantity
	l.LoadingDate = c.LoadingDate
	l.DeliveryDate = c.DeliveryDate
	l.PriceAmount = c.Price
	l.PriceCurrency = c.PriceCurrency
	l.OfferType = c.OfferType
	l.TransportResponsible = c.TransportResponsible
	l.RequiredDocuments = datatypes.JSONSlice[string](nonNil(c.RequiredDocuments))
	l.SpecialHandlingRequirements = c.SpecialHandlingRequirements
}

// Variant rebuilds the type-specific view of a stored row. Unknown types
// yield nil.
func (l *Listing) Variant() Draft {
	common := Common{
		ListingNumber: l.ListingNumber,
		Title:         l.Title,
		Description:   l.Description,
		Origin:        l.Origin,
		Destination:   l.Destination,
		Status:        l.Status,
		Priority:      l.Priority,
		TransportMode: l.TransportMode,
		ImageURLs:     l.ImageURLs,
		DocumentURLs:  l.DocumentURLs,
	}

	switch l.ListingType {
	case TypeLoadListing:
		return &LoadListing{Common: common, Cargo: l.cargo()}
	case TypeShipmentRequest:
		return &ShipmentRequest{Common: common, Cargo: l.cargo()}
	case TypeTransportService:
		meta := l.Metadata.Data()
		ts := &TransportService{
			Common:            common,
			VehicleTypes:      l.VehicleTypes,
			AvailableFromDate: l.AvailableFromDate,
			RequiredDocuments: l.RequiredDocuments,
			Price:             l.PriceAmount,
			PriceCurrency:     l.PriceCurrency,
		}
		if meta.TransportDetails != nil {
			ts.Details = *meta.TransportDetails
		}
		if meta.ContactInfo != nil {
			ts.Contact = *meta.ContactInfo
		}
		return ts
	}
	return nil
}

func (l *Listing) cargo() Cargo {
	return Cargo{
		LoadType:                    l.LoadType,
		WeightValue:                 l.WeightValue,
		WeightUnit:                  l.WeightUnit,
		VolumeValue:                 l.VolumeValue,
		VolumeUnit:                  l.VolumeUnit,
		Quantity:                    l.Quantity,
		LoadingDate:                 l.LoadingDate,
		DeliveryDate:                l.DeliveryDate,
		Price:                       l.PriceAmount,
		PriceCurrency:               l.PriceCurrency,
		OfferType:                   l.OfferType,
		TransportResponsible:        l.TransportResponsible,
		RequiredDocuments:           l.RequiredDocuments,
		SpecialHandlingRequirements: l.SpecialHandlingRequirements,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
